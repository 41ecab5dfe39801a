package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPStore keeps pending codes and the "verified, may reset password" mark.
// Keys expire on their own; callers still compare CreatedAt against their TTL
// so an expired code can be told apart from a missing one.
type OTPStore interface {
	SaveOTP(ctx context.Context, email string, entry OTPEntry, ttl time.Duration) error
	GetOTP(ctx context.Context, email string) (*OTPEntry, error)
	DeleteOTP(ctx context.Context, email string) error
	// RecordFailedAttempt counts a wrong guess against the pending code and
	// returns the total so far. The count is reset by SaveOTP and DeleteOTP.
	RecordFailedAttempt(ctx context.Context, email string, ttl time.Duration) (int, error)
	MarkVerified(ctx context.Context, email string, ttl time.Duration) error
	IsVerified(ctx context.Context, email string) (bool, error)
	ClearVerified(ctx context.Context, email string) error
	Ping(ctx context.Context) error
}

const (
	otpKeyPrefix      = "arogya:otp:"
	attemptsKeyPrefix = "arogya:otp:attempts:"
	verifiedKeyPrefix = "arogya:otp:verified:"
)

// RedisOTPStore is the production OTPStore.
type RedisOTPStore struct {
	rdb *redis.Client
}

func NewRedisOTPStore(rdb *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{rdb: rdb}
}

// SaveOTP replaces any pending code. The key lives twice as long as the code
// is valid so late attempts are reported as expired.
func (s *RedisOTPStore) SaveOTP(ctx context.Context, email string, entry OTPEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode otp: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, otpKeyPrefix+email, payload, 2*ttl)
		pipe.Del(ctx, attemptsKeyPrefix+email)
		return nil
	})
	return err
}

func (s *RedisOTPStore) GetOTP(ctx context.Context, email string) (*OTPEntry, error) {
	payload, err := s.rdb.Get(ctx, otpKeyPrefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var entry OTPEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("decode otp: %w", err)
	}
	return &entry, nil
}

func (s *RedisOTPStore) DeleteOTP(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, otpKeyPrefix+email, attemptsKeyPrefix+email).Err()
}

// RecordFailedAttempt shares the code key's lifetime.
func (s *RedisOTPStore) RecordFailedAttempt(ctx context.Context, email string, ttl time.Duration) (int, error) {
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, attemptsKeyPrefix+email)
		pipe.Expire(ctx, attemptsKeyPrefix+email, 2*ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *RedisOTPStore) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	return s.rdb.Set(ctx, verifiedKeyPrefix+email, "1", ttl).Err()
}

func (s *RedisOTPStore) IsVerified(ctx context.Context, email string) (bool, error) {
	n, err := s.rdb.Exists(ctx, verifiedKeyPrefix+email).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisOTPStore) ClearVerified(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, verifiedKeyPrefix+email).Err()
}

func (s *RedisOTPStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

type memoryOTP struct {
	entry    OTPEntry
	deadline time.Time
	failures int
}

// MemoryOTPStore is an in-process OTPStore for development and tests.
type MemoryOTPStore struct {
	mu       sync.Mutex
	now      func() time.Time
	codes    map[string]memoryOTP
	verified map[string]time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{
		now:      time.Now,
		codes:    make(map[string]memoryOTP),
		verified: make(map[string]time.Time),
	}
}

// WithClock replaces the time source.
func (s *MemoryOTPStore) WithClock(now func() time.Time) *MemoryOTPStore {
	s.now = now
	return s
}

func (s *MemoryOTPStore) SaveOTP(_ context.Context, email string, entry OTPEntry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = memoryOTP{entry: entry, deadline: s.now().Add(2 * ttl)}
	return nil
}

func (s *MemoryOTPStore) GetOTP(_ context.Context, email string) (*OTPEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.codes[email]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(rec.deadline) {
		delete(s.codes, email)
		return nil, ErrNotFound
	}
	entry := rec.entry
	return &entry, nil
}

func (s *MemoryOTPStore) DeleteOTP(_ context.Context, email string) error {
	s.mu.Lock()
	delete(s.codes, email)
	s.mu.Unlock()
	return nil
}

// RecordFailedAttempt keeps the count on the pending code itself, so it goes
// away with it. Without a pending code the count starts and ends at one.
func (s *MemoryOTPStore) RecordFailedAttempt(_ context.Context, email string, _ time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.codes[email]
	if !ok {
		return 1, nil
	}
	rec.failures++
	s.codes[email] = rec
	return rec.failures, nil
}

func (s *MemoryOTPStore) MarkVerified(_ context.Context, email string, ttl time.Duration) error {
	s.mu.Lock()
	s.verified[email] = s.now().Add(ttl)
	s.mu.Unlock()
	return nil
}

func (s *MemoryOTPStore) IsVerified(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.verified[email]
	if !ok {
		return false, nil
	}
	if s.now().After(deadline) {
		delete(s.verified, email)
		return false, nil
	}
	return true, nil
}

func (s *MemoryOTPStore) ClearVerified(_ context.Context, email string) error {
	s.mu.Lock()
	delete(s.verified, email)
	s.mu.Unlock()
	return nil
}

func (s *MemoryOTPStore) Ping(context.Context) error {
	return nil
}
