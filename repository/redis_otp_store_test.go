package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisStore(t *testing.T) (*RedisOTPStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisOTPStore(rdb), mr
}

func TestRedisOTPStore_CodeLifetime(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniRedisStore(t)
	require.NoError(t, store.Ping(ctx))

	created := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveOTP(ctx, "a@example.com", OTPEntry{Code: "123456", CreatedAt: created}, 5*time.Minute))
	assert.Equal(t, 10*time.Minute, mr.TTL(otpKeyPrefix+"a@example.com"))

	entry, err := store.GetOTP(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", entry.Code)
	assert.True(t, created.Equal(entry.CreatedAt))

	// Past the code's own TTL the entry is still there to be reported expired.
	mr.FastForward(7 * time.Minute)
	_, err = store.GetOTP(ctx, "a@example.com")
	require.NoError(t, err)

	mr.FastForward(4 * time.Minute)
	_, err = store.GetOTP(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveOTP(ctx, "a@example.com", OTPEntry{Code: "111111", CreatedAt: created}, 5*time.Minute))
	require.NoError(t, store.DeleteOTP(ctx, "a@example.com"))
	_, err = store.GetOTP(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisOTPStore_Verified(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniRedisStore(t)

	ok, err := store.IsVerified(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.MarkVerified(ctx, "a@example.com", time.Minute))
	assert.True(t, mr.Exists(verifiedKeyPrefix+"a@example.com"))
	assert.Equal(t, time.Minute, mr.TTL(verifiedKeyPrefix+"a@example.com"))
	ok, err = store.IsVerified(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = store.IsVerified(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.MarkVerified(ctx, "a@example.com", time.Minute))
	require.NoError(t, store.ClearVerified(ctx, "a@example.com"))
	assert.False(t, mr.Exists(verifiedKeyPrefix+"a@example.com"))
}

func TestRedisOTPStore_FailedAttempts(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniRedisStore(t)
	key := attemptsKeyPrefix + "a@example.com"

	require.NoError(t, store.SaveOTP(ctx, "a@example.com", OTPEntry{Code: "123456", CreatedAt: time.Now()}, 5*time.Minute))
	for want := 1; want <= 3; want++ {
		n, err := store.RecordFailedAttempt(ctx, "a@example.com", 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	assert.Equal(t, 10*time.Minute, mr.TTL(key))

	// Saving a new code resets the count.
	require.NoError(t, store.SaveOTP(ctx, "a@example.com", OTPEntry{Code: "654321", CreatedAt: time.Now()}, 5*time.Minute))
	assert.False(t, mr.Exists(key))
	n, err := store.RecordFailedAttempt(ctx, "a@example.com", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.DeleteOTP(ctx, "a@example.com"))
	assert.False(t, mr.Exists(key))

	mr.Close()
	_, err = store.RecordFailedAttempt(ctx, "a@example.com", 5*time.Minute)
	assert.Error(t, err)
}
