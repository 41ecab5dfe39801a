package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnmolGhill/ArogyaAI/models"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	u := &User{ID: "u1", Name: "Asha", Age: 30, Email: "asha@example.com", PasswordHash: "h1"}
	require.NoError(t, repo.Create(ctx, u))
	assert.ErrorIs(t, repo.Create(ctx, &User{ID: "u2", Email: "asha@example.com"}), ErrDuplicate)

	got, err := repo.GetByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got.Name = "changed"
	again, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", again.Name)

	require.NoError(t, repo.UpdatePassword(ctx, "asha@example.com", "h2"))
	again, _ = repo.GetByID(ctx, "u1")
	assert.Equal(t, "h2", again.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "nobody@example.com", "x"), ErrNotFound)
	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepository()

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	weight := 61.5
	require.NoError(t, repo.Save(ctx, &models.HealthProfile{UserID: "u1", BloodType: "O+", Weight: &weight}))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "O+", got.BloodType)
	require.NotNil(t, got.Weight)
	assert.Equal(t, 61.5, *got.Weight)

	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.ErrorIs(t, repo.Delete(ctx, "u1"), ErrNotFound)
}

func TestMemoryProfileRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepository()

	got, err := repo.Update(ctx, "u1", func(p *models.HealthProfile, exists bool) error {
		assert.False(t, exists)
		assert.Equal(t, "u1", p.UserID)
		p.BloodType = "B+"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "B+", got.BloodType)

	_, err = repo.Update(ctx, "u1", func(p *models.HealthProfile, exists bool) error {
		assert.True(t, exists)
		p.BloodType = "AB-"
		return errors.New("rejected")
	})
	require.Error(t, err)

	// A failed update leaves the stored document alone.
	stored, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "B+", stored.BloodType)
}

func TestMemoryOTPStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryOTPStore().WithClock(func() time.Time { return now })

	require.NoError(t, store.SaveOTP(ctx, "a@example.com", OTPEntry{Code: "123456", CreatedAt: now}, 5*time.Minute))

	entry, err := store.GetOTP(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", entry.Code)

	// Still retrievable after the code itself expired.
	now = now.Add(7 * time.Minute)
	_, err = store.GetOTP(ctx, "a@example.com")
	require.NoError(t, err)

	now = now.Add(4 * time.Minute)
	_, err = store.GetOTP(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryOTPStore_Verified(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryOTPStore().WithClock(func() time.Time { return now })

	ok, err := store.IsVerified(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.MarkVerified(ctx, "a@example.com", time.Minute))
	ok, _ = store.IsVerified(ctx, "a@example.com")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = store.IsVerified(ctx, "a@example.com")
	assert.False(t, ok)

	require.NoError(t, store.MarkVerified(ctx, "a@example.com", time.Minute))
	require.NoError(t, store.ClearVerified(ctx, "a@example.com"))
	ok, _ = store.IsVerified(ctx, "a@example.com")
	assert.False(t, ok)
}

func TestMemoryOTPStore_FailedAttempts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOTPStore()

	require.NoError(t, store.SaveOTP(ctx, "a@example.com", OTPEntry{Code: "123456", CreatedAt: time.Now()}, time.Minute))
	for want := 1; want <= 3; want++ {
		n, err := store.RecordFailedAttempt(ctx, "a@example.com", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// A new code starts from zero.
	require.NoError(t, store.SaveOTP(ctx, "a@example.com", OTPEntry{Code: "654321", CreatedAt: time.Now()}, time.Minute))
	n, err := store.RecordFailedAttempt(ctx, "a@example.com", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
