package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AnmolGhill/ArogyaAI/models"
)

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*models.HealthProfile, error)
	Save(ctx context.Context, profile *models.HealthProfile) error
	// Update loads the profile (or a blank one with exists false), lets fn
	// change it and stores the result. Concurrent updates of one user run one
	// after the other.
	Update(ctx context.Context, userID string, fn ProfileUpdateFunc) (*models.HealthProfile, error)
	Delete(ctx context.Context, userID string) error
}

type ProfileUpdateFunc func(profile *models.HealthProfile, exists bool) error

// ProfileRepositoryImpl stores profiles as JSON documents in MySQL.
type ProfileRepositoryImpl struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &ProfileRepositoryImpl{db: db}
}

func (r *ProfileRepositoryImpl) Get(ctx context.Context, userID string) (*models.HealthProfile, error) {
	var row HealthProfileRow
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var profile models.HealthProfile
	if err := json.Unmarshal(row.Document, &profile); err != nil {
		return nil, fmt.Errorf("decode profile document: %w", err)
	}
	return &profile, nil
}

// Save inserts or replaces the user's document.
func (r *ProfileRepositoryImpl) Save(ctx context.Context, profile *models.HealthProfile) error {
	return saveProfileRow(r.db.WithContext(ctx), profile)
}

// Update holds a row lock on the document for the whole read-modify-write.
// A missing row is created through the same upsert Save uses.
func (r *ProfileRepositoryImpl) Update(ctx context.Context, userID string, fn ProfileUpdateFunc) (*models.HealthProfile, error) {
	var updated *models.HealthProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row HealthProfileRow
		profile := &models.HealthProfile{UserID: userID}
		exists := true

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			exists = false
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(row.Document, profile); err != nil {
				return fmt.Errorf("decode profile document: %w", err)
			}
		}

		if err := fn(profile, exists); err != nil {
			return err
		}
		if err := saveProfileRow(tx, profile); err != nil {
			return err
		}
		updated = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func saveProfileRow(db *gorm.DB, profile *models.HealthProfile) error {
	doc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile document: %w", err)
	}

	row := HealthProfileRow{
		UserID:    profile.UserID,
		Document:  datatypes.JSON(doc),
		CreatedAt: profile.CreatedAt,
		UpdatedAt: profile.UpdatedAt,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&row).Error
}

func (r *ProfileRepositoryImpl) Delete(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&HealthProfileRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MemoryProfileRepository keeps encoded documents in memory so callers never
// share the stored value.
type MemoryProfileRepository struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{docs: make(map[string][]byte)}
}

func (r *MemoryProfileRepository) Get(_ context.Context, userID string) (*models.HealthProfile, error) {
	r.mu.RLock()
	doc, ok := r.docs[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var profile models.HealthProfile
	if err := json.Unmarshal(doc, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *MemoryProfileRepository) Save(_ context.Context, profile *models.HealthProfile) error {
	doc, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.docs[profile.UserID] = doc
	r.mu.Unlock()
	return nil
}

func (r *MemoryProfileRepository) Update(_ context.Context, userID string, fn ProfileUpdateFunc) (*models.HealthProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile := &models.HealthProfile{UserID: userID}
	doc, exists := r.docs[userID]
	if exists {
		if err := json.Unmarshal(doc, profile); err != nil {
			return nil, err
		}
	}
	if err := fn(profile, exists); err != nil {
		return nil, err
	}

	doc, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}
	r.docs[userID] = doc
	return profile, nil
}

func (r *MemoryProfileRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[userID]; !ok {
		return ErrNotFound
	}
	delete(r.docs, userID)
	return nil
}
