package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AnmolGhill/ArogyaAI/models"
	"github.com/AnmolGhill/ArogyaAI/repository"
)

var bloodTypes = map[string]bool{
	"A+": true, "A-": true,
	"B+": true, "B-": true,
	"AB+": true, "AB-": true,
	"O+": true, "O-": true,
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.HealthProfile, error)
	Upsert(ctx context.Context, userID string, update models.HealthProfileUpdate) (*models.HealthProfile, error)
	Delete(ctx context.Context, userID string) error
}

type profileServiceImpl struct {
	profiles repository.ProfileRepository
	now      func() time.Time
	logger   *zap.Logger
}

func NewProfileService(profiles repository.ProfileRepository, logger *zap.Logger) ProfileService {
	return &profileServiceImpl{
		profiles: profiles,
		now:      time.Now,
		logger:   logger.Named("profile"),
	}
}

func (s *profileServiceImpl) Get(ctx context.Context, userID string) (*models.HealthProfile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// Upsert applies the non-nil fields of update on top of the stored profile,
// creating it when absent. createdAt is preserved across updates.
func (s *profileServiceImpl) Upsert(ctx context.Context, userID string, update models.HealthProfileUpdate) (*models.HealthProfile, error) {
	if err := validateProfileUpdate(update); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	profile, err := s.profiles.Update(ctx, userID, func(p *models.HealthProfile, exists bool) error {
		if !exists {
			p.CreatedAt = now
		}
		applyProfileUpdate(p, update)
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	s.logger.Info("profile saved", zap.String("user_id", userID))
	return profile, nil
}

func (s *profileServiceImpl) Delete(ctx context.Context, userID string) error {
	if err := s.profiles.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("delete profile: %w", err)
	}
	s.logger.Info("profile deleted", zap.String("user_id", userID))
	return nil
}

func validateProfileUpdate(u models.HealthProfileUpdate) error {
	if u.Weight != nil && *u.Weight < 0 {
		return fmt.Errorf("%w: weight must not be negative", ErrInvalidProfile)
	}
	if u.Height != nil && *u.Height < 0 {
		return fmt.Errorf("%w: height must not be negative", ErrInvalidProfile)
	}
	if u.BloodType != nil {
		bt := strings.ToUpper(strings.TrimSpace(*u.BloodType))
		if bt != "" && !bloodTypes[bt] {
			return fmt.Errorf("%w: unknown blood type %q", ErrInvalidProfile, *u.BloodType)
		}
	}
	return nil
}

func applyProfileUpdate(p *models.HealthProfile, u models.HealthProfileUpdate) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}

	setString(&p.Name, u.Name)
	setString(&p.DOB, u.DOB)
	setString(&p.Gender, u.Gender)
	setString(&p.Conditions, u.Conditions)
	setString(&p.Medications, u.Medications)
	setString(&p.Allergies, u.Allergies)
	setString(&p.EmergencyName, u.EmergencyName)
	setString(&p.EmergencyRelation, u.EmergencyRelation)
	setString(&p.EmergencyPhone, u.EmergencyPhone)

	if u.Email != nil {
		p.Email = normalizeEmail(*u.Email)
	}
	if u.BloodType != nil {
		p.BloodType = strings.ToUpper(strings.TrimSpace(*u.BloodType))
	}
	if u.Weight != nil {
		w := *u.Weight
		p.Weight = &w
	}
	if u.Height != nil {
		h := *u.Height
		p.Height = &h
	}
}
