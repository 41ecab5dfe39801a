package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/AnmolGhill/ArogyaAI/models"
	"github.com/AnmolGhill/ArogyaAI/repository"
)

// AuthService covers registration, login and the OTP password reset flow.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*models.UserResponse, error)
}

type authServiceImpl struct {
	users  repository.UserRepository
	otps   repository.OTPStore
	mailer Mailer
	tokens *TokenManager
	otpTTL time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewAuthService(
	users repository.UserRepository,
	otps repository.OTPStore,
	mailer Mailer,
	tokens *TokenManager,
	otpTTL time.Duration,
	logger *zap.Logger,
) AuthService {
	return &authServiceImpl{
		users:  users,
		otps:   otps,
		mailer: mailer,
		tokens: tokens,
		otpTTL: otpTTL,
		now:    time.Now,
		logger: logger.Named("auth"),
	}
}

// maxOTPAttempts is how many wrong codes a pending OTP survives.
const maxOTPAttempts = 5

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authServiceImpl) Register(ctx context.Context, req models.RegisterRequest) (*models.UserResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if len([]rune(name)) < 3 {
		return nil, ErrInvalidName
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &repository.User{
		ID:           uuid.New().String(),
		Name:         name,
		Age:          req.Age,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return &models.UserResponse{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Message: "User registered successfully",
	}, nil
}

// Login answers ErrInvalidCredentials for both an unknown email and a wrong
// password.
func (s *authServiceImpl) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &models.LoginResponse{
		UserResponse: models.UserResponse{
			UserID:  user.ID,
			Name:    user.Name,
			Email:   user.Email,
			Message: "Login successful",
		},
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *authServiceImpl) SendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	entry := repository.OTPEntry{Code: code, CreatedAt: s.now().UTC()}
	if err := s.otps.SaveOTP(ctx, email, entry, s.otpTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, email, code, s.otpTTL); err != nil {
		if errors.Is(err, ErrMailFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrMailFailed, err)
	}
	s.logger.Info("otp sent", zap.String("email", email), zap.String("mailer", s.mailer.Name()))
	return nil
}

// VerifyOTP consumes a matching, unexpired code and marks the email as
// allowed to reset its password for one OTP lifetime.
func (s *authServiceImpl) VerifyOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)

	entry, err := s.otps.GetOTP(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOTPNotFound
		}
		return fmt.Errorf("load otp: %w", err)
	}
	if entry.Code != strings.TrimSpace(code) {
		return s.failedAttempt(ctx, email)
	}
	if s.now().After(entry.CreatedAt.Add(s.otpTTL)) {
		return ErrOTPExpired
	}

	if err := s.otps.DeleteOTP(ctx, email); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	if err := s.otps.MarkVerified(ctx, email, s.otpTTL); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	s.logger.Info("otp verified", zap.String("email", email))
	return nil
}

// failedAttempt burns the pending code once maxOTPAttempts wrong guesses
// have been made against it.
func (s *authServiceImpl) failedAttempt(ctx context.Context, email string) error {
	n, err := s.otps.RecordFailedAttempt(ctx, email, s.otpTTL)
	if err != nil {
		return fmt.Errorf("count otp attempt: %w", err)
	}
	if n < maxOTPAttempts {
		return ErrOTPInvalid
	}
	if err := s.otps.DeleteOTP(ctx, email); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	s.logger.Warn("otp locked after repeated failures", zap.String("email", email), zap.Int("attempts", n))
	return ErrOTPLocked
}

func (s *authServiceImpl) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)

	verified, err := s.otps.IsVerified(ctx, email)
	if err != nil {
		return fmt.Errorf("check verification: %w", err)
	}
	if !verified {
		return ErrOTPNotVerified
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, email, string(hash)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.otps.ClearVerified(ctx, email); err != nil {
		s.logger.Warn("clear verification mark failed", zap.String("email", email), zap.Error(err))
	}
	s.logger.Info("password reset", zap.String("email", email))
	return nil
}

func (s *authServiceImpl) CurrentUser(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &models.UserResponse{UserID: user.ID, Name: user.Name, Email: user.Email}, nil
}
