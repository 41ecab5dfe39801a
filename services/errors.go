package services

import "errors"

// Diagnosis outcomes. Classification happens once in the AI adapter; callers
// only compare against these with errors.Is.
var (
	ErrInvalidInput         = errors.New("no symptoms provided")
	ErrNotConfigured        = errors.New("ai client not configured")
	ErrQuotaExceeded        = errors.New("ai quota exceeded")
	ErrDiagnosisUnavailable = errors.New("diagnosis unavailable")
)

// Account and OTP errors.
var (
	ErrInvalidName        = errors.New("name must be at least 3 characters")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOTPNotFound        = errors.New("otp not found")
	ErrOTPInvalid         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPLocked          = errors.New("too many invalid otp attempts")
	ErrOTPNotVerified     = errors.New("otp not verified")
	ErrMailFailed         = errors.New("failed to send mail")
	ErrInvalidToken       = errors.New("invalid token")
)

// Profile, maps and records errors.
var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrMapsNotConfigured = errors.New("maps api key not configured")
	ErrGeocodeFailed     = errors.New("geocoding failed")
	ErrRecordsDisabled   = errors.New("medical records are disabled")
	ErrRecordNotFound    = errors.New("record not found")
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrEmptyQuestion     = errors.New("no question provided")
	ErrNoRecordText      = errors.New("no text could be extracted from the record")
	ErrFileTooLarge      = errors.New("record file too large")
	ErrNoRecords         = errors.New("no medical records uploaded")
	ErrAnswerUnavailable = errors.New("answer unavailable")
)
