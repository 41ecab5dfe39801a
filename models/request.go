package models

type DiagnosisRequest struct {
	Symptoms string `json:"symptoms"`
	Language string `json:"language"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=3"`
	Age      int    `json:"age" binding:"required,gte=17,lte=45"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// AskRecordsRequest is a question over the caller's uploaded medical records.
type AskRecordsRequest struct {
	Question string `json:"question"`
	Language string `json:"language"`
}
