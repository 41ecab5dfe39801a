package models

import "time"

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type DiagnosisResponse struct {
	Response string `json:"response"`
}

type UserResponse struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
}

type LoginResponse struct {
	UserResponse
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ServiceStatus is one line of the /health report.
type ServiceStatus struct {
	AI       string `json:"ai"`
	Database string `json:"database"`
	OTP      string `json:"otp"`
	Mail     string `json:"mail"`
	Records  string `json:"records"`
}

type HealthResponse struct {
	Status   string        `json:"status"`
	Service  string        `json:"service"`
	Version  string        `json:"version"`
	Services ServiceStatus `json:"services"`
}
