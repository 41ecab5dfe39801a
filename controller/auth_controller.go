package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnmolGhill/ArogyaAI/middleware"
	"github.com/AnmolGhill/ArogyaAI/models"
	"github.com/AnmolGhill/ArogyaAI/services"
)

type AuthController struct {
	authService services.AuthService
}

func NewAuthController(service services.AuthService) *AuthController {
	return &AuthController{
		authService: service,
	}
}

// Register is the handler for POST /api/auth/register.
func (c *AuthController) Register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	user, err := c.authService.Register(ctx.Request.Context(), req)
	if err != nil {
		c.respondAuthError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, user)
}

// Login is the handler for POST /api/auth/login.
func (c *AuthController) Login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), req)
	if err != nil {
		c.respondAuthError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SendOTP is the handler for POST /api/auth/send-otp.
func (c *AuthController) SendOTP(ctx *gin.Context) {
	var req models.SendOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	if err := c.authService.SendOTP(ctx.Request.Context(), req.Email); err != nil {
		c.respondAuthError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, models.MessageResponse{Message: "OTP sent successfully"})
}

// VerifyOTP is the handler for POST /api/auth/verify-otp.
func (c *AuthController) VerifyOTP(ctx *gin.Context) {
	var req models.VerifyOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	if err := c.authService.VerifyOTP(ctx.Request.Context(), req.Email, req.OTP); err != nil {
		c.respondAuthError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, models.MessageResponse{Message: "OTP verified successfully"})
}

// ResetPassword is the handler for POST /api/auth/reset-password.
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req models.ResetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	if err := c.authService.ResetPassword(ctx.Request.Context(), req.Email, req.NewPassword); err != nil {
		c.respondAuthError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, models.MessageResponse{Message: "Password reset successfully"})
}

// Me is the handler for GET /api/auth/me. It runs behind the JWT middleware.
func (c *AuthController) Me(ctx *gin.Context) {
	user, err := c.authService.CurrentUser(ctx.Request.Context(), middleware.CurrentUserID(ctx))
	if err != nil {
		c.respondAuthError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

func (c *AuthController) respondAuthError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidName):
		respondError(ctx, http.StatusBadRequest, CodeValidation, "Name must be at least 3 characters")
	case errors.Is(err, services.ErrUserExists):
		respondError(ctx, http.StatusBadRequest, CodeUserExists, "User already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(ctx, http.StatusBadRequest, CodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, services.ErrOTPNotFound):
		respondError(ctx, http.StatusBadRequest, CodeOTPNotFound, "OTP not found")
	case errors.Is(err, services.ErrOTPInvalid):
		respondError(ctx, http.StatusBadRequest, CodeOTPInvalid, "Invalid OTP")
	case errors.Is(err, services.ErrOTPExpired):
		respondError(ctx, http.StatusBadRequest, CodeOTPExpired, "OTP expired")
	case errors.Is(err, services.ErrOTPLocked):
		respondError(ctx, http.StatusTooManyRequests, CodeOTPLocked, "Too many invalid attempts. Request a new OTP.")
	case errors.Is(err, services.ErrOTPNotVerified):
		respondError(ctx, http.StatusForbidden, CodeOTPNotVerified, "OTP not verified")
	case errors.Is(err, services.ErrUserNotFound):
		respondError(ctx, http.StatusNotFound, CodeUserNotFound, "User not found")
	case errors.Is(err, services.ErrMailFailed):
		respondError(ctx, http.StatusInternalServerError, CodeOTPSendFailed, "Failed to send OTP")
	default:
		respondInternal(ctx)
	}
}
