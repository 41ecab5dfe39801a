package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/AnmolGhill/ArogyaAI/models"
)

// Machine readable error codes returned in ErrorResponse.Code.
const (
	CodeNoSymptoms           = "NO_SYMPTOMS"
	CodeQuotaExceeded        = "QUOTA_EXCEEDED"
	CodeDiagnosisUnavailable = "DIAGNOSIS_UNAVAILABLE"
	CodeAIUnavailable        = "AI_UNAVAILABLE"
	CodeValidation           = "VALIDATION_FAILED"
	CodeInternal             = "INTERNAL_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeUserExists           = "USER_EXISTS"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeOTPNotFound          = "OTP_NOT_FOUND"
	CodeOTPInvalid           = "OTP_INVALID"
	CodeOTPExpired           = "OTP_EXPIRED"
	CodeOTPLocked            = "OTP_LOCKED"
	CodeOTPNotVerified       = "OTP_NOT_VERIFIED"
	CodeOTPSendFailed        = "OTP_SEND_FAILED"
	CodeProfileNotFound      = "PROFILE_NOT_FOUND"
	CodeInvalidProfile       = "INVALID_PROFILE"
	CodeMapsNotConfigured    = "MAPS_NOT_CONFIGURED"
	CodeMissingQuery         = "MISSING_QUERY"
	CodeGeocodeFailed        = "GEOCODE_FAILED"
	CodeRecordsDisabled      = "RECORDS_DISABLED"
	CodeRecordNotFound       = "RECORD_NOT_FOUND"
	CodeInvalidFile          = "INVALID_FILE"
	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeEmptyQuestion        = "EMPTY_QUESTION"
	CodeNoRecords            = "NO_RECORDS"
	CodeAnswerUnavailable    = "ANSWER_UNAVAILABLE"
)

// quotaMessage is shown to clients whenever the AI provider rejects a call
// for rate or quota reasons.
const quotaMessage = "AI service quota exceeded. Please try again later."

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{Error: message, Code: code})
}

// respondBindError turns a gin binding failure into a 400. Validator errors
// carry one detail per offending field.
func respondBindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		respondError(c, http.StatusBadRequest, CodeValidation, "Invalid request body")
		return
	}

	details := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		details[fieldErr.Field()] = validationMessage(fieldErr)
	}
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "Validation failed",
		Code:    CodeValidation,
		Details: details,
	})
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "email":
		return fieldErr.Field() + " must be a valid email address"
	case "min":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "max":
		return fieldErr.Field() + " must be at most " + fieldErr.Param()
	case "gte":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "lte":
		return fieldErr.Field() + " must be at most " + fieldErr.Param()
	case "len":
		return fieldErr.Field() + " must be exactly " + fieldErr.Param() + " characters"
	case "numeric":
		return fieldErr.Field() + " must contain digits only"
	default:
		return fieldErr.Field() + " is invalid"
	}
}

func respondInternal(c *gin.Context) {
	respondError(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
}
