package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AnmolGhill/ArogyaAI/models"
	"github.com/AnmolGhill/ArogyaAI/services"
)

// DiagnosisController serves the symptom checker. It only translates between
// HTTP and DiagnosisService; the classification of AI failures happens below it.
type DiagnosisController struct {
	diagnosisService services.DiagnosisService
}

func NewDiagnosisController(service services.DiagnosisService) *DiagnosisController {
	return &DiagnosisController{
		diagnosisService: service,
	}
}

// GetDiagnosis is the handler for POST /diagnosis.
func (c *DiagnosisController) GetDiagnosis(ctx *gin.Context) {
	var req models.DiagnosisRequest

	// A body that does not parse is treated the same as one without symptoms.
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Symptoms) == "" {
		respondError(ctx, http.StatusBadRequest, CodeNoSymptoms, "No symptoms provided")
		return
	}

	diagnosis, err := c.diagnosisService.Diagnose(ctx.Request.Context(), req.Symptoms, req.Language)
	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, models.DiagnosisResponse{Response: diagnosis})
	case errors.Is(err, services.ErrInvalidInput):
		respondError(ctx, http.StatusBadRequest, CodeNoSymptoms, "No symptoms provided")
	case errors.Is(err, services.ErrQuotaExceeded):
		respondError(ctx, http.StatusTooManyRequests, CodeQuotaExceeded, quotaMessage)
	default:
		respondError(ctx, http.StatusInternalServerError, CodeDiagnosisUnavailable, "Failed to get diagnosis")
	}
}

// TestConnection is the handler for POST /diagnosis/test-connection.
func (c *DiagnosisController) TestConnection(ctx *gin.Context) {
	text, err := c.diagnosisService.TestConnection(ctx.Request.Context())
	if err != nil {
		respondError(ctx, http.StatusInternalServerError, CodeAIUnavailable, "AI connection test failed")
		return
	}
	ctx.JSON(http.StatusOK, models.MessageResponse{Message: text})
}
