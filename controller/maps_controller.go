package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AnmolGhill/ArogyaAI/models"
	"github.com/AnmolGhill/ArogyaAI/services"
)

type MapsController struct {
	mapsService services.MapsService
}

func NewMapsController(service services.MapsService) *MapsController {
	return &MapsController{
		mapsService: service,
	}
}

// Geocode is the handler for GET /api/maps/geocode?query=&region=. The
// upstream JSON is passed through unchanged so the browser never sees the key.
func (c *MapsController) Geocode(ctx *gin.Context) {
	query := strings.TrimSpace(ctx.Query("query"))
	if query == "" {
		respondError(ctx, http.StatusBadRequest, CodeMissingQuery, "Query parameter is required")
		return
	}

	data, err := c.mapsService.Geocode(ctx.Request.Context(), query, ctx.Query("region"))
	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, data)
	case errors.Is(err, services.ErrMapsNotConfigured):
		respondError(ctx, http.StatusInternalServerError, CodeMapsNotConfigured, "Google Maps API key not configured")
	case errors.Is(err, services.ErrGeocodeFailed):
		resp := models.ErrorResponse{Error: "Geocoding failed", Code: CodeGeocodeFailed}
		var upstream *services.GeocodeError
		if errors.As(err, &upstream) {
			resp.Details = map[string]string{"status": upstream.Status}
			if upstream.Message != "" {
				resp.Details["upstream"] = upstream.Message
			}
		}
		ctx.JSON(http.StatusBadGateway, resp)
	default:
		respondInternal(ctx)
	}
}
