package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnmolGhill/ArogyaAI/middleware"
	"github.com/AnmolGhill/ArogyaAI/models"
	"github.com/AnmolGhill/ArogyaAI/services"
)

// ProfileController serves the signed-in user's health profile.
type ProfileController struct {
	profileService services.ProfileService
}

func NewProfileController(service services.ProfileService) *ProfileController {
	return &ProfileController{
		profileService: service,
	}
}

func (c *ProfileController) GetProfile(ctx *gin.Context) {
	profile, err := c.profileService.Get(ctx.Request.Context(), middleware.CurrentUserID(ctx))
	if err != nil {
		c.respondProfileError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, profile)
}

// UpsertProfile serves both PUT /api/profile/health and the older
// POST /api/update-health.
func (c *ProfileController) UpsertProfile(ctx *gin.Context) {
	var update models.HealthProfileUpdate
	if err := ctx.ShouldBindJSON(&update); err != nil {
		respondBindError(ctx, err)
		return
	}

	profile, err := c.profileService.Upsert(ctx.Request.Context(), middleware.CurrentUserID(ctx), update)
	if err != nil {
		c.respondProfileError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, profile)
}

func (c *ProfileController) DeleteProfile(ctx *gin.Context) {
	if err := c.profileService.Delete(ctx.Request.Context(), middleware.CurrentUserID(ctx)); err != nil {
		c.respondProfileError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *ProfileController) respondProfileError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		respondError(ctx, http.StatusNotFound, CodeProfileNotFound, "Health profile not found")
	case errors.Is(err, services.ErrInvalidProfile):
		respondError(ctx, http.StatusBadRequest, CodeInvalidProfile, err.Error())
	default:
		respondInternal(ctx)
	}
}
