package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AnmolGhill/ArogyaAI/controller"
	"github.com/AnmolGhill/ArogyaAI/middleware"
	"github.com/AnmolGhill/ArogyaAI/models"
	"github.com/AnmolGhill/ArogyaAI/services"
)

const (
	ServiceName = "ArogyaAI Healthcare API"
	Version     = "1.0.0"
)

// Deps is everything SetupRoutes needs, built once in main.
type Deps struct {
	Logger      *zap.Logger
	CORSOrigins []string
	Tokens      *services.TokenManager
	Status      models.ServiceStatus

	// Probe, when set, is run by /health. A failure reports "degraded".
	Probe func(ctx context.Context) error

	Diagnosis *controller.DiagnosisController
	Auth      *controller.AuthController
	Profile   *controller.ProfileController
	Maps      *controller.MapsController
	Records   *controller.RecordController
}

func SetupRoutes(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.CORS(d.CORSOrigins),
	)
	r.MaxMultipartMemory = services.MaxRecordSize

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to " + ServiceName,
			"version": Version,
			"health":  "/health",
		})
	})

	r.GET("/health", func(c *gin.Context) {
		status := "healthy"
		if d.Probe != nil {
			if err := d.Probe(c.Request.Context()); err != nil {
				d.Logger.Warn("health probe failed", zap.Error(err))
				status = "degraded"
			}
		}
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   status,
			Service:  ServiceName,
			Version:  Version,
			Services: d.Status,
		})
	})

	r.POST("/diagnosis", d.Diagnosis.GetDiagnosis)
	r.POST("/diagnosis/test-connection", d.Diagnosis.TestConnection)

	requireAuth := middleware.Auth(d.Tokens)

	api := r.Group("/api")
	{
		// Paths the existing web client still calls.
		api.POST("/get_diagnosis", d.Diagnosis.GetDiagnosis)
		api.POST("/test-ai", d.Diagnosis.TestConnection)
		api.POST("/update-health", requireAuth, d.Profile.UpsertProfile)

		auth := api.Group("/auth")
		{
			auth.POST("/register", d.Auth.Register)
			auth.POST("/login", d.Auth.Login)
			auth.POST("/send-otp", d.Auth.SendOTP)
			auth.POST("/verify-otp", d.Auth.VerifyOTP)
			auth.POST("/reset-password", d.Auth.ResetPassword)
			auth.GET("/me", requireAuth, d.Auth.Me)
		}

		profile := api.Group("/profile", requireAuth)
		{
			profile.GET("/health", d.Profile.GetProfile)
			profile.PUT("/health", d.Profile.UpsertProfile)
			profile.DELETE("/health", d.Profile.DeleteProfile)
		}

		api.GET("/maps/geocode", d.Maps.Geocode)

		records := api.Group("/records", requireAuth)
		{
			records.POST("", d.Records.UploadRecord)
			records.GET("", d.Records.ListRecords)
			records.POST("/ask", d.Records.AskRecords)
			records.DELETE("/:id", d.Records.DeleteRecord)
		}
	}

	return r
}
