package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AnmolGhill/ArogyaAI/config"
	"github.com/AnmolGhill/ArogyaAI/controller"
	"github.com/AnmolGhill/ArogyaAI/models"
	"github.com/AnmolGhill/ArogyaAI/repository"
	"github.com/AnmolGhill/ArogyaAI/router"
	"github.com/AnmolGhill/ArogyaAI/services"
)

// App owns everything built at startup and releases it on Close.
type App struct {
	Engine  *gin.Engine
	closers []func() error
	logger  *zap.Logger
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("error during shutdown", zap.Error(err))
		}
	}
}

// buildApp wires storage, AI clients, services and controllers. Optional
// backends fall back to in-process implementations so a bare checkout runs.
func buildApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{logger: log}
	status := models.ServiceStatus{}

	var (
		users    repository.UserRepository
		profiles repository.ProfileRepository
	)
	if cfg.MySQLDSN != "" {
		db, err := repository.OpenMySQL(cfg.MySQLDSN, log)
		if err != nil {
			return nil, err
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			app.closers = append(app.closers, sqlDB.Close)
		}
		users = repository.NewUserRepository(db)
		profiles = repository.NewProfileRepository(db)
		status.Database = "mysql"
	} else {
		log.Warn("MYSQL_DSN not set, users and profiles are kept in memory")
		users = repository.NewMemoryUserRepository()
		profiles = repository.NewMemoryProfileRepository()
		status.Database = "memory"
	}

	var otps repository.OTPStore
	if cfg.RedisAddr != "" {
		rdb, err := repository.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, rdb.Close)
		otps = repository.NewRedisOTPStore(rdb)
		status.OTP = "redis"
	} else {
		otps = repository.NewMemoryOTPStore()
		status.OTP = "memory"
	}

	var mailer services.Mailer
	if cfg.SMTPConfigured() {
		mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword, log)
	} else {
		log.Warn("SMTP credentials not set, OTP codes are only logged")
		mailer = services.NewLogMailer(log)
	}
	status.Mail = mailer.Name()

	ai, gemini, err := services.NewAIClient(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	status.AI = ai.Name()
	if !ai.Configured() {
		status.AI += " (not configured)"
	}

	records, err := buildRecords(ctx, app, cfg, gemini, ai, log)
	if err != nil {
		return nil, err
	}
	status.Records = "disabled"
	if records.Enabled() {
		status.Records = "enabled"
	}

	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	app.Engine = router.SetupRoutes(router.Deps{
		Logger:      log,
		CORSOrigins: cfg.CORSOrigins,
		Tokens:      tokens,
		Status:      status,
		Probe:       otps.Ping,
		Diagnosis:   controller.NewDiagnosisController(services.NewDiagnosisService(ai, log)),
		Auth:        controller.NewAuthController(services.NewAuthService(users, otps, mailer, tokens, cfg.OTPTTL, log)),
		Profile:     controller.NewProfileController(services.NewProfileService(profiles, log)),
		Maps:        controller.NewMapsController(services.NewMapsService(cfg.GoogleMapsAPIKey, "", log)),
		Records:     controller.NewRecordController(records),
	})
	return app, nil
}

// buildRecords connects Chroma and starts the inbox watcher. Any missing piece
// leaves the feature disabled instead of failing startup.
func buildRecords(ctx context.Context, app *App, cfg *config.Config, gemini *services.GeminiClient, ai services.AIClient, log *zap.Logger) (services.RecordService, error) {
	if err := services.SetPDFLicense(cfg.UnidocLicenseKey); err != nil {
		log.Warn("PDF extraction unavailable", zap.Error(err))
	}

	if cfg.ChromaURL == "" || !gemini.Configured() {
		log.Warn("medical records disabled, set CHROMA_URL and GEMINI_API_KEY to enable")
		return services.NewRecordService(nil, gemini, ai, nil, log), nil
	}

	client, collection, err := services.OpenChromaCollection(ctx, cfg.ChromaURL, cfg.RecordsCollection)
	if err != nil {
		log.Error("could not connect to chroma, medical records disabled", zap.Error(err))
		return services.NewRecordService(nil, gemini, ai, nil, log), nil
	}
	app.closers = append(app.closers, client.Close)
	index := services.NewChromaRecordIndex(collection, log)

	var files *services.RecordFiles
	if cfg.RecordsDir != "" {
		files, err = services.NewRecordFiles(cfg.RecordsDir)
		if err != nil {
			return nil, err
		}
	}

	records := services.NewRecordService(index, gemini, ai, files, log)
	if count, err := index.Count(ctx); err == nil {
		log.Info("record index ready", zap.String("collection", cfg.RecordsCollection), zap.Int("chunks", count))
	}

	if files != nil {
		inbox := services.NewRecordInbox(records, files, log)
		go func() {
			inbox.ScanAndIndex(ctx)
			if err := inbox.Watch(ctx); err != nil {
				log.Error("records inbox watcher stopped", zap.Error(err))
			}
		}()
	}
	return records, nil
}
