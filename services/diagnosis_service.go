package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/AnmolGhill/ArogyaAI/logger"
)

// DiagnosisService turns a symptom description into an HTML diagnosis.
type DiagnosisService interface {
	Diagnose(ctx context.Context, symptoms, language string) (string, error)
	TestConnection(ctx context.Context) (string, error)
}

type diagnosisServiceImpl struct {
	ai     AIClient
	logger *zap.Logger
}

func NewDiagnosisService(ai AIClient, logger *zap.Logger) DiagnosisService {
	return &diagnosisServiceImpl{
		ai:     ai,
		logger: logger.Named("diagnosis"),
	}
}

// Diagnose calls the AI exactly once. A quota failure is reported as
// ErrQuotaExceeded and never retried; every other failure collapses to
// ErrDiagnosisUnavailable.
func (s *diagnosisServiceImpl) Diagnose(ctx context.Context, symptoms, language string) (string, error) {
	if strings.TrimSpace(symptoms) == "" {
		return "", ErrInvalidInput
	}

	languageName := LanguageName(language)
	prompt := BuildDiagnosisPrompt(symptoms, languageName)

	s.logger.Info("requesting diagnosis",
		zap.String("provider", s.ai.Name()),
		zap.String("language", languageName),
		zap.String("symptoms", logger.Truncate(symptoms, 50)),
	)

	result := s.ai.Generate(ctx, prompt)
	switch result.Kind {
	case OutcomeSuccess:
		return result.Text, nil
	case OutcomeQuotaExceeded:
		s.logger.Warn("ai quota exceeded", zap.String("detail", result.Message))
		return "", ErrQuotaExceeded
	default:
		s.logger.Error("diagnosis failed",
			zap.String("outcome", result.Kind.String()),
			zap.String("detail", result.Message),
		)
		return "", ErrDiagnosisUnavailable
	}
}

// TestConnection sends the fixed greeting and returns whatever the AI said.
func (s *diagnosisServiceImpl) TestConnection(ctx context.Context) (string, error) {
	result := s.ai.Generate(ctx, TestConnectionPrompt)
	if result.Kind != OutcomeSuccess {
		s.logger.Error("ai connection test failed",
			zap.String("outcome", result.Kind.String()),
			zap.String("detail", result.Message),
		)
		return "", ErrDiagnosisUnavailable
	}
	return result.Text, nil
}
