package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/ainterviewer/internal/ai"
	"github.com/spigell/ainterviewer/internal/ai/gemini"
	"github.com/spigell/ainterviewer/internal/logger"
	"github.com/spigell/ainterviewer/internal/secrets"
)

const providerGemini = "gemini"

func newGateway(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Gateway, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != providerGemini {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	aiLogger := logger.WithCommonFields(log, providerGemini, cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, gemini.GeneratorConfig{
		APIKey:      apiKey,
		Model:       cfg.Gemini.Model,
		Temperature: cfg.Gemini.Temperature,
		MaxRetries:  cfg.Gemini.MaxRetries,
	}, aiLogger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries)))
	if err != nil {
		return nil, fmt.Errorf("creating gemini generator: %w", err)
	}

	return gemini.NewInterviewer(generator, cfg.Gemini.MaxLogLength, aiLogger), nil
}
