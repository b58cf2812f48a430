package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/resume-tailor/internal/agents"
	"github.com/spigell/resume-tailor/internal/ai"
	"github.com/spigell/resume-tailor/internal/ai/anthropic"
	"github.com/spigell/resume-tailor/internal/ai/gemini"
	"github.com/spigell/resume-tailor/internal/ai/openai"
	"github.com/spigell/resume-tailor/internal/logger"
	"github.com/spigell/resume-tailor/internal/pipeline"
	"github.com/spigell/resume-tailor/internal/secrets"
	"go.uber.org/zap"
)

var providerKeyEnv = map[string][]string{
	ai.ProviderAnthropic: {"ANTHROPIC_API_KEY"},
	ai.ProviderGemini:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	ai.ProviderOpenAI:    {"OPENAI_API_KEY"},
}

func newGenerator(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = ai.ProviderAnthropic
	}

	env, ok := providerKeyEnv[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  provider + " api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   env,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.api-key-file, ai.api-key or %s)", err, strings.Join(env, "/"))
	}

	attempts := retryAttempts(cfg.MaxRetries)
	genLogger := logger.WithFields(log, logger.CommonFields(provider, cfg.Model)...).
		With(zap.Int("ai_retry_attempts", attempts))

	switch provider {
	case ai.ProviderGemini:
		return gemini.NewGenerator(ctx, apiKey, cfg.Model, attempts, genLogger)
	case ai.ProviderOpenAI:
		return openai.NewGenerator(apiKey, cfg.BaseURL, cfg.Model, attempts, genLogger)
	default:
		return anthropic.NewGenerator(apiKey, cfg.Model, attempts, genLogger)
	}
}

// retryAttempts converts ai.max-retries into the total number of calls. A
// negative value leaves the provider default in place.
func retryAttempts(maxRetries int) int {
	if maxRetries < 0 {
		return 0
	}
	return maxRetries + 1
}

func newCoordinator(ctx context.Context, cfg *Config, log *zap.Logger, opts ...pipeline.Option) (*pipeline.Coordinator, error) {
	generator, err := newGenerator(ctx, cfg.AI, log)
	if err != nil {
		return nil, fmt.Errorf("building ai generator: %w", err)
	}

	log.Info("using ai model",
		zap.String(logger.FieldProvider, cfg.AI.Provider),
		zap.String(logger.FieldModel, generator.Model()),
	)

	stages := pipeline.DefaultStages(generator, log, agents.Options{
		MaxLogLength: cfg.AI.MaxLogLength,
		Temperature:  cfg.AI.Temperature,
	})

	return pipeline.New(stages, log, opts...)
}
