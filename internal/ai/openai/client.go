// Package openai implements ai.Generator for OpenAI-compatible chat completion
// endpoints (OpenAI itself, DeepSeek, local gateways).
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spigell/resume-tailor/internal/ai"
	"go.uber.org/zap"
)

const (
	defaultModel    = "gpt-4o"
	defaultAttempts = 3
)

type completionCreator interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type Generator struct {
	completions completionCreator
	model       string
	attempts    int
	logger      *zap.Logger
	wait        func(ctx context.Context, d time.Duration) error
}

// NewGenerator creates a Generator. An empty baseURL targets api.openai.com.
func NewGenerator(apiKey, baseURL, model string, attempts int, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		completions: client.Chat.Completions,
		model:       model,
		attempts:    attempts,
		logger:      logger,
	}, nil
}

func (g *Generator) GenerateContent(ctx context.Context, req ai.Request) (string, error) {
	if g == nil || g.completions == nil {
		return "", errors.New("openai generator is not initialized")
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(message))

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(openai.ChatModel(g.model)),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	policy := ai.RetryPolicy{
		Attempts: g.attempts,
		Classify: classify,
		Logger:   g.logger,
		Wait:     g.wait,
	}

	return policy.Do(ctx, func(ctx context.Context) (string, error) {
		completion, err := g.completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("create chat completion: %w", err)
		}
		return responseText(completion)
	})
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func responseText(completion *openai.ChatCompletion) (string, error) {
	if completion == nil {
		return "", ai.ErrEmptyResponse
	}
	for _, choice := range completion.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", ai.ErrEmptyResponse
}

func classify(err error) (bool, time.Duration) {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return false, 0
	}
	return ai.TemporaryStatus(apiErr.StatusCode), ai.ParseRetryDelay(apiErr.Message)
}
