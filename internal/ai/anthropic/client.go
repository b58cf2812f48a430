// Package anthropic implements ai.Generator on top of the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spigell/resume-tailor/internal/ai"
	"go.uber.org/zap"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	defaultAttempts  = 3
)

type messageCreator interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Generator sends system+user prompts to Claude models.
type Generator struct {
	messages messageCreator
	model    string
	attempts int
	logger   *zap.Logger
	wait     func(ctx context.Context, d time.Duration) error
}

// NewGenerator creates a Generator. The SDK's own retries are disabled so that
// ai.RetryPolicy is the single place retry decisions are made.
func NewGenerator(apiKey, model string, attempts int, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	client := sdk.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

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
		messages: &client.Messages,
		model:    model,
		attempts: attempts,
		logger:   logger,
	}, nil
}

func (g *Generator) GenerateContent(ctx context.Context, req ai.Request) (string, error) {
	if g == nil || g.messages == nil {
		return "", errors.New("anthropic generator is not initialized")
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(g.model),
		MaxTokens:   int64(maxTokens),
		Temperature: sdk.Float(req.Temperature),
		Messages: []sdk.MessageParam{{
			Role: sdk.MessageParamRoleUser,
			Content: []sdk.ContentBlockParamUnion{{
				OfText: &sdk.TextBlockParam{Text: message},
			}},
		}},
	}
	if system := strings.TrimSpace(req.System); system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	policy := ai.RetryPolicy{
		Attempts: g.attempts,
		Classify: classify,
		Logger:   g.logger,
		Wait:     g.wait,
	}

	return policy.Do(ctx, func(ctx context.Context) (string, error) {
		resp, err := g.messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("create message: %w", err)
		}
		return responseText(resp)
	})
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func responseText(resp *sdk.Message) (string, error) {
	if resp == nil {
		return "", ai.ErrEmptyResponse
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}
		text := strings.TrimSpace(block.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	output := builder.String()
	if output == "" {
		return "", ai.ErrEmptyResponse
	}
	return output, nil
}

func classify(err error) (bool, time.Duration) {
	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		return false, 0
	}

	var delay time.Duration
	if apiErr.Response != nil {
		delay = ai.ParseRetryDelay("retry after " + apiErr.Response.Header.Get("Retry-After") + " seconds")
	}
	return ai.TemporaryStatus(apiErr.StatusCode), delay
}
