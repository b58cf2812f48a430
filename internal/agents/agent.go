// Package agents contains the model-backed pipeline stages: resume and job
// extraction, skill matching, tailoring and verification.
package agents

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/resume-tailor/internal/ai"
	"github.com/spigell/resume-tailor/internal/logger"
	"github.com/spigell/resume-tailor/internal/structured"
	"github.com/spigell/resume-tailor/internal/utils"
	"go.uber.org/zap"
)

const (
	defaultMaxLogLength = 200

	// LargeOutputTokens is used by stages that echo a whole resume back.
	LargeOutputTokens = 8192
	// DefaultOutputTokens is used by every other stage.
	DefaultOutputTokens = 4096
)

//go:embed prompts/*.md
var promptFS embed.FS

// Options tune every agent built from them.
type Options struct {
	// MaxLogLength limits prompt and response previews in debug logs.
	MaxLogLength int
	// Temperature is sent with every request. Zero keeps extraction deterministic.
	Temperature float64
}

type base struct {
	generator   ai.Generator
	logger      *zap.Logger
	maxLogLen   int
	temperature float64
}

func newBase(stage string, generator ai.Generator, log *zap.Logger, opts Options) base {
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	return base{
		generator:   generator,
		logger:      logger.WithStage(log, stage),
		maxLogLen:   opts.MaxLogLength,
		temperature: opts.Temperature,
	}
}

// ask sends one request and recovers a JSON object from the reply.
func (b *base) ask(ctx context.Context, system, message string, maxTokens int) (map[string]any, error) {
	if b.generator == nil {
		return nil, fmt.Errorf("ai generator is not configured")
	}

	b.logger.Debug("generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, b.maxLogLen)),
	)

	raw, err := b.generator.GenerateContent(ctx, ai.Request{
		System:          system,
		Message:         message,
		MaxOutputTokens: maxTokens,
		Temperature:     b.temperature,
	})
	if err != nil {
		return nil, err
	}

	b.logger.Debug("generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, b.maxLogLen)),
	)

	data, err := structured.ExtractJSON(raw)
	if err != nil {
		b.logger.Debug("unparseable response", zap.String("response_preview", utils.TruncateForLog(raw, b.maxLogLen)))
		return nil, err
	}
	return data, nil
}

func mustPrompt(name string) string {
	data, err := promptFS.ReadFile("prompts/" + name + ".md")
	if err != nil {
		panic(fmt.Sprintf("missing embedded prompt %q: %v", name, err))
	}
	return strings.TrimSpace(string(data))
}

// fill replaces {{KEY}} placeholders in template.
func fill(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
