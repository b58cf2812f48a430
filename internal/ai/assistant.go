// Package ai defines the text-generation boundary used by every pipeline stage.
package ai

import (
	"context"
	"errors"
)

const (
	// ProviderGemini selects the Google Gemini backend.
	ProviderGemini = "gemini"
	// ProviderAnthropic selects the Anthropic Messages backend.
	ProviderAnthropic = "anthropic"
	// ProviderOpenAI selects any OpenAI-compatible chat completions backend.
	ProviderOpenAI = "openai"
)

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("ai backend returned empty response")

// Request is a single system+user exchange.
type Request struct {
	System          string
	Message         string
	MaxOutputTokens int
	Temperature     float64
}

// Generator produces a text reply for a request. Implementations must be safe
// for concurrent use.
type Generator interface {
	GenerateContent(ctx context.Context, req Request) (string, error)
	Model() string
}
