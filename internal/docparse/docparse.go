// Package docparse extracts plain text from uploaded resume documents.
package docparse

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrUnsupported is returned when no parser handles the file extension.
	ErrUnsupported = errors.New("unsupported document format")
	// ErrEmpty is returned when a document contains no text.
	ErrEmpty = errors.New("no text content found")
)

// Error describes a document that could not be parsed.
type Error struct {
	Format string
	Cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Format, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Parser extracts text from one document format.
type Parser interface {
	Parse(data []byte) (string, error)
	Supports(filename string) bool
}

// Registry dispatches to the first parser that supports a filename.
type Registry struct {
	parsers []Parser
}

// NewRegistry returns a registry over parsers. Without arguments it registers
// the PDF, DOCX and plain-text parsers.
func NewRegistry(logger *zap.Logger, parsers ...Parser) *Registry {
	if len(parsers) == 0 {
		parsers = []Parser{NewPDF(logger), DOCX{}, Text{}}
	}
	return &Registry{parsers: parsers}
}

func (r *Registry) Supports(filename string) bool {
	return r.lookup(filename) != nil
}

// Parse extracts text from data using the parser registered for filename.
func (r *Registry) Parse(filename string, data []byte) (string, error) {
	parser := r.lookup(filename)
	if parser == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(filename))
	}
	return parser.Parse(data)
}

func (r *Registry) lookup(filename string) Parser {
	for _, p := range r.parsers {
		if p.Supports(filename) {
			return p
		}
	}
	return nil
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
