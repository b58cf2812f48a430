package docparse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// PDF extracts text page by page. Pages are separated by a blank line.
type PDF struct {
	logger *zap.Logger
}

func NewPDF(logger *zap.Logger) PDF {
	if logger == nil {
		logger = zap.NewNop()
	}
	return PDF{logger: logger}
}

func (PDF) Supports(filename string) bool {
	return hasExt(filename, ".pdf")
}

func (p PDF) Parse(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", &Error{Format: "PDF", Cause: fmt.Errorf("malformed document: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &Error{Format: "PDF", Cause: err}
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Warn("failed to extract pdf page", zap.Int("page", i), zap.Error(err))
			continue
		}
		if strings.TrimSpace(content) == "" {
			p.logger.Warn("pdf page has no extractable text", zap.Int("page", i))
			continue
		}
		pages = append(pages, content)
	}

	if len(pages) == 0 {
		return "", &Error{Format: "PDF", Cause: ErrEmpty}
	}
	return strings.Join(pages, "\n\n"), nil
}
