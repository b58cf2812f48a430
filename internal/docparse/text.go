package docparse

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Text reads plain-text files as UTF-8, falling back to Latin-1.
type Text struct{}

func (Text) Supports(filename string) bool {
	return hasExt(filename, ".txt", ".text", ".md")
}

func (Text) Parse(data []byte) (string, error) {
	text := string(data)
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", &Error{Format: "text", Cause: err}
		}
		text = string(decoded)
	}

	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return "", &Error{Format: "text", Cause: ErrEmpty}
	}
	return text, nil
}
