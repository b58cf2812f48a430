// Package structured turns free-form model replies into typed records.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParse is returned when no JSON object can be recovered from a reply.
var ErrParse = errors.New("no JSON object found in model response")

var trailingComma = regexp.MustCompile(`,(\s*[}\]])`)

// ExtractJSON recovers a JSON object from a model reply. It strips a code
// fence (preferring one tagged json), then tries the text as-is, then the
// slice between the first '{' and the last '}', then the same slice with
// trailing commas removed.
func ExtractJSON(raw string) (map[string]any, error) {
	text := stripFence(raw)

	data, err := decodeObject(text)
	if err == nil {
		return data, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	text = text[start : end+1]

	if data, err = decodeObject(text); err == nil {
		return data, nil
	}

	text = trailingComma.ReplaceAllString(text, "$1")
	if data, err = decodeObject(text); err == nil {
		return data, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrParse, err)
}

func stripFence(raw string) string {
	text := strings.TrimSpace(raw)

	if idx := strings.Index(text, "```json"); idx != -1 {
		return fenceBody(text[idx+len("```json"):])
	}

	if idx := strings.Index(text, "```"); idx != -1 {
		body := text[idx+3:]
		// drop a language tag on the opening line
		if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.ContainsAny(body[:nl], "{[") {
			body = body[nl+1:]
		}
		return fenceBody(body)
	}

	return text
}

func fenceBody(body string) string {
	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func decodeObject(text string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.New("response is not a JSON object")
	}
	return data, nil
}
