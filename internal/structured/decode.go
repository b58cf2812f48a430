package structured

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// ValidationError reports a reply that parsed as JSON but does not fit the
// expected record shape.
type ValidationError struct {
	Record string
	Cause  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Record, e.Cause)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Decode copies a generic JSON object into target using the json tags of the
// target type. Scalars are coerced where it is lossless (numbers to strings,
// single values to one-element lists).
func Decode(record string, data map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("build decoder for %s: %w", record, err)
	}

	if err := decoder.Decode(data); err != nil {
		return &ValidationError{Record: record, Cause: err}
	}
	return nil
}

// Validate checks struct constraints declared with validate tags.
func Validate(record string, v any) error {
	if err := validatorInstance().Struct(v); err != nil {
		return &ValidationError{Record: record, Cause: err}
	}
	return nil
}

// CoerceFloat reads a numeric value that may arrive as a number or a string
// such as "75" or "75%". It returns NaN when nothing usable is present.
func CoerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// Object returns the nested object stored under key, or nil.
func Object(data map[string]any, key string) map[string]any {
	obj, _ := data[key].(map[string]any)
	return obj
}
