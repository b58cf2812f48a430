package ai

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/spigell/resume-tailor/internal/utils"
	"go.uber.org/zap"
)

const (
	// DefaultRetryDelay is used when the backend gives no hint.
	DefaultRetryDelay = 2 * time.Second
	// MaxRetryDelay caps how long a retry may be postponed. Longer hints
	// (typically quota exhaustion) fail immediately.
	MaxRetryDelay = 30 * time.Second
)

var retryHint = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*(ms|s|sec|secs|seconds?)\b`)

// Classifier tells whether err is temporary and how long to wait before
// retrying. A zero delay means "use the default".
type Classifier func(err error) (temporary bool, delay time.Duration)

// RetryPolicy retries temporary failures of a single generation call.
type RetryPolicy struct {
	// Attempts is the total number of calls, including the first one.
	Attempts int
	Classify Classifier
	Logger   *zap.Logger
	// Wait defaults to utils.WaitFor.
	Wait func(ctx context.Context, d time.Duration) error
}

// Do runs call until it succeeds, fails permanently or attempts run out.
func (p RetryPolicy) Do(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	wait := p.Wait
	if wait == nil {
		wait = utils.WaitFor
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil || p.Classify == nil {
			break
		}

		temporary, delay := p.Classify(err)
		if !temporary || attempt == attempts {
			break
		}
		if delay <= 0 {
			delay = DefaultRetryDelay
		}
		if delay > MaxRetryDelay {
			logger.Warn("ai backend asked to wait too long, giving up",
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			break
		}

		logger.Warn("temporary ai backend error, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

// TemporaryStatus reports whether an HTTP status code is worth retrying.
func TemporaryStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		529: // anthropic "overloaded"
		return true
	default:
		return false
	}
}

// ParseRetryDelay extracts a "retry after N seconds" style hint from an error message.
func ParseRetryDelay(message string) time.Duration {
	m := retryHint.FindStringSubmatch(message)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if m[2] == "ms" {
		return time.Duration(value * float64(time.Millisecond))
	}
	return time.Duration(value * float64(time.Second))
}
