package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

var errTemporary = errors.New("temporary")

func noWait(context.Context, time.Duration) error { return nil }

func TestRetryPolicyRetriesTemporary(t *testing.T) {
	calls := 0
	policy := RetryPolicy{
		Attempts: 3,
		Logger:   zap.NewNop(),
		Wait:     noWait,
		Classify: func(err error) (bool, time.Duration) { return errors.Is(err, errTemporary), 0 },
	}

	out, err := policy.Do(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTemporary
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "ok" || calls != 3 {
		t.Fatalf("unexpected result %q after %d calls", out, calls)
	}
}

func TestRetryPolicyStopsOnPermanent(t *testing.T) {
	calls := 0
	permanent := errors.New("bad request")
	policy := RetryPolicy{
		Attempts: 5,
		Wait:     noWait,
		Classify: func(err error) (bool, time.Duration) { return false, 0 },
	}

	_, err := policy.Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryPolicyGivesUpOnLongDelay(t *testing.T) {
	calls := 0
	policy := RetryPolicy{
		Attempts: 3,
		Wait: func(context.Context, time.Duration) error {
			t.Fatal("wait must not be called")
			return nil
		},
		Classify: func(err error) (bool, time.Duration) { return true, time.Minute },
	}

	_, err := policy.Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", errTemporary
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected single failed call, got %d calls, err %v", calls, err)
	}
}

func TestRetryPolicyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := RetryPolicy{
		Attempts: 3,
		Wait:     noWait,
		Classify: func(err error) (bool, time.Duration) { return true, 0 },
	}

	_, err := policy.Do(ctx, func(context.Context) (string, error) {
		calls++
		cancel()
		return "", errTemporary
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected single call after cancellation, got %d calls, err %v", calls, err)
	}
}

func TestParseRetryDelay(t *testing.T) {
	cases := map[string]time.Duration{
		"quota exhausted, retry after 60 seconds": 60 * time.Second,
		"Please retry in 1.5s":                    1500 * time.Millisecond,
		"retry after 250ms":                       250 * time.Millisecond,
		"internal error":                          0,
	}
	for msg, expect := range cases {
		if got := ParseRetryDelay(msg); got != expect {
			t.Fatalf("ParseRetryDelay(%q): expected %v, got %v", msg, expect, got)
		}
	}
}

func TestTemporaryStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504, 529} {
		if !TemporaryStatus(code) {
			t.Fatalf("expected %d to be temporary", code)
		}
	}
	for _, code := range []int{400, 401, 403, 404} {
		if TemporaryStatus(code) {
			t.Fatalf("expected %d to be permanent", code)
		}
	}
}
