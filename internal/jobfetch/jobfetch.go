// Package jobfetch downloads job postings and reduces them to readable text.
package jobfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spigell/resume-tailor/internal/logger"
	"go.uber.org/zap"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxBodyBytes = 10 << 20
)

// Error represents a failure to fetch or extract a job posting.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a Fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Browser enables headless Chrome rendering when the plain HTTP response
	// yields too little text (JavaScript-rendered boards).
	Browser bool
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// Fetcher retrieves job postings over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	browser   bool
	render    func(ctx context.Context, url string, timeout time.Duration) (string, error)
	logger    *zap.Logger
}

func New(opts Options, log *zap.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = DefaultUserAgent
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Fetcher{
		client:    client,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		browser:   opts.Browser,
		render:    renderWithBrowser,
		logger:    log,
	}
}

// IsURL reports whether s looks like an http(s) URL.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch downloads rawURL and returns the cleaned job posting text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !IsURL(rawURL) {
		return "", &Error{URL: rawURL, Message: "invalid URL"}
	}

	log := logger.WithFields(f.logger, zap.String(logger.FieldSource, rawURL))
	log.Info("fetching job posting")

	html, err := f.get(ctx, rawURL)
	if err != nil {
		return "", err
	}

	text, extractErr := ExtractContent(html)
	if f.browser && ShouldUseBrowser(text) {
		log.Info("content too short, rendering with headless browser", zap.Int("length", len(text)))
		rendered, err := f.render(ctx, rawURL, f.timeout)
		if err != nil {
			log.Warn("browser rendering failed", zap.Error(err))
		} else if browserText, err := ExtractContent(rendered); err == nil && len(browserText) > len(text) {
			text, extractErr = browserText, nil
		}
	}

	if extractErr != nil {
		return "", &Error{URL: rawURL, Message: "could not extract job posting content", Cause: extractErr}
	}

	log.Info("job posting fetched", zap.Int("length", len(text)))
	return text, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: rawURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to read response body", Cause: err}
	}
	return string(body), nil
}
