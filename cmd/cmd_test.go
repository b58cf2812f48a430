package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-tailor/internal/docparse"
	"github.com/spigell/resume-tailor/internal/jobfetch"
	"github.com/spigell/resume-tailor/internal/model"
	"github.com/spigell/resume-tailor/internal/pipeline"
	"github.com/spigell/resume-tailor/internal/render"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg *Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if cfg.AI.Provider != "anthropic" || cfg.AI.MaxRetries != 2 || cfg.AI.MaxLogLength != 200 {
		t.Fatalf("unexpected ai defaults: %+v", cfg.AI)
	}
	if cfg.Limits.MaxResumeBytes() != 10<<20 || cfg.Limits.MaxJobAdLength != 50000 {
		t.Fatalf("unexpected limits: %+v", cfg.Limits)
	}
	if cfg.Fetch.Timeout.Seconds() != 30 {
		t.Fatalf("unexpected fetch timeout: %s", cfg.Fetch.Timeout)
	}
	if cfg.OutputDir != "./out" || cfg.Server.Listen != ":8080" || cfg.Server.Concurrency != 4 {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.OutputDir, cfg.Server)
	}
}

func TestNewGenerator(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "env-key")

	tests := []struct {
		name    string
		cfg     AIConfig
		wantErr string
	}{
		{name: "anthropic inline key", cfg: AIConfig{Provider: "anthropic", APIKey: "k"}},
		{name: "openai key from env", cfg: AIConfig{Provider: "OpenAI", BaseURL: "http://localhost:11434/v1"}},
		{name: "missing key", cfg: AIConfig{Provider: "anthropic"}, wantErr: "ANTHROPIC_API_KEY"},
		{name: "unsupported provider", cfg: AIConfig{Provider: "llama", APIKey: "k"}, wantErr: "unsupported ai provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			gen, err := newGenerator(context.Background(), &cfg, zap.NewNop())
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gen.Model() == "" {
				t.Fatalf("expected default model to be set")
			}
		})
	}
}

func TestRetryAttempts(t *testing.T) {
	cases := map[int]int{
		-1: 0,
		0:  1,
		2:  3,
	}
	for maxRetries, expect := range cases {
		if got := retryAttempts(maxRetries); got != expect {
			t.Fatalf("retryAttempts(%d): expected %d calls, got %d", maxRetries, expect, got)
		}
	}
}

func TestReadResumeLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 2<<20)), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	registry := docparse.NewRegistry(zap.NewNop())

	if _, err := readResume(path, &LimitsConfig{MaxResumeSizeMB: 1}, registry); err == nil || !strings.Contains(err.Error(), "limit is 1 MB") {
		t.Fatalf("expected size limit error, got %v", err)
	}

	text, err := readResume(path, &LimitsConfig{MaxResumeSizeMB: 3}, registry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(text) != 2<<20 {
		t.Fatalf("unexpected text length %d", len(text))
	}
}

func TestResolveJobs(t *testing.T) {
	dir := t.TempDir()
	jobFile := filepath.Join(dir, "job.txt")
	if err := os.WriteFile(jobFile, []byte("Platform Engineer"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fetcher := jobfetch.New(jobfetch.Options{}, zap.NewNop())
	limits := &LimitsConfig{MaxJobAdLength: 20}

	jobs, err := resolveJobs(context.Background(), []string{jobFile}, "Go developer", limits, fetcher)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 || jobs[0].text != "Go developer" || jobs[1].text != "Platform Engineer" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}

	if _, err := resolveJobs(context.Background(), nil, strings.Repeat("x", 21), limits, fetcher); err == nil {
		t.Fatalf("expected length limit error")
	}
	if _, err := resolveJobs(context.Background(), []string{filepath.Join(dir, "missing.txt")}, "", limits, fetcher); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestExport(t *testing.T) {
	verification := model.NewVerificationReport(nil, nil)
	report := model.ChangeReport{OriginalScore: 50, ImprovedScore: 54, Verification: verification}
	result := pipeline.Result{RunID: "run-1", Success: true, Output: &pipeline.Output{
		Tailored:     &model.TailoredResume{Contact: model.ContactInfo{Name: "Jane Doe"}},
		Verification: &verification,
		Report:       &report,
	}}

	dir := filepath.Join(t.TempDir(), "job-1")
	pdf := render.NewPDFRenderer("pandoc", "", zap.NewNop())
	if err := export(context.Background(), dir, result, pdf, false); err != nil {
		t.Fatalf("export: %v", err)
	}

	resume, err := os.ReadFile(filepath.Join(dir, resumeMarkdownFile))
	if err != nil || !strings.HasPrefix(string(resume), "# Jane Doe") {
		t.Fatalf("unexpected resume markdown %q (%v)", resume, err)
	}

	changes, err := os.ReadFile(filepath.Join(dir, reportMarkdownFile))
	if err != nil || !strings.Contains(string(changes), "Improved Score:** 54%") {
		t.Fatalf("unexpected change report %q (%v)", changes, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, resultFile))
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var decoded pipeline.Result
	if err := json.Unmarshal(data, &decoded); err != nil || decoded.RunID != "run-1" {
		t.Fatalf("unexpected result.json %s (%v)", data, err)
	}

	if _, err := os.Stat(filepath.Join(dir, resumePDFFile)); !os.IsNotExist(err) {
		t.Fatalf("pdf must not be written when not requested")
	}
}
