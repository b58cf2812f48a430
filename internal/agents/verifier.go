package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/resume-tailor/internal/ai"
	"github.com/spigell/resume-tailor/internal/model"
	"github.com/spigell/resume-tailor/internal/structured"
	"go.uber.org/zap"
)

type verifyPayload struct {
	Issues   []model.VerificationIssue `json:"issues"`
	Warnings []string                  `json:"warnings"`
}

// Verifier fact-checks a tailored resume against its original.
type Verifier struct {
	base
	system   string
	template string
}

func NewVerifier(generator ai.Generator, logger *zap.Logger, opts Options) *Verifier {
	return &Verifier{
		base:     newBase("verification", generator, logger, opts),
		system:   mustPrompt("verify_system"),
		template: mustPrompt("verify_user"),
	}
}

// Verify asks the model for issues and derives the status locally: flagged
// iff at least one issue is critical. A status reported by the model is ignored.
func (v *Verifier) Verify(ctx context.Context, original *model.Resume, tailored *model.TailoredResume) (*model.VerificationReport, error) {
	if original == nil || tailored == nil {
		return nil, errors.New("original and tailored resumes are required")
	}

	prompt := fill(v.template, map[string]string{
		"ORIGINAL_TEXT": documentText(original.Document()),
		"TAILORED_TEXT": documentText(tailored.Document()),
	})

	data, err := v.ask(ctx, v.system, prompt, DefaultOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("verify resume: %w", err)
	}

	var payload verifyPayload
	if err := structured.Decode("verification report", data, &payload); err != nil {
		return nil, fmt.Errorf("verify resume: %w", err)
	}

	issues := make([]model.VerificationIssue, 0, len(payload.Issues))
	for _, issue := range payload.Issues {
		issue.Severity = model.NormalizeSeverity(issue.Severity)
		issue.Location = strings.TrimSpace(issue.Location)
		issue.Issue = strings.TrimSpace(issue.Issue)
		issues = append(issues, issue)
	}

	warnings := make([]string, 0, len(payload.Warnings))
	for _, w := range payload.Warnings {
		if w = strings.TrimSpace(w); w != "" {
			warnings = append(warnings, w)
		}
	}

	report := model.NewVerificationReport(issues, warnings)
	if err := structured.Validate("verification report", report); err != nil {
		return nil, fmt.Errorf("verify resume: %w", err)
	}

	v.logger.Debug("resume verified",
		zap.String("status", string(report.Status)),
		zap.Int("issues", len(report.Issues)),
		zap.Int("critical", report.Critical()),
	)

	return &report, nil
}
