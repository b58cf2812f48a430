package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/resume-tailor/internal/ai"
	"github.com/spigell/resume-tailor/internal/model"
	"github.com/spigell/resume-tailor/internal/structured"
	"github.com/spigell/resume-tailor/internal/utils"
	"go.uber.org/zap"
)

const unknown = "Unknown"

// ResumeExtractor turns plain resume text into a model.Resume.
type ResumeExtractor struct {
	base
	system   string
	template string
}

func NewResumeExtractor(generator ai.Generator, logger *zap.Logger, opts Options) *ResumeExtractor {
	return &ResumeExtractor{
		base:     newBase("resume_extraction", generator, logger, opts),
		system:   mustPrompt("resume_system"),
		template: mustPrompt("resume_user"),
	}
}

// Extract parses text into a structured resume. The input text is always kept
// verbatim in RawText regardless of what the model returns.
//
// The prompt asks the model to summarize bullets over 200 characters and to
// keep at most 5 experiences. Both are best-effort prompt rules; the result is
// not filtered or truncated afterwards.
func (e *ResumeExtractor) Extract(ctx context.Context, text string) (*model.Resume, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("resume text is empty")
	}

	data, err := e.ask(ctx, e.system, fill(e.template, map[string]string{"RESUME_TEXT": text}), LargeOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("extract resume: %w", err)
	}
	data["raw_text"] = text

	var resume model.Resume
	if err := structured.Decode("resume", data, &resume); err != nil {
		return nil, fmt.Errorf("extract resume: %w", err)
	}
	resume.RawText = text
	normalizeResume(&resume)

	if err := structured.Validate("resume", resume); err != nil {
		return nil, fmt.Errorf("extract resume: %w", err)
	}

	e.logger.Debug("resume extracted",
		zap.String("name", resume.Contact.Name),
		zap.Int("experiences", len(resume.Experiences)),
		zap.Int("skills", len(resume.Skills)),
	)

	return &resume, nil
}

func normalizeResume(r *model.Resume) {
	r.Contact.Name = utils.NonEmpty(r.Contact.Name, unknown)

	for i := range r.Experiences {
		exp := &r.Experiences[i]
		exp.Company = utils.NonEmpty(exp.Company, unknown)
		exp.Title = utils.NonEmpty(exp.Title, unknown)
		exp.Bullets = nonNil(exp.Bullets)
	}
	for i := range r.Education {
		r.Education[i].Institution = utils.NonEmpty(r.Education[i].Institution, unknown)
	}
	for i := range r.Projects {
		r.Projects[i].Name = utils.NonEmpty(r.Projects[i].Name, "Untitled project")
		r.Projects[i].Technologies = nonNil(r.Projects[i].Technologies)
	}

	if r.Experiences == nil {
		r.Experiences = []model.Experience{}
	}
	if r.Education == nil {
		r.Education = []model.Education{}
	}
	if r.Projects == nil {
		r.Projects = []model.Project{}
	}
	r.Skills = nonNil(r.Skills)
	r.Certifications = nonNil(r.Certifications)
	r.Languages = nonNil(r.Languages)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
