package agents

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/resume-tailor/internal/ai"
	"github.com/spigell/resume-tailor/internal/model"
	"github.com/spigell/resume-tailor/internal/structured"
	"github.com/spigell/resume-tailor/internal/utils"
	"go.uber.org/zap"
)

var leadingNumber = regexp.MustCompile(`^\s*(\d+)`)

// JobExtractor turns a job posting into a model.Job.
type JobExtractor struct {
	base
	system   string
	template string
}

func NewJobExtractor(generator ai.Generator, logger *zap.Logger, opts Options) *JobExtractor {
	return &JobExtractor{
		base:     newBase("job_analysis", generator, logger, opts),
		system:   mustPrompt("job_system"),
		template: mustPrompt("job_user"),
	}
}

func (e *JobExtractor) Extract(ctx context.Context, text string) (*model.Job, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("job posting text is empty")
	}

	data, err := e.ask(ctx, e.system, fill(e.template, map[string]string{"JOB_TEXT": text}), DefaultOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("analyze job: %w", err)
	}
	data["raw_text"] = text

	if req := structured.Object(data, "requirements"); req != nil {
		normalizeYears(req)
	}

	var job model.Job
	if err := structured.Decode("job", data, &job); err != nil {
		return nil, fmt.Errorf("analyze job: %w", err)
	}
	job.RawText = text
	normalizeJob(&job)

	if err := structured.Validate("job", job); err != nil {
		return nil, fmt.Errorf("analyze job: %w", err)
	}

	e.logger.Debug("job analyzed",
		zap.String("title", job.Title),
		zap.String("company", job.Company),
		zap.Int("required_skills", len(job.Requirements.RequiredSkills)),
	)

	return &job, nil
}

// normalizeYears accepts "5", "5+", "5-7 years" or 5 and drops anything else.
func normalizeYears(req map[string]any) {
	value, ok := req["experience_years"]
	if !ok || value == nil {
		return
	}

	var years int
	switch v := value.(type) {
	case float64:
		years = int(v)
	case string:
		m := leadingNumber.FindStringSubmatch(v)
		if m == nil {
			delete(req, "experience_years")
			return
		}
		years, _ = strconv.Atoi(m[1])
	default:
		delete(req, "experience_years")
		return
	}

	if years < 0 {
		delete(req, "experience_years")
		return
	}
	req["experience_years"] = years
}

func normalizeJob(j *model.Job) {
	j.Title = utils.NonEmpty(j.Title, "Unknown Position")

	r := &j.Requirements
	r.RequiredSkills = nonNil(r.RequiredSkills)
	r.PreferredSkills = nonNil(r.PreferredSkills)
	r.EducationRequirements = nonNil(r.EducationRequirements)
	r.Certifications = nonNil(r.Certifications)
	r.SoftSkills = nonNil(r.SoftSkills)
	r.Keywords = nonNil(r.Keywords)
	j.Responsibilities = nonNil(j.Responsibilities)
	j.Benefits = nonNil(j.Benefits)
}
