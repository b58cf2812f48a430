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

const (
	matchExperienceLimit = 5
	matchBulletLimit     = 3
)

type matchPayload struct {
	Matched      []model.SkillMatch `json:"matched_skills"`
	Missing      []model.SkillMatch `json:"missing_skills"`
	Transferable []model.SkillMatch `json:"transferable_skills"`
	Summary      string             `json:"summary"`
}

// Matcher grades how a resume covers a job's requirements.
type Matcher struct {
	base
	system   string
	template string
}

func NewMatcher(generator ai.Generator, logger *zap.Logger, opts Options) *Matcher {
	return &Matcher{
		base:     newBase("skill_matching", generator, logger, opts),
		system:   mustPrompt("match_system"),
		template: mustPrompt("match_user"),
	}
}

func (m *Matcher) Match(ctx context.Context, resume *model.Resume, job *model.Job) (*model.SkillMatchReport, error) {
	if resume == nil {
		return nil, errors.New("resume is required")
	}
	if job == nil {
		return nil, errors.New("job is required")
	}

	prompt := fill(m.template, map[string]string{
		"RESUME_SKILLS":     joinOrNone(resume.Skills),
		"RESUME_EXPERIENCE": experienceDigest(resume.Experiences),
		"REQUIRED_SKILLS":   joinOrNone(job.Requirements.RequiredSkills),
		"PREFERRED_SKILLS":  joinOrNone(job.Requirements.PreferredSkills),
		"KEYWORDS":          joinOrNone(job.Requirements.Keywords),
	})

	data, err := m.ask(ctx, m.system, prompt, DefaultOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("match skills: %w", err)
	}

	score := structured.CoerceFloat(data["match_score"])
	delete(data, "match_score")

	var payload matchPayload
	if err := structured.Decode("skill match report", data, &payload); err != nil {
		return nil, fmt.Errorf("match skills: %w", err)
	}

	report := &model.SkillMatchReport{
		Matched:      normalizeMatches(payload.Matched, matchedStrength),
		Missing:      normalizeMatches(payload.Missing, func(model.MatchStrength) model.MatchStrength { return model.StrengthMissing }),
		Transferable: normalizeMatches(payload.Transferable, func(model.MatchStrength) model.MatchStrength { return model.StrengthPartial }),
		Score:        model.ClampScore(score),
		Summary:      strings.TrimSpace(payload.Summary),
	}
	for i := range report.Missing {
		report.Missing[i].Evidence = []string{}
	}

	if err := structured.Validate("skill match report", report); err != nil {
		return nil, fmt.Errorf("match skills: %w", err)
	}

	m.logger.Debug("skills matched",
		zap.Int("matched", len(report.Matched)),
		zap.Int("missing", len(report.Missing)),
		zap.Int("transferable", len(report.Transferable)),
		zap.Float64("score", report.Score),
	)

	return report, nil
}

func matchedStrength(s model.MatchStrength) model.MatchStrength {
	if strings.EqualFold(strings.TrimSpace(string(s)), string(model.StrengthStrong)) {
		return model.StrengthStrong
	}
	return model.StrengthPartial
}

func normalizeMatches(in []model.SkillMatch, strength func(model.MatchStrength) model.MatchStrength) []model.SkillMatch {
	out := make([]model.SkillMatch, len(in))
	for i, match := range in {
		match.Skill = strings.TrimSpace(match.Skill)
		match.Strength = strength(match.Strength)
		match.Evidence = nonNil(match.Evidence)
		match.Suggestion = strings.TrimSpace(match.Suggestion)
		out[i] = match
	}
	return out
}

// experienceDigest lists the most recent positions with their leading bullets.
func experienceDigest(experiences []model.Experience) string {
	if len(experiences) == 0 {
		return "None"
	}

	var b strings.Builder
	for i, exp := range experiences {
		if i == matchExperienceLimit {
			break
		}
		fmt.Fprintf(&b, "- %s at %s (%s)\n", exp.Title, exp.Company, exp.DateRange())
		for j, bullet := range exp.Bullets {
			if j == matchBulletLimit {
				break
			}
			fmt.Fprintf(&b, "  * %s\n", bullet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
