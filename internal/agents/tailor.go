package agents

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spigell/resume-tailor/internal/ai"
	"github.com/spigell/resume-tailor/internal/model"
	"github.com/spigell/resume-tailor/internal/structured"
	"go.uber.org/zap"
)

type tailoredExperience struct {
	Bullets []string `json:"bullets"`
}

type tailorPayload struct {
	Summary     string               `json:"summary"`
	Experiences []tailoredExperience `json:"experiences"`
	Skills      []string             `json:"skills"`
	Changes     []model.Change       `json:"changes"`
}

// Tailor rewrites a resume towards a job while keeping every fact in place.
type Tailor struct {
	base
	system   string
	template string
}

func NewTailor(generator ai.Generator, logger *zap.Logger, opts Options) *Tailor {
	return &Tailor{
		base:     newBase("tailoring", generator, logger, opts),
		system:   mustPrompt("tailor_system"),
		template: mustPrompt("tailor_user"),
	}
}

// Tailor produces a tailored copy of resume. Identity fields of every
// experience (company, title, dates, location, original text) are copied
// from the original by position, so the result has exactly as many
// experiences as the original. Only bullets come from the model. Education,
// projects, certifications and languages are copied unchanged.
func (t *Tailor) Tailor(ctx context.Context, resume *model.Resume, matches *model.SkillMatchReport, keywords []string) (*model.TailoredResume, error) {
	if resume == nil {
		return nil, errors.New("resume is required")
	}
	if matches == nil {
		matches = &model.SkillMatchReport{}
	}

	prompt := fill(t.template, map[string]string{
		"RESUME_TEXT":    documentText(resume.Document()),
		"MATCHED_SKILLS": joinOrNone(skillNames(matches.Matched)),
		"KEYWORDS":       joinOrNone(keywords),
		"SUGGESTIONS":    suggestions(matches),
	})

	data, err := t.ask(ctx, t.system, prompt, LargeOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("tailor resume: %w", err)
	}

	var payload tailorPayload
	if err := structured.Decode("tailored resume", data, &payload); err != nil {
		return nil, fmt.Errorf("tailor resume: %w", err)
	}

	if len(payload.Experiences) != len(resume.Experiences) {
		t.logger.Warn("model returned a different number of experiences",
			zap.Int("original", len(resume.Experiences)),
			zap.Int("returned", len(payload.Experiences)),
		)
	}

	tailored := &model.TailoredResume{
		Contact:        resume.Contact,
		Summary:        resume.Summary,
		Experiences:    mergeExperiences(resume.Experiences, payload.Experiences),
		Education:      model.CloneEducation(resume.Education),
		Skills:         slices.Clone(resume.Skills),
		Projects:       model.CloneProjects(resume.Projects),
		Certifications: slices.Clone(resume.Certifications),
		Languages:      slices.Clone(resume.Languages),
		Changes:        normalizeChanges(payload.Changes),
	}

	if summary := strings.TrimSpace(payload.Summary); summary != "" {
		tailored.Summary = summary
	}
	if skills, ok := data["skills"]; ok && skills != nil {
		tailored.Skills = nonNil(payload.Skills)
	}

	t.logger.Debug("resume tailored",
		zap.Int("experiences", len(tailored.Experiences)),
		zap.Int("changes", len(tailored.Changes)),
	)

	return tailored, nil
}

// mergeExperiences aligns returned entries with originals by index. Extra
// returned entries are ignored. Entries the model omitted, or returned without
// bullets, keep their original bullets.
func mergeExperiences(original []model.Experience, returned []tailoredExperience) []model.Experience {
	out := make([]model.Experience, len(original))
	for i, exp := range original {
		merged := model.CloneExperience(exp)
		if i < len(returned) && len(returned[i].Bullets) > 0 {
			merged.Bullets = slices.Clone(returned[i].Bullets)
		}
		out[i] = merged
	}
	return out
}

func normalizeChanges(in []model.Change) []model.Change {
	out := make([]model.Change, 0, len(in))
	for _, change := range in {
		change.Section = strings.ToLower(strings.TrimSpace(change.Section))
		if change.Section == "" {
			change.Section = "other"
		}
		out = append(out, change)
	}
	return out
}

func skillNames(matches []model.SkillMatch) []string {
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Skill)
	}
	return names
}

func suggestions(report *model.SkillMatchReport) string {
	var lines []string
	for _, group := range [][]model.SkillMatch{report.Matched, report.Transferable} {
		for _, m := range group {
			if m.Suggestion != "" {
				lines = append(lines, fmt.Sprintf("- %s: %s", m.Skill, m.Suggestion))
			}
		}
	}
	if len(lines) == 0 {
		return "None"
	}
	return strings.Join(lines, "\n")
}
