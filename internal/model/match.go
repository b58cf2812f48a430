package model

import "math"

// MatchStrength grades how well the resume covers a job skill.
type MatchStrength string

const (
	StrengthStrong  MatchStrength = "strong"
	StrengthPartial MatchStrength = "partial"
	StrengthMissing MatchStrength = "missing"
)

type SkillMatch struct {
	Skill      string        `json:"skill" validate:"required"`
	Strength   MatchStrength `json:"match_strength" validate:"oneof=strong partial missing"`
	Evidence   []string      `json:"resume_evidence"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// SkillMatchReport is the outcome of comparing a resume with a job.
type SkillMatchReport struct {
	Matched      []SkillMatch `json:"matched_skills" validate:"dive"`
	Missing      []SkillMatch `json:"missing_skills" validate:"dive"`
	Transferable []SkillMatch `json:"transferable_skills" validate:"dive"`
	Score        float64      `json:"match_score" validate:"gte=0,lte=100"`
	Summary      string       `json:"summary"`
}

// ClampScore limits a score to [0, 100]. NaN becomes 0.
func ClampScore(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(0, math.Min(100, score))
}
