package pipeline

import (
	"fmt"
	"math"

	"github.com/spigell/resume-tailor/internal/model"
)

const (
	keyImprovementLimit = 5
	scoreBonusPerChange = 2
	scoreBonusCap       = 15
)

// ImprovedScore estimates the post-tailoring score: two points per change,
// at most fifteen, never above 100.
func ImprovedScore(original float64, changes int) float64 {
	bonus := math.Min(float64(scoreBonusPerChange*changes), scoreBonusCap)
	return math.Min(original+bonus, 100)
}

// BuildChangeReport derives the user-facing summary. It makes no model calls.
func BuildChangeReport(matches *model.SkillMatchReport, tailored *model.TailoredResume, verification *model.VerificationReport) model.ChangeReport {
	if matches == nil {
		matches = &model.SkillMatchReport{}
	}
	if tailored == nil {
		tailored = &model.TailoredResume{}
	}
	if verification == nil {
		empty := model.NewVerificationReport(nil, nil)
		verification = &empty
	}

	bySection := make(map[string]int)
	for _, change := range tailored.Changes {
		bySection[change.Section]++
	}

	improvements := []string{}
	for i, match := range matches.Matched {
		if i == keyImprovementLimit {
			break
		}
		if match.Suggestion != "" {
			improvements = append(improvements, fmt.Sprintf("Highlighted %s: %s", match.Skill, match.Suggestion))
		}
	}

	warnings := append([]string{}, verification.Warnings...)
	for _, issue := range verification.Issues {
		if issue.Severity == model.SeverityWarning {
			warnings = append(warnings, fmt.Sprintf("%s: %s", issue.Location, issue.Issue))
		}
	}

	return model.ChangeReport{
		OriginalScore:    matches.Score,
		ImprovedScore:    ImprovedScore(matches.Score, len(tailored.Changes)),
		TotalChanges:     len(tailored.Changes),
		ChangesBySection: bySection,
		KeyImprovements:  improvements,
		Warnings:         warnings,
		Verification:     *verification,
	}
}
