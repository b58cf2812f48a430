package model

import "strings"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// NormalizeSeverity maps free-form severities onto the two known levels.
// Anything that is not "critical" is a warning.
func NormalizeSeverity(s Severity) Severity {
	if strings.EqualFold(strings.TrimSpace(string(s)), string(SeverityCritical)) {
		return SeverityCritical
	}
	return SeverityWarning
}

type VerificationStatus string

const (
	StatusApproved VerificationStatus = "approved"
	StatusFlagged  VerificationStatus = "flagged"
)

type VerificationIssue struct {
	Location     string   `json:"location"`
	Issue        string   `json:"issue"`
	OriginalText string   `json:"original_text,omitempty"`
	ModifiedText string   `json:"modified_text,omitempty"`
	Severity     Severity `json:"severity" validate:"oneof=critical warning"`
}

// VerificationReport is the fact-check outcome for a tailored resume.
type VerificationReport struct {
	Status   VerificationStatus  `json:"status"`
	Issues   []VerificationIssue `json:"issues" validate:"dive"`
	Warnings []string            `json:"warnings"`
}

// DeriveStatus is flagged iff at least one issue is critical.
func DeriveStatus(issues []VerificationIssue) VerificationStatus {
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			return StatusFlagged
		}
	}
	return StatusApproved
}

// NewVerificationReport builds a report whose status is derived from the issues.
func NewVerificationReport(issues []VerificationIssue, warnings []string) VerificationReport {
	if issues == nil {
		issues = []VerificationIssue{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	return VerificationReport{
		Status:   DeriveStatus(issues),
		Issues:   issues,
		Warnings: warnings,
	}
}

// Critical returns the number of critical issues.
func (r VerificationReport) Critical() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// ChangeReport summarises a tailoring run for the user.
type ChangeReport struct {
	OriginalScore    float64            `json:"original_match_score"`
	ImprovedScore    float64            `json:"improved_match_score"`
	TotalChanges     int                `json:"total_changes"`
	ChangesBySection map[string]int     `json:"changes_by_section"`
	KeyImprovements  []string           `json:"key_improvements"`
	Warnings         []string           `json:"warnings"`
	Verification     VerificationReport `json:"verification"`
}
