package agents

import (
	"fmt"
	"strings"

	"github.com/spigell/resume-tailor/internal/model"
)

// documentText renders the fact-bearing parts of a resume as plain text for
// prompts. Original and tailored resumes use the same layout so the verifier
// compares like with like.
func documentText(doc model.Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", doc.Contact.Name)
	if doc.Summary != "" {
		fmt.Fprintf(&b, "\nSummary: %s\n", doc.Summary)
	}
	fmt.Fprintf(&b, "\nSkills: %s\n", joinOrNone(doc.Skills))

	for i, exp := range doc.Experiences {
		fmt.Fprintf(&b, "\nExperience %d:\n", i+1)
		fmt.Fprintf(&b, "  Company: %s\n", exp.Company)
		fmt.Fprintf(&b, "  Title: %s\n", exp.Title)
		fmt.Fprintf(&b, "  Dates: %s\n", exp.DateRange())
		for _, bullet := range exp.Bullets {
			fmt.Fprintf(&b, "  - %s\n", bullet)
		}
	}

	for i, edu := range doc.Education {
		fmt.Fprintf(&b, "\nEducation %d:\n", i+1)
		fmt.Fprintf(&b, "  %s from %s\n", edu.Degree, edu.Institution)
		if edu.GraduationDate != "" {
			fmt.Fprintf(&b, "  Graduated: %s\n", edu.GraduationDate)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
