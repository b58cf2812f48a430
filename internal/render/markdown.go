// Package render turns resumes and change reports into markdown and PDF.
package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spigell/resume-tailor/internal/model"
)

// ResumeMarkdown renders a resume as a markdown document.
func ResumeMarkdown(doc model.Document) string {
	var lines []string
	add := func(l ...string) { lines = append(lines, l...) }

	add("# "+doc.Contact.Name, "")

	if contact := contactLine(doc.Contact); contact != "" {
		add(contact, "")
	}

	if doc.Summary != "" {
		add("## Summary", "", doc.Summary, "")
	}

	if len(doc.Skills) > 0 {
		add("## Skills", "", strings.Join(doc.Skills, ", "), "")
	}

	if len(doc.Experiences) > 0 {
		add("## Experience", "")
		for _, exp := range doc.Experiences {
			add("### "+exp.Title, fmt.Sprintf("**%s** | %s", exp.Company, exp.DateRange()))
			if exp.Location != "" {
				add("*" + exp.Location + "*")
			}
			add("")
			for _, bullet := range exp.Bullets {
				add("- " + bullet)
			}
			add("")
		}
	}

	if len(doc.Education) > 0 {
		add("## Education", "")
		for _, edu := range doc.Education {
			add("### " + edu.Degree)
			line := "**" + edu.Institution + "**"
			if edu.GraduationDate != "" {
				line += " | " + edu.GraduationDate
			}
			add(line)
			if edu.Field != "" {
				add("*" + edu.Field + "*")
			}
			if edu.GPA != "" {
				add("GPA: " + edu.GPA)
			}
			if edu.Honors != "" {
				add("*" + edu.Honors + "*")
			}
			add("")
		}
	}

	if len(doc.Projects) > 0 {
		add("## Projects", "")
		for _, p := range doc.Projects {
			add("### "+p.Name, p.Description)
			if len(p.Technologies) > 0 {
				add("*Technologies: " + strings.Join(p.Technologies, ", ") + "*")
			}
			if p.URL != "" {
				add("[View Project](" + p.URL + ")")
			}
			add("")
		}
	}

	if len(doc.Certifications) > 0 {
		add("## Certifications", "")
		for _, cert := range doc.Certifications {
			add("- " + cert)
		}
		add("")
	}

	return strings.Join(lines, "\n")
}

func contactLine(c model.ContactInfo) string {
	var parts []string
	for _, v := range []string{c.Email, c.Phone, c.Location} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if c.LinkedIn != "" {
		parts = append(parts, "[LinkedIn]("+c.LinkedIn+")")
	}
	if c.Website != "" {
		parts = append(parts, "[Website]("+c.Website+")")
	}
	return strings.Join(parts, " | ")
}

// ChangeReportMarkdown renders the tailoring summary shown next to the resume.
func ChangeReportMarkdown(report model.ChangeReport) string {
	var lines []string
	add := func(l ...string) { lines = append(lines, l...) }

	add("# Resume Tailoring Report", "")

	add("## Match Score", "",
		fmt.Sprintf("- **Original Score:** %.0f%%", report.OriginalScore),
		fmt.Sprintf("- **Improved Score:** %.0f%%", report.ImprovedScore),
		fmt.Sprintf("- **Improvement:** +%.0f%%", report.ImprovedScore-report.OriginalScore),
		"",
	)

	add("## Changes Summary", "", fmt.Sprintf("**Total Changes Made:** %d", report.TotalChanges), "")

	if len(report.ChangesBySection) > 0 {
		add("### Changes by Section")
		sections := make([]string, 0, len(report.ChangesBySection))
		for section := range report.ChangesBySection {
			sections = append(sections, section)
		}
		slices.Sort(sections)
		for _, section := range sections {
			add(fmt.Sprintf("- %s: %d changes", section, report.ChangesBySection[section]))
		}
		add("")
	}

	if len(report.KeyImprovements) > 0 {
		add("## Key Improvements", "")
		for _, improvement := range report.KeyImprovements {
			add("- " + improvement)
		}
		add("")
	}

	verification := report.Verification
	icon := "⚠️"
	if verification.Status == model.StatusApproved {
		icon = "✅"
	}
	add("## Verification Status", "",
		fmt.Sprintf("**Status:** %s %s", icon, strings.ToUpper(string(verification.Status))),
		"",
	)

	if len(verification.Issues) > 0 {
		add("### Issues Found", "")
		for _, issue := range verification.Issues {
			marker := "🟡"
			if issue.Severity == model.SeverityCritical {
				marker = "🔴"
			}
			add(
				fmt.Sprintf("%s **%s**", marker, issue.Location),
				"   - Issue: "+issue.Issue,
				`   - Original: "`+issue.OriginalText+`"`,
				`   - Modified: "`+issue.ModifiedText+`"`,
				"",
			)
		}
	}

	if len(report.Warnings) > 0 {
		add("### Warnings", "")
		for _, warning := range report.Warnings {
			add("- ⚠️ " + warning)
		}
		add("")
	}

	return strings.Join(lines, "\n")
}
