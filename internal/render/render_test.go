package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spigell/resume-tailor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleDocument() model.Document {
	return model.Document{
		Contact: model.ContactInfo{
			Name:     "Jane Doe",
			Email:    "jane@example.com",
			Location: "Berlin",
			LinkedIn: "https://linkedin.com/in/jane",
		},
		Summary: "Backend engineer.",
		Skills:  []string{"Go", "Kubernetes"},
		Experiences: []model.Experience{
			{Company: "Acme Corp", Title: "Engineer", StartDate: "2020-01", Location: "Remote", Bullets: []string{"Built X", "Led Y"}},
		},
		Education: []model.Education{
			{Institution: "TU Berlin", Degree: "MSc", Field: "Computer Science", GraduationDate: "2019"},
		},
		Projects: []model.Project{
			{Name: "tailor", Description: "CLI tool", Technologies: []string{"Go"}, URL: "https://example.com/tailor"},
		},
		Certifications: []string{"CKA"},
	}
}

func TestResumeMarkdown(t *testing.T) {
	md := ResumeMarkdown(sampleDocument())

	for _, want := range []string{
		"# Jane Doe\n",
		"jane@example.com | Berlin | [LinkedIn](https://linkedin.com/in/jane)",
		"## Summary\n\nBackend engineer.",
		"## Skills\n\nGo, Kubernetes",
		"### Engineer\n**Acme Corp** | 2020-01 - Present\n*Remote*\n\n- Built X\n- Led Y",
		"### MSc\n**TU Berlin** | 2019\n*Computer Science*",
		"*Technologies: Go*\n[View Project](https://example.com/tailor)",
		"## Certifications\n\n- CKA",
	} {
		assert.Contains(t, md, want)
	}
}

func TestResumeMarkdownOmitsEmptySections(t *testing.T) {
	md := ResumeMarkdown(model.Document{Contact: model.ContactInfo{Name: "Solo"}})
	assert.Equal(t, "# Solo\n", md)
}

func TestChangeReportMarkdown(t *testing.T) {
	verification := model.NewVerificationReport([]model.VerificationIssue{
		{Location: "experience[0]", Issue: "new metric", OriginalText: "Built X", ModifiedText: "Built X for 1M users", Severity: model.SeverityCritical},
	}, nil)
	report := model.ChangeReport{
		OriginalScore:    50,
		ImprovedScore:    54,
		TotalChanges:     2,
		ChangesBySection: map[string]int{"summary": 1, "experience": 1},
		KeyImprovements:  []string{"Highlighted Go: mention Go"},
		Warnings:         []string{"summary: vague"},
		Verification:     verification,
	}

	md := ChangeReportMarkdown(report)

	for _, want := range []string{
		"- **Original Score:** 50%",
		"- **Improved Score:** 54%",
		"- **Improvement:** +4%",
		"**Total Changes Made:** 2",
		"### Changes by Section\n- experience: 1 changes\n- summary: 1 changes",
		"- Highlighted Go: mention Go",
		"**Status:** ⚠️ FLAGGED",
		"🔴 **experience[0]**\n   - Issue: new metric\n   - Original: \"Built X\"\n   - Modified: \"Built X for 1M users\"",
		"- ⚠️ summary: vague",
	} {
		assert.Contains(t, md, want)
	}
}

func TestChangeReportMarkdownApproved(t *testing.T) {
	md := ChangeReportMarkdown(model.ChangeReport{Verification: model.NewVerificationReport(nil, nil)})
	assert.Contains(t, md, "**Status:** ✅ APPROVED")
	assert.NotContains(t, md, "Issues Found")
	assert.NotContains(t, md, "Warnings")
}

func TestRenderWithoutPandoc(t *testing.T) {
	r := NewPDFRenderer(filepath.Join(t.TempDir(), "missing-pandoc"), "", zap.NewNop())
	assert.False(t, r.Available())

	err := r.Render(context.Background(), "# x", filepath.Join(t.TempDir(), "out.pdf"))
	assert.True(t, errors.Is(err, ErrPDFUnavailable))
}

func fakePandoc(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub requires a unix shell")
	}
	path := filepath.Join(t.TempDir(), "pandoc")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o700))
	return path
}

func TestRenderInvokesPandoc(t *testing.T) {
	// Copies stdin to the -o argument so the test can inspect what was sent.
	pandoc := fakePandoc(t, `while [ "$1" != "-o" ]; do shift; done; cat > "$2"`)
	out := filepath.Join(t.TempDir(), "nested", "resume.pdf")

	r := NewPDFRenderer(pandoc, "", zap.NewNop())
	require.True(t, r.Available())
	require.NoError(t, r.Render(context.Background(), "# Jane", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "# Jane", string(data))
}

func TestRenderReportsPandocFailure(t *testing.T) {
	pandoc := fakePandoc(t, `echo "xelatex not found" >&2; exit 43`)

	err := NewPDFRenderer(pandoc, "xelatex", nil).Render(context.Background(), "# Jane", filepath.Join(t.TempDir(), "r.pdf"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPDFUnavailable))
	assert.True(t, strings.Contains(err.Error(), "xelatex not found"))
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "report.md")
	require.NoError(t, WriteFile(path, "content"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}
