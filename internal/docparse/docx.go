package docparse

import (
	"bytes"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCX extracts body paragraphs followed by table rows. Cells of a row are
// joined with " | ". An archive without word/document.xml parses to an empty
// body and is reported as ErrEmpty.
type DOCX struct{}

func (DOCX) Supports(filename string) bool {
	return hasExt(filename, ".docx")
}

func (DOCX) Parse(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &Error{Format: "DOCX", Cause: err}
	}

	var paragraphs, rows []string
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			if text := v.String(); strings.TrimSpace(text) != "" {
				paragraphs = append(paragraphs, text)
			}
		case *docx.Table:
			rows = append(rows, tableRows(v)...)
		}
	}

	parts := append(paragraphs, rows...)
	if len(parts) == 0 {
		return "", &Error{Format: "DOCX", Cause: ErrEmpty}
	}
	return strings.Join(parts, "\n"), nil
}

// tableRows flattens a top-level table. Nested tables are skipped.
func tableRows(table *docx.Table) []string {
	var rows []string
	for _, row := range table.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			lines := make([]string, 0, len(cell.Paragraphs))
			for _, p := range cell.Paragraphs {
				lines = append(lines, p.String())
			}
			if text := strings.TrimSpace(strings.Join(lines, "\n")); text != "" {
				cells = append(cells, text)
			}
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	}
	return rows
}
