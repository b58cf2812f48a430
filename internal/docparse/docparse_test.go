package docparse

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const docxBody = "word/document.xml"

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Senior </w:t></w:r><w:r><w:t>Engineer</w:t></w:r></w:p>
    <w:p></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Skills</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t> Go, SQL </w:t></w:r></w:p></w:tc>
        <w:tc><w:p></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Languages</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>English</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:p><w:r><w:t>Acme Corp</w:t><w:tab/><w:t>2020</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDOCX(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDOCXParagraphsThenTables(t *testing.T) {
	data := buildDOCX(t, map[string]string{docxBody: documentXML})

	text, err := DOCX{}.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe\nSenior Engineer\nAcme Corp\t2020\nSkills | Go, SQL\nLanguages | English", text)
}

func TestDOCXErrors(t *testing.T) {
	_, err := DOCX{}.Parse([]byte("not a zip"))
	var docErr *Error
	require.ErrorAs(t, err, &docErr)
	assert.Equal(t, "DOCX", docErr.Format)

	_, err = DOCX{}.Parse(buildDOCX(t, map[string]string{"other.xml": "<x/>"}))
	assert.ErrorIs(t, err, ErrEmpty)

	empty := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p/></w:body></w:document>`
	_, err = DOCX{}.Parse(buildDOCX(t, map[string]string{docxBody: empty}))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestTextParser(t *testing.T) {
	text, err := Text{}.Parse([]byte("Jane Doe\nEngineer"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nEngineer", text)

	text, err = Text{}.Parse([]byte("Caf\xe9 owner"))
	require.NoError(t, err)
	assert.Equal(t, "Café owner", text)

	text, err = Text{}.Parse([]byte("\xef\xbb\xbfBOM resume"))
	require.NoError(t, err)
	assert.Equal(t, "BOM resume", text)

	_, err = Text{}.Parse([]byte(" \n\t "))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPDFRejectsGarbage(t *testing.T) {
	_, err := NewPDF(zap.NewNop()).Parse([]byte("%PDF-1.4 definitely not a pdf"))
	var docErr *Error
	require.ErrorAs(t, err, &docErr)
	assert.Equal(t, "PDF", docErr.Format)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	for _, name := range []string{"cv.pdf", "CV.PDF", "resume.docx", "resume.txt", "notes.md"} {
		assert.True(t, registry.Supports(name), name)
	}
	for _, name := range []string{"resume.doc", "resume", "image.png"} {
		assert.False(t, registry.Supports(name), name)
	}

	text, err := registry.Parse("resume.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = registry.Parse("resume.odt", []byte("hello"))
	assert.True(t, errors.Is(err, ErrUnsupported))
}

type upperParser struct{}

func (upperParser) Parse(data []byte) (string, error) { return string(bytes.ToUpper(data)), nil }
func (upperParser) Supports(string) bool { return true }

func TestRegistryCustomParsers(t *testing.T) {
	registry := NewRegistry(nil, upperParser{})
	text, err := registry.Parse("anything.bin", []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ABC", text)
}
