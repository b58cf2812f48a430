package render

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrPDFUnavailable is returned when pandoc cannot be found.
var ErrPDFUnavailable = errors.New("PDF generation requires pandoc in PATH (install pandoc and a PDF engine)")

const DefaultPandoc = "pandoc"

// PDFRenderer converts markdown to PDF by shelling out to pandoc.
type PDFRenderer struct {
	pandoc string
	engine string
	logger *zap.Logger
}

// NewPDFRenderer builds a renderer. An empty engine leaves the choice to pandoc.
func NewPDFRenderer(pandocPath, engine string, logger *zap.Logger) *PDFRenderer {
	if pandocPath == "" {
		pandocPath = DefaultPandoc
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFRenderer{pandoc: pandocPath, engine: engine, logger: logger}
}

// Available reports whether PDF output can be produced.
func (r *PDFRenderer) Available() bool {
	_, err := exec.LookPath(r.pandoc)
	return err == nil
}

// Render writes markdown as a PDF to outputPath.
func (r *PDFRenderer) Render(ctx context.Context, markdown, outputPath string) error {
	if !r.Available() {
		return ErrPDFUnavailable
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o750); err != nil {
		return errors.Wrapf(err, "failed to create output directory: %s", filepath.Dir(outputPath))
	}

	args := []string{"-f", "markdown", "-o", outputPath}
	if r.engine != "" {
		args = append(args, "--pdf-engine="+r.engine)
	}

	cmd := exec.CommandContext(ctx, r.pandoc, args...)
	cmd.Stdin = strings.NewReader(markdown)

	r.logger.Debug("rendering pdf", zap.String("output", outputPath), zap.String("engine", r.engine))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "pandoc failed: %s", string(output))
	}

	r.logger.Info("pdf rendered", zap.String("output", outputPath))
	return nil
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrapf(err, "failed to create output directory: %s", dir)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return errors.Wrapf(err, "failed to write file: %s", path)
	}
	return nil
}
