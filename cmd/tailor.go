package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-tailor/internal/docparse"
	"github.com/spigell/resume-tailor/internal/jobfetch"
	"github.com/spigell/resume-tailor/internal/logger"
	"github.com/spigell/resume-tailor/internal/model"
	"github.com/spigell/resume-tailor/internal/pipeline"
	"github.com/spigell/resume-tailor/internal/render"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	resumeMarkdownFile = "tailored_resume.md"
	resumePDFFile      = "tailored_resume.pdf"
	reportMarkdownFile = "change_report.md"
	resultFile         = "result.json"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Tailor a resume to one or more job postings",
	Run: func(cmd *cobra.Command, _ []string) {
		tailor(cmd)
	},
}

func init() {
	rootCmd.AddCommand(tailorCmd)

	tailorCmd.Flags().StringP("resume", "r", "", "resume file (.pdf, .docx, .txt, .md)")
	tailorCmd.Flags().StringArray("job", nil, "job posting file or URL, may be repeated")
	tailorCmd.Flags().String("job-text", "", "job posting text")
	tailorCmd.Flags().StringP("output-dir", "o", "", "directory for exported files (default ./out)")
	tailorCmd.Flags().Bool("pdf", false, "also render the tailored resume as PDF")
	tailorCmd.Flags().Bool("browser", false, "render JavaScript job boards with headless Chrome")
	tailorCmd.Flags().BoolP("auto-approve", "y", false, "export without asking even when verification is flagged")

	viper.BindPFlag("output-dir", tailorCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("fetch.browser", tailorCmd.Flags().Lookup("browser"))
}

type jobInput struct {
	source string
	text   string
}

type jobRun struct {
	input  jobInput
	dir    string
	result pipeline.Result
}

func tailor(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		lg.Fatal("getting a config", zap.Error(err))
	}

	lg.Info("starting the resume-tailor", zap.String("version", version))

	resumePath, _ := cmd.Flags().GetString("resume")
	jobSources, _ := cmd.Flags().GetStringArray("job")
	jobText, _ := cmd.Flags().GetString("job-text")
	wantPDF, _ := cmd.Flags().GetBool("pdf")
	autoApprove, _ := cmd.Flags().GetBool("auto-approve")

	if resumePath == "" {
		lg.Fatal("resume file is required", zap.String("hint", "pass --resume <file>"))
	}
	if len(jobSources) == 0 && strings.TrimSpace(jobText) == "" {
		lg.Fatal("job posting is required", zap.String("hint", "pass --job <file|url> or --job-text"))
	}

	resumeText, err := readResume(resumePath, config.Limits, docparse.NewRegistry(lg))
	if err != nil {
		lg.Fatal("reading resume", zap.Error(err), zap.String(logger.FieldSource, resumePath))
	}
	lg.Info("resume parsed", zap.String(logger.FieldSource, resumePath), zap.Int("length", len(resumeText)))

	fetcher := jobfetch.New(jobfetch.Options{
		Timeout:   config.Fetch.Timeout,
		UserAgent: config.Fetch.UserAgent,
		Browser:   config.Fetch.Browser,
	}, lg)

	jobs, err := resolveJobs(ctx, jobSources, jobText, config.Limits, fetcher)
	if err != nil {
		lg.Fatal("reading job postings", zap.Error(err))
	}

	coordinator, err := newCoordinator(ctx, config, lg)
	if err != nil {
		lg.Fatal("preparing the pipeline", zap.Error(err))
	}

	runs := make([]*jobRun, len(jobs))
	for i, job := range jobs {
		dir := config.OutputDir
		if len(jobs) > 1 {
			dir = filepath.Join(dir, fmt.Sprintf("job-%d", i+1))
		}
		runs[i] = &jobRun{input: job, dir: dir}
	}

	var g errgroup.Group
	for _, run := range runs {
		label := run.input.source
		g.Go(func() error {
			run.result = coordinator.Process(ctx, resumeText, run.input.text, func(message string, fraction float64) {
				fmt.Fprintf(os.Stderr, "[%s] %3.0f%% %s\n", label, fraction*100, message)
			})
			return nil
		})
	}
	_ = g.Wait()

	pdf := render.NewPDFRenderer(config.Render.PandocPath, config.Render.PDFEngine, lg)
	if wantPDF && !pdf.Available() {
		lg.Warn("pdf export skipped", zap.Error(render.ErrPDFUnavailable))
		wantPDF = false
	}

	failed := 0
	for _, run := range runs {
		runLog := lg.With(zap.String(logger.FieldSource, run.input.source), zap.String(logger.FieldRunID, run.result.RunID))

		if !run.result.Success {
			failed++
			runLog.Error("tailoring failed", zap.String("error", run.result.Error))
			continue
		}

		summarize(runLog, run.result.Output)

		if run.result.Output.Verification.Status == model.StatusFlagged && !autoApprove {
			ok, err := confirmFlagged(run.input.source, run.result.Output.Verification)
			if err != nil {
				lg.Fatal("exiting", zap.Error(err))
			}
			if !ok {
				runLog.Info("export skipped", zap.String("reason", "got no from prompt"))
				continue
			}
		}

		if err := export(ctx, run.dir, run.result, pdf, wantPDF); err != nil {
			failed++
			runLog.Error("export failed", zap.Error(err))
			continue
		}
		runLog.Info("exported", zap.String("dir", run.dir))
	}

	if failed > 0 {
		lg.Fatal("some job postings were not processed", zap.Int("failed", failed), zap.Int("total", len(runs)))
	}
}

func readResume(path string, limits *LimitsConfig, parser *docparse.Registry) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if limit := limits.MaxResumeBytes(); limit > 0 && info.Size() > limit {
		return "", fmt.Errorf("resume file is %d bytes, the limit is %d MB", info.Size(), limits.MaxResumeSizeMB)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return parser.Parse(filepath.Base(path), data)
}

func resolveJobs(ctx context.Context, sources []string, text string, limits *LimitsConfig, fetcher *jobfetch.Fetcher) ([]jobInput, error) {
	var jobs []jobInput
	if strings.TrimSpace(text) != "" {
		jobs = append(jobs, jobInput{source: "job-text", text: text})
	}

	for _, source := range sources {
		var body string
		if jobfetch.IsURL(source) {
			fetched, err := fetcher.Fetch(ctx, source)
			if err != nil {
				return nil, err
			}
			body = fetched
		} else {
			data, err := os.ReadFile(source)
			if err != nil {
				return nil, fmt.Errorf("reading job file: %w", err)
			}
			body = string(data)
		}
		jobs = append(jobs, jobInput{source: source, text: body})
	}

	for _, job := range jobs {
		if strings.TrimSpace(job.text) == "" {
			return nil, fmt.Errorf("job posting %s is empty", job.source)
		}
		if limits.MaxJobAdLength > 0 && utf8.RuneCountInString(job.text) > limits.MaxJobAdLength {
			return nil, fmt.Errorf("job posting %s is longer than %d characters", job.source, limits.MaxJobAdLength)
		}
	}
	return jobs, nil
}

func summarize(log *zap.Logger, out *pipeline.Output) {
	report := out.Report
	log.Info("tailoring finished",
		zap.String("job_title", out.Job.Title),
		zap.String("company", out.Job.Company),
		zap.Float64("original_score", report.OriginalScore),
		zap.Float64("improved_score", report.ImprovedScore),
		zap.Int("total_changes", report.TotalChanges),
		zap.String("verification", string(report.Verification.Status)),
		zap.Int("critical_issues", report.Verification.Critical()),
	)
	for _, warning := range report.Warnings {
		log.Warn("verification warning", zap.String("warning", warning))
	}
}

func confirmFlagged(source string, verification *model.VerificationReport) (bool, error) {
	prompt := promptui.Select{
		Label: fmt.Sprintf("%s: verification flagged %d critical issue(s). Export anyway?", source, verification.Critical()),
		Items: []string{PromptNo, PromptYes},
	}

	_, answer, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, errors.New("interrupted")
		}
		return false, err
	}
	return answer == PromptYes, nil
}

func export(ctx context.Context, dir string, result pipeline.Result, pdf *render.PDFRenderer, wantPDF bool) error {
	out := result.Output
	resumeMarkdown := render.ResumeMarkdown(out.Tailored.Document())

	if err := render.WriteFile(filepath.Join(dir, resumeMarkdownFile), resumeMarkdown); err != nil {
		return err
	}
	if err := render.WriteFile(filepath.Join(dir, reportMarkdownFile), render.ChangeReportMarkdown(*out.Report)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := render.WriteFile(filepath.Join(dir, resultFile), string(data)); err != nil {
		return err
	}

	if wantPDF {
		if err := pdf.Render(ctx, resumeMarkdown, filepath.Join(dir, resumePDFFile)); err != nil {
			return err
		}
	}
	return nil
}
