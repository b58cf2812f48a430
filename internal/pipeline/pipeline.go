// Package pipeline drives a resume through extraction, matching, tailoring,
// verification and reporting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/resume-tailor/internal/logger"
	"github.com/spigell/resume-tailor/internal/model"
	"go.uber.org/zap"
)

// Stage names used in logs and metrics.
const (
	StageResume = "resume_extraction"
	StageJob    = "job_analysis"
	StageMatch  = "skill_matching"
	StageTailor = "tailoring"
	StageVerify = "verification"
	StageReport = "report"
)

type ResumeExtractor interface {
	Extract(ctx context.Context, text string) (*model.Resume, error)
}

type JobExtractor interface {
	Extract(ctx context.Context, text string) (*model.Job, error)
}

type Matcher interface {
	Match(ctx context.Context, resume *model.Resume, job *model.Job) (*model.SkillMatchReport, error)
}

type Tailor interface {
	Tailor(ctx context.Context, resume *model.Resume, matches *model.SkillMatchReport, keywords []string) (*model.TailoredResume, error)
}

type Verifier interface {
	Verify(ctx context.Context, original *model.Resume, tailored *model.TailoredResume) (*model.VerificationReport, error)
}

// Stages are the collaborators a Coordinator runs in order.
type Stages struct {
	Resume   ResumeExtractor
	Job      JobExtractor
	Matcher  Matcher
	Tailor   Tailor
	Verifier Verifier
}

func (s Stages) validate() error {
	var missing []error
	if s.Resume == nil {
		missing = append(missing, errors.New("resume extractor"))
	}
	if s.Job == nil {
		missing = append(missing, errors.New("job extractor"))
	}
	if s.Matcher == nil {
		missing = append(missing, errors.New("matcher"))
	}
	if s.Tailor == nil {
		missing = append(missing, errors.New("tailor"))
	}
	if s.Verifier == nil {
		missing = append(missing, errors.New("verifier"))
	}
	if len(missing) > 0 {
		return fmt.Errorf("pipeline stages not configured: %w", errors.Join(missing...))
	}
	return nil
}

// ProgressFunc receives milestone notifications. It is called synchronously
// and must not block. A panicking sink is ignored.
type ProgressFunc func(message string, fraction float64)

// Observer receives timing and outcome information, e.g. for metrics.
type Observer interface {
	StageCompleted(stage string, elapsed time.Duration, err error)
	RunCompleted(success bool, status model.VerificationStatus)
}

type nopObserver struct{}

func (nopObserver) StageCompleted(string, time.Duration, error) {}
func (nopObserver) RunCompleted(bool, model.VerificationStatus) {}

// Output holds every stage result of a successful run.
type Output struct {
	OriginalResume *model.Resume             `json:"original_resume"`
	Job            *model.Job                `json:"job"`
	Matches        *model.SkillMatchReport   `json:"skill_matches"`
	Tailored       *model.TailoredResume     `json:"tailored_resume"`
	Verification   *model.VerificationReport `json:"verification"`
	Report         *model.ChangeReport       `json:"change_report"`
}

// Result is either a success with a complete Output or a failure with an
// error message, never both.
type Result struct {
	RunID   string  `json:"run_id"`
	Success bool    `json:"success"`
	Output  *Output `json:"output,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type Option func(*Coordinator)

// WithObserver attaches an observer to every run.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observer = o
		}
	}
}

// Coordinator runs the stages strictly in order. It holds no per-run state
// and may serve concurrent Process calls.
type Coordinator struct {
	stages   Stages
	logger   *zap.Logger
	observer Observer
	newID    func() string
}

func New(stages Stages, log *zap.Logger, opts ...Option) (*Coordinator, error) {
	if err := stages.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Coordinator{
		stages:   stages,
		logger:   log,
		observer: nopObserver{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type state struct {
	resumeText string
	jobText    string
	out        Output
}

type step struct {
	name     string
	message  string
	progress float64
	run      func(ctx context.Context, s *state) ([]zap.Field, error)
}

func (c *Coordinator) steps() []step {
	return []step{
		{
			name: StageResume, message: "Parsing your resume...", progress: 0.1,
			run: func(ctx context.Context, s *state) ([]zap.Field, error) {
				resume, err := c.stages.Resume.Extract(ctx, s.resumeText)
				if err != nil {
					return nil, err
				}
				s.out.OriginalResume = resume
				return []zap.Field{zap.String("name", resume.Contact.Name), zap.Int("experiences", len(resume.Experiences))}, nil
			},
		},
		{
			name: StageJob, message: "Analyzing job requirements...", progress: 0.25,
			run: func(ctx context.Context, s *state) ([]zap.Field, error) {
				job, err := c.stages.Job.Extract(ctx, s.jobText)
				if err != nil {
					return nil, err
				}
				s.out.Job = job
				return []zap.Field{zap.String("title", job.Title), zap.String("company", job.Company)}, nil
			},
		},
		{
			name: StageMatch, message: "Matching your skills to requirements...", progress: 0.4,
			run: func(ctx context.Context, s *state) ([]zap.Field, error) {
				matches, err := c.stages.Matcher.Match(ctx, s.out.OriginalResume, s.out.Job)
				if err != nil {
					return nil, err
				}
				s.out.Matches = matches
				return []zap.Field{zap.Float64("score", matches.Score), zap.Int("missing", len(matches.Missing))}, nil
			},
		},
		{
			name: StageTailor, message: "Tailoring your resume...", progress: 0.6,
			run: func(ctx context.Context, s *state) ([]zap.Field, error) {
				tailored, err := c.stages.Tailor.Tailor(ctx, s.out.OriginalResume, s.out.Matches, s.out.Job.Keywords())
				if err != nil {
					return nil, err
				}
				s.out.Tailored = tailored
				return []zap.Field{zap.Int("changes", len(tailored.Changes))}, nil
			},
		},
		{
			name: StageVerify, message: "Verifying accuracy...", progress: 0.8,
			run: func(ctx context.Context, s *state) ([]zap.Field, error) {
				verification, err := c.stages.Verifier.Verify(ctx, s.out.OriginalResume, s.out.Tailored)
				if err != nil {
					return nil, err
				}
				s.out.Verification = verification
				return []zap.Field{zap.String("status", string(verification.Status)), zap.Int("issues", len(verification.Issues))}, nil
			},
		},
		{
			name: StageReport, message: "Generating report...", progress: 0.9,
			run: func(_ context.Context, s *state) ([]zap.Field, error) {
				report := BuildChangeReport(s.out.Matches, s.out.Tailored, s.out.Verification)
				s.out.Report = &report
				return []zap.Field{zap.Float64("improved_score", report.ImprovedScore), zap.Int("total_changes", report.TotalChanges)}, nil
			},
		},
	}
}

// Process runs one pipeline over the raw resume and job texts. Errors never
// escape: any stage error, cancellation or panic becomes a failure Result.
func (c *Coordinator) Process(ctx context.Context, resumeText, jobText string, progress ProgressFunc) (result Result) {
	runID := c.newID()
	log := logger.WithRun(c.logger, runID)
	result = Result{RunID: runID}

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panicked", zap.Any("panic", r))
			result = Result{RunID: runID, Error: fmt.Sprintf("internal error: %v", r)}
		}
		status := model.VerificationStatus("")
		if result.Success {
			status = result.Output.Verification.Status
		}
		c.observer.RunCompleted(result.Success, status)
	}()

	s := &state{resumeText: resumeText, jobText: jobText}
	started := time.Now()

	for _, st := range c.steps() {
		if err := ctx.Err(); err != nil {
			log.Warn("pipeline cancelled", zap.String(logger.FieldStage, st.name), zap.Error(err))
			result.Error = fmt.Sprintf("cancelled before %s: %v", st.name, err)
			return result
		}

		notify(log, progress, st.message, st.progress)

		stepStarted := time.Now()
		fields, err := runStep(ctx, st, s)
		elapsed := time.Since(stepStarted)
		c.observer.StageCompleted(st.name, elapsed, err)

		if err != nil {
			log.Error("pipeline step failed",
				zap.String(logger.FieldStage, st.name),
				zap.Duration("duration", elapsed),
				zap.Error(err),
			)
			result.Error = fmt.Sprintf("%s failed: %v", st.name, err)
			return result
		}

		log.Info("pipeline step", append([]zap.Field{
			zap.String(logger.FieldStage, st.name),
			zap.Duration("duration", elapsed),
		}, fields...)...)
	}

	notify(log, progress, "Complete!", 1.0)

	log.Info("pipeline finished",
		zap.Duration("duration", time.Since(started)),
		zap.String("verification", string(s.out.Verification.Status)),
	)

	out := s.out
	return Result{RunID: runID, Success: true, Output: &out}
}

// runStep turns a stage panic into an error so the stage is still reported
// to the observer like any other failure.
func runStep(ctx context.Context, st step, s *state) (fields []zap.Field, err error) {
	defer func() {
		if r := recover(); r != nil {
			fields, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()
	return st.run(ctx, s)
}

func notify(log *zap.Logger, progress ProgressFunc, message string, fraction float64) {
	if progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("progress callback panicked", zap.Any("panic", r))
		}
	}()
	progress(message, fraction)
}
