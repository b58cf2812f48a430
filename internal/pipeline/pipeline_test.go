package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spigell/resume-tailor/internal/agents"
	"github.com/spigell/resume-tailor/internal/ai"
	"github.com/spigell/resume-tailor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeResume struct {
	calls  int
	resume *model.Resume
	err    error
	panic  bool
}

func (f *fakeResume) Extract(context.Context, string) (*model.Resume, error) {
	f.calls++
	if f.panic {
		panic("boom")
	}
	return f.resume, f.err
}

type fakeJob struct {
	calls int
	job   *model.Job
	err   error
}

func (f *fakeJob) Extract(context.Context, string) (*model.Job, error) {
	f.calls++
	return f.job, f.err
}

type fakeMatcher struct {
	calls  int
	report *model.SkillMatchReport
}

func (f *fakeMatcher) Match(context.Context, *model.Resume, *model.Job) (*model.SkillMatchReport, error) {
	f.calls++
	return f.report, nil
}

type fakeTailor struct {
	calls    int
	keywords []string
	tailored *model.TailoredResume
}

func (f *fakeTailor) Tailor(_ context.Context, _ *model.Resume, _ *model.SkillMatchReport, keywords []string) (*model.TailoredResume, error) {
	f.calls++
	f.keywords = keywords
	return f.tailored, nil
}

type fakeVerifier struct {
	calls  int
	report *model.VerificationReport
}

func (f *fakeVerifier) Verify(context.Context, *model.Resume, *model.TailoredResume) (*model.VerificationReport, error) {
	f.calls++
	return f.report, nil
}

type fakes struct {
	resume   *fakeResume
	job      *fakeJob
	matcher  *fakeMatcher
	tailor   *fakeTailor
	verifier *fakeVerifier
}

func newFakes() *fakes {
	verification := model.NewVerificationReport(nil, nil)
	return &fakes{
		resume: &fakeResume{resume: &model.Resume{Contact: model.ContactInfo{Name: "Jane"}}},
		job: &fakeJob{job: &model.Job{Title: "Engineer", Requirements: model.JobRequirements{
			RequiredSkills: []string{"Go"},
			Keywords:       []string{"cloud"},
		}}},
		matcher:  &fakeMatcher{report: &model.SkillMatchReport{Score: 50}},
		tailor:   &fakeTailor{tailored: &model.TailoredResume{Changes: []model.Change{{Section: "summary"}}}},
		verifier: &fakeVerifier{report: &verification},
	}
}

func (f *fakes) stages() Stages {
	return Stages{Resume: f.resume, Job: f.job, Matcher: f.matcher, Tailor: f.tailor, Verifier: f.verifier}
}

type recordingObserver struct {
	mu      sync.Mutex
	stages  []string
	errs    []error
	success []bool
}

func (r *recordingObserver) StageCompleted(stage string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
	r.errs = append(r.errs, err)
}

func (r *recordingObserver) RunCompleted(success bool, _ model.VerificationStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success = append(r.success, success)
}

func TestNewRequiresAllStages(t *testing.T) {
	_, err := New(Stages{}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verifier")
}

func TestProcessSuccess(t *testing.T) {
	f := newFakes()
	obs := &recordingObserver{}
	c, err := New(f.stages(), zap.NewNop(), WithObserver(obs))
	require.NoError(t, err)

	var milestones []float64
	var messages []string
	result := c.Process(context.Background(), "resume", "job", func(msg string, fraction float64) {
		messages = append(messages, msg)
		milestones = append(milestones, fraction)
	})

	require.True(t, result.Success, result.Error)
	require.NotNil(t, result.Output)
	assert.Empty(t, result.Error)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []float64{0.1, 0.25, 0.4, 0.6, 0.8, 0.9, 1.0}, milestones)
	assert.Equal(t, "Complete!", messages[len(messages)-1])
	assert.Equal(t, []string{"Go", "cloud"}, f.tailor.keywords)
	assert.Equal(t, float64(52), result.Output.Report.ImprovedScore)
	assert.Equal(t, []string{StageResume, StageJob, StageMatch, StageTailor, StageVerify, StageReport}, obs.stages)
	assert.Equal(t, []bool{true}, obs.success)
}

func TestProcessFailsFast(t *testing.T) {
	f := newFakes()
	f.resume.err = errors.New("model unavailable")
	c, err := New(f.stages(), zap.NewNop())
	require.NoError(t, err)

	result := c.Process(context.Background(), "resume", "job", nil)

	assert.False(t, result.Success)
	assert.Nil(t, result.Output)
	assert.Contains(t, result.Error, "model unavailable")
	assert.Equal(t, 1, f.resume.calls)
	assert.Equal(t, 0, f.job.calls)
	assert.Equal(t, 0, f.matcher.calls)
	assert.Equal(t, 0, f.tailor.calls)
	assert.Equal(t, 0, f.verifier.calls)
}

func TestProcessRecoversStagePanic(t *testing.T) {
	f := newFakes()
	f.resume.panic = true
	obs := &recordingObserver{}
	c, err := New(f.stages(), zap.NewNop(), WithObserver(obs))
	require.NoError(t, err)

	result := c.Process(context.Background(), "resume", "job", nil)

	assert.False(t, result.Success)
	assert.Nil(t, result.Output)
	assert.Contains(t, result.Error, "boom")
	assert.Equal(t, []bool{false}, obs.success)
	assert.Equal(t, []string{StageResume}, obs.stages)
	require.Len(t, obs.errs, 1)
	require.Error(t, obs.errs[0])
	assert.Contains(t, obs.errs[0].Error(), "boom")
}

func TestProcessIgnoresPanickingProgress(t *testing.T) {
	c, err := New(newFakes().stages(), zap.NewNop())
	require.NoError(t, err)

	result := c.Process(context.Background(), "resume", "job", func(string, float64) {
		panic("sink broke")
	})
	assert.True(t, result.Success, result.Error)
}

func TestProcessStopsOnCancelledContext(t *testing.T) {
	f := newFakes()
	c, err := New(f.stages(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := c.Process(ctx, "resume", "job", nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "cancelled")
	assert.Equal(t, 0, f.resume.calls)
}

func TestProcessFlaggedIsSuccess(t *testing.T) {
	f := newFakes()
	flagged := model.NewVerificationReport([]model.VerificationIssue{{Location: "x", Issue: "y", Severity: model.SeverityCritical}}, nil)
	f.verifier.report = &flagged
	c, err := New(f.stages(), zap.NewNop())
	require.NoError(t, err)

	result := c.Process(context.Background(), "resume", "job", nil)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, model.StatusFlagged, result.Output.Verification.Status)
}

func TestProcessLogsEveryStep(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	c, err := New(newFakes().stages(), zap.New(core))
	require.NoError(t, err)

	result := c.Process(context.Background(), "resume", "job", nil)
	require.True(t, result.Success)

	steps := logs.FilterMessage("pipeline step").All()
	require.Len(t, steps, 6)
	assert.Equal(t, result.RunID, steps[0].ContextMap()["run_id"])
	assert.Equal(t, StageResume, steps[0].ContextMap()["stage"])
}

// scriptedGenerator answers each call with the next queued reply.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []string
	calls   []ai.Request
}

func (s *scriptedGenerator) GenerateContent(_ context.Context, req ai.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *scriptedGenerator) Model() string { return "scripted" }

func TestEndToEndAcme(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		`{"contact": {"name": "Jane Doe"}, "experiences": [{"company": "Acme Corp", "title": "Engineer", "start_date": "2020-01", "end_date": "2022-01", "bullets": ["Built X", "Led Y"], "original_text": "Acme Corp Engineer 2020-01 - 2022-01 Built X Led Y"}], "skills": ["Python", "Docker"]}`,
		"```json\n{\"title\": \"Platform Engineer\", \"requirements\": {\"required_skills\": [\"Python\", \"Kubernetes\"]}}\n```",
		`{"matched_skills": [{"skill": "Python", "match_strength": "strong", "resume_evidence": ["Built X"], "suggestion": "mention Python in Built X"}],
		  "missing_skills": [{"skill": "Kubernetes", "match_strength": "partial", "resume_evidence": ["Docker"]}],
		  "match_score": 50, "summary": "half"}`,
		`{"summary": "Python engineer", "experiences": [{"company": "Acme Inc", "title": "Lead Engineer", "start_date": "2019", "bullets": ["Built X in Python", "Led Y"]}],
		  "skills": ["Python", "Docker"],
		  "changes": [{"section": "summary", "original": "", "modified": "Python engineer", "reason": "target"},
		              {"section": "experience", "original": "Built X", "modified": "Built X in Python", "reason": "keyword"}]}`,
		`{"status": "flagged", "issues": [], "warnings": []}`,
	}}

	c, err := New(DefaultStages(gen, zap.NewNop(), agents.Options{}), zap.NewNop())
	require.NoError(t, err)

	result := c.Process(context.Background(), "Jane Doe resume text", "Platform Engineer job text", nil)
	require.True(t, result.Success, result.Error)
	out := result.Output

	require.Len(t, out.Matches.Matched, 1)
	assert.Equal(t, "Python", out.Matches.Matched[0].Skill)
	assert.Contains(t, []model.MatchStrength{model.StrengthStrong, model.StrengthPartial}, out.Matches.Matched[0].Strength)
	require.Len(t, out.Matches.Missing, 1)
	assert.Equal(t, "Kubernetes", out.Matches.Missing[0].Skill)
	assert.Equal(t, model.StrengthMissing, out.Matches.Missing[0].Strength)
	assert.Empty(t, out.Matches.Missing[0].Evidence)

	require.Len(t, out.Tailored.Experiences, 1)
	exp := out.Tailored.Experiences[0]
	assert.Equal(t, "Acme Corp", exp.Company)
	assert.Equal(t, "Engineer", exp.Title)
	assert.Equal(t, "2020-01", exp.StartDate)
	assert.Equal(t, "2022-01", exp.EndDate)
	assert.Equal(t, []string{"Built X in Python", "Led Y"}, exp.Bullets)

	assert.Equal(t, len(out.Tailored.Changes), out.Report.TotalChanges)
	assert.Equal(t, float64(54), out.Report.ImprovedScore)
	assert.Equal(t, model.StatusApproved, out.Verification.Status)
	assert.Equal(t, "Jane Doe resume text", out.OriginalResume.RawText)

	require.Len(t, gen.calls, 5)
	assert.Equal(t, agents.LargeOutputTokens, gen.calls[0].MaxOutputTokens)
	assert.Equal(t, agents.DefaultOutputTokens, gen.calls[1].MaxOutputTokens)
	assert.Equal(t, agents.LargeOutputTokens, gen.calls[3].MaxOutputTokens)
}
