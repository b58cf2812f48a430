package pipeline

import (
	"github.com/spigell/resume-tailor/internal/agents"
	"github.com/spigell/resume-tailor/internal/ai"
	"go.uber.org/zap"
)

// DefaultStages builds the model-backed stages on a single generator.
func DefaultStages(generator ai.Generator, logger *zap.Logger, opts agents.Options) Stages {
	return Stages{
		Resume:   agents.NewResumeExtractor(generator, logger, opts),
		Job:      agents.NewJobExtractor(generator, logger, opts),
		Matcher:  agents.NewMatcher(generator, logger, opts),
		Tailor:   agents.NewTailor(generator, logger, opts),
		Verifier: agents.NewVerifier(generator, logger, opts),
	}
}
