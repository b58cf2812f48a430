package agents

import (
	"context"
	"errors"

	"github.com/spigell/resume-tailor/internal/ai"
)

type stubGenerator struct {
	response string
	err      error
	requests []ai.Request
}

func (s *stubGenerator) GenerateContent(_ context.Context, req ai.Request) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func (s *stubGenerator) lastRequest() ai.Request {
	if len(s.requests) == 0 {
		return ai.Request{}
	}
	return s.requests[len(s.requests)-1]
}

var errStub = errors.New("backend down")
