package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/spigell/resume-tailor/internal/jobfetch"
	"github.com/spigell/resume-tailor/internal/logger"
	"go.uber.org/zap"
)

// TailorRequest is the JSON body of POST /api/v1/tailor.
type TailorRequest struct {
	ResumeText string `json:"resume_text"`
	JobText    string `json:"job_text"`
	JobURL     string `json:"job_url"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	RunID string `json:"run_id,omitempty"`
}

var errBadRequest = errors.New("invalid request")

func (s *Server) tailor(c *gin.Context) {
	req, err := s.readRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	jobText, err := s.resolveJob(c, req)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, errBadRequest) {
			status = http.StatusBadGateway
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "request cancelled while waiting for a free worker"})
		return
	}
	defer s.sem.Release(1)

	result := s.deps.Processor.Process(ctx, req.ResumeText, jobText, nil)

	log := logger.WithRun(s.logger, result.RunID)
	if !result.Success {
		log.Warn("tailoring failed", zap.String("error", result.Error))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: result.Error, RunID: result.RunID})
		return
	}

	log.Info("tailoring finished",
		zap.String("verification", string(result.Output.Verification.Status)),
		zap.Float64("improved_score", result.Output.Report.ImprovedScore),
	)
	c.JSON(http.StatusOK, result)
}

// readRequest accepts either a JSON body or a multipart form with a
// resume_file upload.
func (s *Server) readRequest(c *gin.Context) (TailorRequest, error) {
	var req TailorRequest

	if s.limits.MaxResumeBytes > 0 {
		// Leave room for the job text and the other fields.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.limits.MaxResumeBytes+1<<20)
	}

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		req.JobText = c.PostForm("job_text")
		req.JobURL = c.PostForm("job_url")
		req.ResumeText = c.PostForm("resume_text")

		header, err := c.FormFile("resume_file")
		switch {
		case err == nil:
			text, err := s.parseUpload(header)
			if err != nil {
				return req, err
			}
			req.ResumeText = text
		case errors.Is(err, http.ErrMissingFile):
		default:
			return req, fmt.Errorf("failed to read upload: %w", err)
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}

	if strings.TrimSpace(req.ResumeText) == "" {
		return req, errors.New("resume_text or resume_file is required")
	}
	if strings.TrimSpace(req.JobText) == "" {
		if strings.TrimSpace(req.JobURL) == "" {
			return req, errors.New("job_text or job_url is required")
		}
		if !jobfetch.IsURL(req.JobURL) {
			return req, errors.New("job_url must be an http(s) URL")
		}
	}
	return req, nil
}

func (s *Server) parseUpload(header *multipart.FileHeader) (string, error) {
	if s.limits.MaxResumeBytes > 0 && header.Size > s.limits.MaxResumeBytes {
		return "", fmt.Errorf("resume file is larger than %d bytes", s.limits.MaxResumeBytes)
	}

	f, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	text, err := s.deps.Parser.Parse(header.Filename, data)
	if err != nil {
		return "", fmt.Errorf("failed to parse resume: %w", err)
	}
	return text, nil
}

func (s *Server) resolveJob(c *gin.Context, req TailorRequest) (string, error) {
	text := req.JobText
	if strings.TrimSpace(text) == "" {
		if s.deps.Fetcher == nil {
			return "", fmt.Errorf("%w: job_url is not supported, send job_text", errBadRequest)
		}
		fetched, err := s.deps.Fetcher.Fetch(c.Request.Context(), req.JobURL)
		if err != nil {
			return "", fmt.Errorf("failed to fetch job posting: %w", err)
		}
		text = fetched
	}

	if s.limits.MaxJobLength > 0 && utf8.RuneCountInString(text) > s.limits.MaxJobLength {
		return "", fmt.Errorf("%w: job text is longer than %d characters", errBadRequest, s.limits.MaxJobLength)
	}
	return text, nil
}
