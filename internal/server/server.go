// Package server exposes the tailoring pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spigell/resume-tailor/internal/pipeline"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultConcurrency = 4
	shutdownTimeout    = 30 * time.Second
)

// Processor runs one tailoring pipeline.
type Processor interface {
	Process(ctx context.Context, resumeText, jobText string, progress pipeline.ProgressFunc) pipeline.Result
}

// DocumentParser turns an uploaded resume file into text.
type DocumentParser interface {
	Parse(filename string, data []byte) (string, error)
}

// JobFetcher downloads a job posting.
type JobFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Limits struct {
	MaxResumeBytes int64
	MaxJobLength   int
}

type Options struct {
	Concurrency  int
	Limits       Limits
	AllowOrigins []string
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Middleware is appended after recovery and CORS, e.g. request metrics.
	Middleware []gin.HandlerFunc
}

type Deps struct {
	Processor Processor
	Parser    DocumentParser
	Fetcher   JobFetcher
}

type Server struct {
	deps   Deps
	limits Limits
	sem    *semaphore.Weighted
	engine *gin.Engine
	logger *zap.Logger
}

func New(deps Deps, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"*"}
	}

	s := &Server{
		deps:   deps,
		limits: opts.Limits,
		sem:    semaphore.NewWeighted(int64(opts.Concurrency)),
		logger: logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  opts.AllowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(opts.Middleware...)

	engine.GET("/healthz", s.health)
	if opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api/v1")
	{
		api.POST("/tailor", s.tailor)
	}

	s.engine = engine
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
