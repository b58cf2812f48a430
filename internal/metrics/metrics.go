// Package metrics exposes prometheus collectors for pipeline runs and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/spigell/resume-tailor/internal/model"
)

const namespace = "resume_tailor"

// Recorder implements pipeline.Observer and provides gin middleware.
type Recorder struct {
	stageDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	httpDuration  *prometheus.SummaryVec
	httpRequests  *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"stage", "result"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		httpDuration: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.95: 0.005,
					0.99: 0.001,
				},
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
	}
}

func (r *Recorder) StageCompleted(stage string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.stageDuration.WithLabelValues(stage, result).Observe(elapsed.Seconds())
}

// RunCompleted counts a run as "failed", "approved" or "flagged".
func (r *Recorder) RunCompleted(success bool, status model.VerificationStatus) {
	outcome := "failed"
	if success {
		outcome = string(status)
	}
	r.runs.WithLabelValues(outcome).Inc()
}

// GinMiddleware records latency and count per route.
func (r *Recorder) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := ctx.Request.Method
		statusCode := strconv.Itoa(ctx.Writer.Status())

		r.httpDuration.WithLabelValues(method, path, statusCode).Observe(time.Since(start).Seconds())
		r.httpRequests.WithLabelValues(method, path, statusCode).Inc()
	}
}
