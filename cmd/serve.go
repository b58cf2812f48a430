package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-tailor/internal/docparse"
	"github.com/spigell/resume-tailor/internal/jobfetch"
	"github.com/spigell/resume-tailor/internal/logger"
	"github.com/spigell/resume-tailor/internal/metrics"
	"github.com/spigell/resume-tailor/internal/pipeline"
	"github.com/spigell/resume-tailor/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tailoring pipeline over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default :8080)")
	serveCmd.Flags().Int("concurrency", 0, "maximum number of concurrent pipeline runs (default 4)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("server.concurrency", serveCmd.Flags().Lookup("concurrency"))
}

func serve() {
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

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	coordinator, err := newCoordinator(ctx, config, lg, pipeline.WithObserver(recorder))
	if err != nil {
		lg.Fatal("preparing the pipeline", zap.Error(err))
	}

	srv := server.New(server.Deps{
		Processor: coordinator,
		Parser:    docparse.NewRegistry(lg),
		Fetcher: jobfetch.New(jobfetch.Options{
			Timeout:   config.Fetch.Timeout,
			UserAgent: config.Fetch.UserAgent,
			Browser:   config.Fetch.Browser,
		}, lg),
	}, server.Options{
		Concurrency:  config.Server.Concurrency,
		AllowOrigins: config.Server.AllowOrigins,
		Limits: server.Limits{
			MaxResumeBytes: config.Limits.MaxResumeBytes(),
			MaxJobLength:   config.Limits.MaxJobAdLength,
		},
		Gatherer:   registry,
		Middleware: []gin.HandlerFunc{recorder.GinMiddleware()},
	}, lg)

	lg.Info("starting the resume-tailor server", zap.String("version", version))

	if err := srv.Run(ctx, config.Server.Listen); err != nil {
		lg.Fatal("http server", zap.Error(err))
	}
}
