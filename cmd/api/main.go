package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sightline-ai/visibility-engine/internal/cache"
	"github.com/sightline-ai/visibility-engine/internal/fetch"
	"github.com/sightline-ai/visibility-engine/internal/insight"
	"github.com/sightline-ai/visibility-engine/internal/model"
	"github.com/sightline-ai/visibility-engine/internal/platform/config"
	"github.com/sightline-ai/visibility-engine/internal/platform/logger"
	"github.com/sightline-ai/visibility-engine/internal/platform/middleware"
	"github.com/sightline-ai/visibility-engine/internal/score"
	"github.com/sightline-ai/visibility-engine/internal/workflow"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	reports, err := cache.New[*model.Report](cfg.CacheMaxEntries, cfg.CacheTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cache: %v\n", err)
		os.Exit(1)
	}

	var generator insight.Generator = insight.Disabled{}
	if cfg.OpenAIAPIKey != "" {
		generator = insight.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Warn("OPENAI_API_KEY not set, insight steps will be skipped")
	}

	orch := workflow.New(
		workflow.Config{
			MaxConcurrent:  cfg.MaxConcurrentAnalyses,
			CacheTTL:       cfg.CacheTTL,
			InsightTimeout: cfg.InsightTimeout,
			JobTTL:         cfg.JobTTL,
		},
		fetch.NewClient(cfg.FetchTimeout),
		score.NewDefault(),
		generator,
		reports,
		log,
	)

	mux := http.NewServeMux()
	workflow.NewTransport(orch, log).RegisterRoutes(mux)

	handler := middleware.RequestID(middleware.Logging(log)(mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Port, "max_concurrent", cfg.MaxConcurrentAnalyses)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
		orch.Close()
	}
}
