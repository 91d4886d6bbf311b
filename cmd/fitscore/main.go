package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/FitScore/internal/api"
	"github.com/MikeSquared-Agency/FitScore/internal/assessor"
	"github.com/MikeSquared-Agency/FitScore/internal/config"
	"github.com/MikeSquared-Agency/FitScore/internal/hermes"
	"github.com/MikeSquared-Agency/FitScore/internal/identity"
	"github.com/MikeSquared-Agency/FitScore/internal/judge"
	"github.com/MikeSquared-Agency/FitScore/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	// Auth
	identityClient := identity.NewHTTPClient(cfg.Auth.URL, cfg.Auth.AnonKey)

	// Judge
	completer, err := newCompleter(ctx, cfg, cfg.Judge.Model)
	if err != nil {
		logger.Error("failed to create judge backend", "provider", cfg.Judge.Provider, "error", err)
		os.Exit(1)
	}
	evaluator := judge.NewEvaluator(completer, logger, cfg.Judge.MaxLogLength)
	logger.Info("judge ready", "provider", cfg.Judge.Provider, "model", completer.Model())

	// Narrator falls back to static text when disabled or when its backend fails to start.
	var narratorBackend judge.Completer
	if cfg.Narrator.Enabled {
		narratorBackend = completer
		if cfg.Narrator.Model != "" && cfg.Narrator.Model != completer.Model() {
			if nc, err := newCompleter(ctx, cfg, cfg.Narrator.Model); err != nil {
				logger.Warn("failed to create narrator backend, using static narration", "error", err)
				narratorBackend = nil
			} else {
				narratorBackend = nc
			}
		}
	}
	narrator := judge.NewNarrator(narratorBackend, logger)

	// Assessor
	a := assessor.New(db, hermesClient, evaluator, narrator, cfg.Worker.MaxConcurrent, logger)
	defer a.Stop()
	a.SetupSubscriptions()

	// API server
	router := api.NewRouter(a, db, identityClient, cfg.Server.RateLimitPerMinute, logger)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	// Judge calls can run for the full judge timeout; give them that long to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.JudgeTimeout()+5*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func newCompleter(ctx context.Context, cfg *config.Config, model string) (judge.Completer, error) {
	switch cfg.Judge.Provider {
	case config.ProviderGemini:
		return judge.NewGeminiCompleter(ctx, cfg.Judge.APIKey, model, cfg.JudgeTimeout())
	default:
		return judge.NewOpenAICompleter(judge.OpenAIConfig{
			APIKey:   cfg.Judge.APIKey,
			BaseURL:  cfg.Judge.BaseURL,
			Model:    model,
			Timeout:  cfg.JudgeTimeout(),
			JSONMode: cfg.Judge.JSONMode,
		})
	}
}
