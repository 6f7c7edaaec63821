package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deepakbalivada04/MediConvo/internal/config"
	"github.com/deepakbalivada04/MediConvo/internal/gateway"
	"github.com/deepakbalivada04/MediConvo/internal/observability"
	"github.com/deepakbalivada04/MediConvo/internal/store"
	"github.com/deepakbalivada04/MediConvo/internal/summary"
	"github.com/deepakbalivada04/MediConvo/internal/transcribe"
	"github.com/deepakbalivada04/MediConvo/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("live_model", cfg.GeminiLiveModel).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("MediConvo gateway starting")

	mem := store.NewMemory()
	summarizer := summary.NewClient(cfg, logger)
	transcriber := transcribe.NewTranscriber(cfg, logger)
	speech := tts.NewClient(cfg, logger)

	mux := http.NewServeMux()
	gw := gateway.New(cfg, mem, summarizer, transcriber, speech, logger)
	gw.Register(mux)

	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"translation_service": func(ctx context.Context) (bool, error) {
			if cfg.GeminiAPIKey == "" {
				return false, config.ErrMissingCredential
			}
			return true, nil
		},
		"voice_notes": func(ctx context.Context) (bool, error) {
			// Voice-note transcription is optional; report configured state.
			return cfg.DeepgramAPIKey != "", nil
		},
	}))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/ws/consult", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
