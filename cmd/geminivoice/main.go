package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/geminivoice/internal/api"
	"github.com/dgnsrekt/geminivoice/internal/config"
	"github.com/dgnsrekt/geminivoice/internal/logging"
	"github.com/dgnsrekt/geminivoice/internal/tts"
)

func main() {
	os.Exit(run())
}

// run starts the service and blocks until shutdown. Deferred cleanup runs
// before main exits with the returned status.
func run() int {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		// Use stderr before logger is initialized
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	// Initialize structured logger, optionally teed to a rotating file
	logger, logCloser := logging.NewWithFile(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	defer logCloser.Close()
	logger.Info("starting geminivoice", "version", "0.1.0")

	if cfg.AuthDisabled() {
		logger.Warn("HTTP bearer authentication is disabled (BEARER_TOKEN is empty)")
	}

	// Log loaded configuration (without sensitive values)
	logger.Info("configuration loaded",
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
		"log_file", cfg.LogFile,
		"http_port", cfg.HTTPPort,
		"allowed_origins", cfg.AllowedOrigins,
		"gemini_model", cfg.GeminiModel,
		"gemini_models", cfg.GeminiModels,
		"upstream_timeout", cfg.UpstreamTimeout,
		"max_text_length", cfg.MaxTextLength,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"sample_width", cfg.SampleWidth,
		"catalog_file", cfg.CatalogFile,
	)

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		logger.Error("failed to load catalog", "path", cfg.CatalogFile, "error", err)
		return 1
	}
	logger.Info("catalog loaded",
		"voices", len(catalog.Voices()),
		"expressions", len(catalog.Expressions()),
		"default_voice", catalog.DefaultVoice(),
		"default_expression", catalog.DefaultExpression(),
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	// One engine per allowed model, all sharing the API key
	ttsRegistry := tts.NewRegistry()
	if cfg.UpstreamConfigured() {
		for _, model := range cfg.GeminiModels {
			engine, err := tts.NewGeminiEngine(tts.GeminiConfig{
				APIKey:  cfg.GeminiAPIKey,
				Model:   model,
				BaseURL: cfg.GeminiBaseURL,
				Timeout: cfg.UpstreamTimeout,
				Format:  cfg.AudioFormat(),
			}, logger)
			if err != nil {
				logger.Warn("failed to initialize Gemini TTS", "model", model, "error", err)
				continue
			}
			if err := ttsRegistry.Register(engine); err != nil {
				logger.Warn("failed to register Gemini TTS", "model", model, "error", err)
				continue
			}
			logger.Info("Gemini TTS engine registered", "model", model)
		}
		if err := ttsRegistry.SetDefault(cfg.GeminiModel); err != nil {
			logger.Warn("failed to set default model", "model", cfg.GeminiModel, "error", err)
		}
	} else {
		logger.Warn("GEMINI_API_KEY is not set, /api/tts will return 500 until it is configured")
	}

	// Create and start HTTP server
	server := api.New(cfg, catalog, ttsRegistry, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return 0
}
