package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	transcript "github.com/iKozay/TrackMyDegree-sub000"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML or JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := transcript.DefaultConfig()
	if *configPath != "" {
		loaded, err := transcript.LoadConfig(*configPath)
		if err != nil {
			slog.Error("loading config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	applyEnv(&cfg)

	apiKey := os.Getenv("TRANSCRIPT_API_KEY")
	corsOrigins := os.Getenv("TRANSCRIPT_CORS_ORIGINS")

	engine, err := transcript.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      newRouter(newHandler(engine, cfg.MaxUploadBytes), apiKey, corsOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr, "store", !cfg.DisableStore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// applyEnv overrides config fields from TRANSCRIPT_* environment variables.
func applyEnv(cfg *transcript.Config) {
	if v := os.Getenv("TRANSCRIPT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TRANSCRIPT_DISABLE_STORE"); v == "true" || v == "1" {
		cfg.DisableStore = true
	}
	if v := os.Getenv("TRANSCRIPT_STRICT_PDF"); v == "true" || v == "1" {
		cfg.StrictPDF = true
	}
	if v := os.Getenv("TRANSCRIPT_TRANSFER_YEAR"); v != "" {
		cfg.TransferYearFallback = v
	}
}
