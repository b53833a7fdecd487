package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/IshaanNene/newsrelay/internal/config"
	"github.com/IshaanNene/newsrelay/internal/engine"
	"github.com/IshaanNene/newsrelay/internal/extractor"
	"github.com/IshaanNene/newsrelay/internal/fetcher"
	"github.com/IshaanNene/newsrelay/internal/ingest"
	"github.com/IshaanNene/newsrelay/internal/observability"
	"github.com/IshaanNene/newsrelay/internal/settings"
	"github.com/IshaanNene/newsrelay/internal/storage"
)

// app holds the wired components shared by serve and scrape.
type app struct {
	cfg       *config.Config
	store     storage.Store
	journal   *storage.Journal
	fetcher   fetcher.Fetcher
	metrics   *observability.Metrics
	scheduler *engine.Scheduler
	logger    *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	journal := storage.NewJournal(store, logger)
	resolver := settings.NewResolver(store, cfg, logger)
	metrics := observability.NewMetrics(logger)
	f := fetcher.NewHTTPFetcher(cfg, logger)

	sched := engine.NewScheduler(cfg.Scrape, engine.Deps{
		Store:     store,
		Fetcher:   f,
		Extractor: extractor.New(cfg.Extractor, logger),
		Ingestor:  ingest.NewIngestor(store, journal, resolver.MaxArticles, cfg.Scrape.LogRetention, logger),
		Settings:  resolver,
		Journal:   journal,
		Metrics:   metrics,
	}, logger)

	return &app{
		cfg:       cfg,
		store:     store,
		journal:   journal,
		fetcher:   f,
		metrics:   metrics,
		scheduler: sched,
		logger:    logger,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.fetcher.Close(), a.store.Close())
}

// loadConfig loads and validates configuration, applying CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger from the logging section.
func setupLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), closer, nil
}
