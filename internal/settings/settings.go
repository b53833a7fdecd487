// Package settings reads the runtime settings kept in the record store,
// falling back to the loaded configuration when a key is absent or invalid.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/IshaanNene/newsrelay/internal/config"
	"github.com/IshaanNene/newsrelay/internal/storage"
)

// Keys of the runtime settings editable through the API.
const (
	KeyUpdateInterval = "updateInterval"
	KeyMaxArticles    = "maxArticles"
	KeySourceURL      = "sourceUrl"
)

// DefaultUpdateInterval is used when updateInterval is unset or unusable.
const DefaultUpdateInterval = 15

// Resolver provides typed access to runtime settings.
type Resolver struct {
	store  storage.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by store with cfg as fallback.
func NewResolver(store storage.Store, cfg *config.Config, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "settings"),
	}
}

// UpdateInterval returns the scrape interval in minutes. Unparsable or
// non-positive values resolve to DefaultUpdateInterval.
func (r *Resolver) UpdateInterval(ctx context.Context) int {
	fallback := r.cfg.Scrape.UpdateInterval
	if fallback <= 0 {
		fallback = DefaultUpdateInterval
	}
	v, ok := r.positiveInt(ctx, KeyUpdateInterval)
	if !ok {
		return fallback
	}
	return v
}

// MaxArticles returns the retention basis; the store keeps twice this many.
func (r *Resolver) MaxArticles(ctx context.Context) int {
	v, ok := r.positiveInt(ctx, KeyMaxArticles)
	if !ok {
		return r.cfg.Scrape.MaxArticles
	}
	return v
}

// SourceURL returns the listing page to scrape.
func (r *Resolver) SourceURL(ctx context.Context) string {
	v, ok := r.lookup(ctx, KeySourceURL)
	if !ok || strings.TrimSpace(v) == "" {
		return r.cfg.Source.URL
	}
	return strings.TrimSpace(v)
}

func (r *Resolver) lookup(ctx context.Context, key string) (string, bool) {
	v, ok, err := r.store.GetSetting(ctx, key)
	if err != nil {
		r.logger.Warn("setting lookup failed", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

func (r *Resolver) positiveInt(ctx context.Context, key string) (int, bool) {
	raw, ok := r.lookup(ctx, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		r.logger.Debug("ignoring invalid setting", "key", key, "value", raw)
		return 0, false
	}
	return n, true
}

// Validate checks a value submitted for key. Unknown keys are accepted as
// free-form strings.
func Validate(key, value string) error {
	switch key {
	case KeyUpdateInterval, KeyMaxArticles:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		if n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, n)
		}
	case KeySourceURL:
		if err := config.ValidateURL(strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	case "":
		return fmt.Errorf("setting key is required")
	}
	return nil
}

// Seed writes config values for runtime settings that are not stored yet.
func Seed(ctx context.Context, store storage.Store, cfg *config.Config) error {
	defaults := map[string]string{
		KeyUpdateInterval: strconv.Itoa(cfg.Scrape.UpdateInterval),
		KeyMaxArticles:    strconv.Itoa(cfg.Scrape.MaxArticles),
		KeySourceURL:      cfg.Source.URL,
	}
	for _, key := range []string{KeyUpdateInterval, KeyMaxArticles, KeySourceURL} {
		_, ok, err := store.GetSetting(ctx, key)
		if err != nil {
			return fmt.Errorf("read setting %s: %w", key, err)
		}
		if ok {
			continue
		}
		if _, err := store.UpsertSetting(ctx, key, defaults[key]); err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}
