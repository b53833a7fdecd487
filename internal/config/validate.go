package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Source.URL); err != nil {
		return fmt.Errorf("source.url: %w", err)
	}

	if cfg.Scrape.UpdateInterval < 1 {
		return fmt.Errorf("scrape.update_interval must be >= 1 minute, got %d", cfg.Scrape.UpdateInterval)
	}
	if cfg.Scrape.MaxArticles < 1 {
		return fmt.Errorf("scrape.max_articles must be >= 1, got %d", cfg.Scrape.MaxArticles)
	}
	if cfg.Scrape.LogRetention < 1 {
		return fmt.Errorf("scrape.log_retention must be >= 1, got %d", cfg.Scrape.LogRetention)
	}
	if cfg.Scrape.StatusWindow < 1 {
		return fmt.Errorf("scrape.status_window must be >= 1, got %d", cfg.Scrape.StatusWindow)
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Extractor.MinTitleLength < 0 {
		return fmt.Errorf("extractor.min_title_length must be >= 0")
	}
	if cfg.Extractor.MaxTitleLength <= cfg.Extractor.MinTitleLength {
		return fmt.Errorf("extractor.max_title_length (%d) must exceed min_title_length (%d)",
			cfg.Extractor.MaxTitleLength, cfg.Extractor.MinTitleLength)
	}
	if cfg.Extractor.MaxExcerptLength < 1 || cfg.Extractor.ExcerptFallbackLength < 1 {
		return fmt.Errorf("extractor excerpt lengths must be >= 1")
	}

	switch cfg.Storage.Type {
	case "memory":
	case "sqlite":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case "mongodb":
		if cfg.Storage.URI == "" || cfg.Storage.Database == "" {
			return fmt.Errorf("storage.uri and storage.database are required for mongodb")
		}
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: memory, sqlite, mongodb)", cfg.Storage.Type)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}
	if cfg.Feed.Limit < 1 {
		return fmt.Errorf("feed.limit must be >= 1, got %d", cfg.Feed.Limit)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a scrape source.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
