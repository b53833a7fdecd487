package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad source", func(c *Config) { c.Source.URL = "ftp://example.com" }},
		{"zero interval", func(c *Config) { c.Scrape.UpdateInterval = 0 }},
		{"zero max articles", func(c *Config) { c.Scrape.MaxArticles = 0 }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "redis" }},
		{"sqlite without path", func(c *Config) { c.Storage.Type = "sqlite"; c.Storage.Path = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"title bounds", func(c *Config) { c.Extractor.MaxTitleLength = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newsrelay.yaml")
	content := `
source:
  url: https://example.com/news
scrape:
  update_interval: 30
  max_articles: 40
fetcher:
  request_timeout: 5s
storage:
  type: sqlite
  path: /tmp/newsrelay-test.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Source.URL != "https://example.com/news" {
		t.Errorf("unexpected source url %q", cfg.Source.URL)
	}
	if cfg.Scrape.UpdateInterval != 30 || cfg.Scrape.MaxArticles != 40 {
		t.Errorf("unexpected scrape config %+v", cfg.Scrape)
	}
	if cfg.Fetcher.RequestTimeout != 5*time.Second {
		t.Errorf("unexpected timeout %s", cfg.Fetcher.RequestTimeout)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("unexpected storage type %q", cfg.Storage.Type)
	}
	// untouched sections keep defaults
	if cfg.Scrape.LogRetention != 200 {
		t.Errorf("expected default log retention, got %d", cfg.Scrape.LogRetention)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NEWSRELAY_SCRAPE_MAX_ARTICLES", "55")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("explicit missing config file should fail")
	}

	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scrape.MaxArticles != 55 {
		t.Errorf("expected env override 55, got %d", cfg.Scrape.MaxArticles)
	}
}
