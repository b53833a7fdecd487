package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for newsrelay.
type Config struct {
	Source    SourceConfig    `mapstructure:"source"    yaml:"source"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"    yaml:"scrape"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Extractor ExtractorConfig `mapstructure:"extractor" yaml:"extractor"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Server    ServerConfig    `mapstructure:"server"    yaml:"server"`
	Feed      FeedConfig      `mapstructure:"feed"      yaml:"feed"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// SourceConfig describes the listing page that gets scraped.
type SourceConfig struct {
	URL       string `mapstructure:"url"        yaml:"url"`
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// ScrapeConfig controls the scrape loop and retention.
type ScrapeConfig struct {
	UpdateInterval int  `mapstructure:"update_interval" yaml:"update_interval"` // minutes
	MaxArticles    int  `mapstructure:"max_articles"    yaml:"max_articles"`
	LogRetention   int  `mapstructure:"log_retention"   yaml:"log_retention"`
	StatusWindow   int  `mapstructure:"status_window"   yaml:"status_window"`
	RunOnStart     bool `mapstructure:"run_on_start"    yaml:"run_on_start"`
}

// FetcherConfig controls the HTTP fetcher.
type FetcherConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// ExtractorConfig tunes the listing heuristics.
type ExtractorConfig struct {
	DefaultCategory       string   `mapstructure:"default_category"        yaml:"default_category"`
	NewsPathFragments     []string `mapstructure:"news_path_fragments"     yaml:"news_path_fragments"`
	MinTitleLength        int      `mapstructure:"min_title_length"        yaml:"min_title_length"`
	MaxTitleLength        int      `mapstructure:"max_title_length"        yaml:"max_title_length"`
	MaxExcerptLength      int      `mapstructure:"max_excerpt_length"      yaml:"max_excerpt_length"`
	ExcerptFallbackLength int      `mapstructure:"excerpt_fallback_length" yaml:"excerpt_fallback_length"`
}

// StorageConfig selects the record store backend.
type StorageConfig struct {
	Type     string `mapstructure:"type"     yaml:"type"` // memory, sqlite, mongodb
	Path     string `mapstructure:"path"     yaml:"path"`
	URI      string `mapstructure:"uri"      yaml:"uri"`
	Database string `mapstructure:"database" yaml:"database"`
}

// ServerConfig controls the HTTP API and dashboard.
type ServerConfig struct {
	Host         string        `mapstructure:"host"          yaml:"host"`
	Port         int           `mapstructure:"port"          yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// FeedConfig describes the published RSS channel.
type FeedConfig struct {
	Title       string `mapstructure:"title"       yaml:"title"`
	Description string `mapstructure:"description" yaml:"description"`
	Link        string `mapstructure:"link"        yaml:"link"`
	Limit       int    `mapstructure:"limit"       yaml:"limit"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:       "https://unik-kediri.ac.id/berita",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Scrape: ScrapeConfig{
			UpdateInterval: 15,
			MaxArticles:    20,
			LogRetention:   200,
			StatusWindow:   10,
			RunOnStart:     true,
		},
		Fetcher: FetcherConfig{
			RequestTimeout:  30 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    10,
		},
		Extractor: ExtractorConfig{
			DefaultCategory:       "Umum",
			NewsPathFragments:     []string{"/news", "/berita", "/artikel"},
			MinTitleLength:        10,
			MaxTitleLength:        500,
			MaxExcerptLength:      1000,
			ExcerptFallbackLength: 200,
		},
		Storage: StorageConfig{
			Type:     "memory",
			Path:     "./data/newsrelay.db",
			URI:      "mongodb://localhost:27017",
			Database: "newsrelay",
		},
		Server: ServerConfig{
			Host:         "",
			Port:         3000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Feed: FeedConfig{
			Title:       "UNIK Kediri News",
			Description: "Latest news scraped from the university news page",
			Link:        "https://unik-kediri.ac.id/berita",
			Limit:       50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
