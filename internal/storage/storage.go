package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/newsrelay/internal/config"
	"github.com/IshaanNene/newsrelay/internal/types"
)

// Store is the record store for articles, operational logs and settings.
// Every method is atomic with respect to the others: readers never observe
// a half-applied write.
type Store interface {
	// ListArticles returns up to limit articles, newest ScrapedAt first.
	// A limit <= 0 returns all articles.
	ListArticles(ctx context.Context, limit int) ([]types.Article, error)

	// CountArticles returns the number of stored articles.
	CountArticles(ctx context.Context) (int, error)

	// FindArticleByURL looks up an article by its unique URL.
	FindArticleByURL(ctx context.Context, url string) (types.Article, bool, error)

	// InsertArticle stores a new article, assigning ID and ScrapedAt.
	// It returns types.ErrDuplicate if the URL is already stored.
	InsertArticle(ctx context.Context, c types.Candidate) (types.Article, error)

	// TrimArticles keeps the keep most recent articles and deletes the rest.
	TrimArticles(ctx context.Context, keep int) (int, error)

	// ListLogs returns up to limit log entries, newest first.
	ListLogs(ctx context.Context, limit int) ([]types.LogEntry, error)

	// AppendLog records an operational log entry.
	AppendLog(ctx context.Context, level types.LogLevel, message string) (types.LogEntry, error)

	// TrimLogs keeps the keep most recent log entries.
	TrimLogs(ctx context.Context, keep int) (int, error)

	// GetSetting returns the value stored under key.
	GetSetting(ctx context.Context, key string) (string, bool, error)

	// UpsertSetting creates the setting or updates its value and timestamp.
	UpsertSetting(ctx context.Context, key, value string) (types.Setting, error)

	// ListSettings returns all settings ordered by key.
	ListSettings(ctx context.Context) ([]types.Setting, error)

	// Name returns the storage backend identifier.
	Name() string

	// Close flushes pending writes and releases resources.
	Close() error
}

// Clock returns the current time. Stores stamp records with it.
type Clock func() time.Time

type storeOptions struct {
	now Clock
}

// Option configures a Store backend.
type Option func(*storeOptions)

// WithClock overrides the time source used for ScrapedAt, log timestamps
// and setting updates.
func WithClock(now Clock) Option {
	return func(o *storeOptions) { o.now = now }
}

func buildOptions(opts []Option) storeOptions {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger, opts ...Option) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(logger, opts...), nil
	case "sqlite":
		return NewSQLiteStore(cfg.Path, logger, opts...)
	case "mongodb":
		return NewMongoStore(ctx, cfg.URI, cfg.Database, logger, opts...)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

func wrapErr(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &types.PersistenceError{Backend: backend, Op: op, Err: err}
}
