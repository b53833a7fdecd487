package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/IshaanNene/newsrelay/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	title          TEXT NOT NULL,
	excerpt        TEXT NOT NULL DEFAULT '',
	url            TEXT NOT NULL UNIQUE,
	category       TEXT NOT NULL DEFAULT '',
	published_date TEXT NOT NULL DEFAULT '',
	scraped_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_scraped ON articles(scraped_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS logs (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	level     TEXT NOT NULL,
	message   TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp DESC, id DESC);

CREATE TABLE IF NOT EXISTS settings (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	key        TEXT NOT NULL UNIQUE,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteStore persists records in a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	now    Clock
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string, logger *slog.Logger, opts ...Option) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps reads consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		now:    buildOptions(opts).now,
		logger: logger.With("component", "sqlite_storage", "path", path),
	}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) ListArticles(ctx context.Context, limit int) ([]types.Article, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, excerpt, url, category, published_date, scraped_at
		FROM articles ORDER BY scraped_at DESC, id DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, wrapErr(s.Name(), "list articles", err)
	}
	defer rows.Close()

	var out []types.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, wrapErr(s.Name(), "list articles", err)
		}
		out = append(out, a)
	}
	return out, wrapErr(s.Name(), "list articles", rows.Err())
}

func (s *SQLiteStore) CountArticles(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n)
	return n, wrapErr(s.Name(), "count articles", err)
}

func (s *SQLiteStore) FindArticleByURL(ctx context.Context, url string) (types.Article, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, excerpt, url, category, published_date, scraped_at
		FROM articles WHERE url = ?`, url)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Article{}, false, nil
	}
	if err != nil {
		return types.Article{}, false, wrapErr(s.Name(), "find article", err)
	}
	return a, true, nil
}

func (s *SQLiteStore) InsertArticle(ctx context.Context, c types.Candidate) (types.Article, error) {
	scrapedAt := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (title, excerpt, url, category, published_date, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Title, c.Excerpt, c.URL, c.Category, c.PublishedDate, scrapedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return types.Article{}, wrapErr(s.Name(), "insert article", types.ErrDuplicate)
		}
		return types.Article{}, wrapErr(s.Name(), "insert article", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Article{}, wrapErr(s.Name(), "insert article", err)
	}
	return types.NewArticle(id, c, time.Unix(0, scrapedAt.UnixNano())), nil
}

func (s *SQLiteStore) TrimArticles(ctx context.Context, keep int) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM articles WHERE id NOT IN (
			SELECT id FROM articles ORDER BY scraped_at DESC, id DESC LIMIT ?
		)`, max(keep, 0))
	if err != nil {
		return 0, wrapErr(s.Name(), "trim articles", err)
	}
	n, err := res.RowsAffected()
	return int(n), wrapErr(s.Name(), "trim articles", err)
}

func (s *SQLiteStore) ListLogs(ctx context.Context, limit int) ([]types.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, level, message, timestamp
		FROM logs ORDER BY timestamp DESC, id DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, wrapErr(s.Name(), "list logs", err)
	}
	defer rows.Close()

	var out []types.LogEntry
	for rows.Next() {
		var (
			e     types.LogEntry
			level string
			ts    int64
		)
		if err := rows.Scan(&e.ID, &level, &e.Message, &ts); err != nil {
			return nil, wrapErr(s.Name(), "list logs", err)
		}
		e.Level = types.LogLevel(level)
		e.Timestamp = time.Unix(0, ts)
		out = append(out, e)
	}
	return out, wrapErr(s.Name(), "list logs", rows.Err())
}

func (s *SQLiteStore) AppendLog(ctx context.Context, level types.LogLevel, message string) (types.LogEntry, error) {
	ts := s.now().UnixNano()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (level, message, timestamp) VALUES (?, ?, ?)`, string(level), message, ts)
	if err != nil {
		return types.LogEntry{}, wrapErr(s.Name(), "append log", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.LogEntry{}, wrapErr(s.Name(), "append log", err)
	}
	return types.LogEntry{ID: id, Level: level, Message: message, Timestamp: time.Unix(0, ts)}, nil
}

func (s *SQLiteStore) TrimLogs(ctx context.Context, keep int) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM logs WHERE id NOT IN (
			SELECT id FROM logs ORDER BY timestamp DESC, id DESC LIMIT ?
		)`, max(keep, 0))
	if err != nil {
		return 0, wrapErr(s.Name(), "trim logs", err)
	}
	n, err := res.RowsAffected()
	return int(n), wrapErr(s.Name(), "trim logs", err)
}

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr(s.Name(), "get setting", err)
	}
	return value, true, nil
}

func (s *SQLiteStore) UpsertSetting(ctx context.Context, key, value string) (types.Setting, error) {
	ts := s.now().UnixNano()
	var st types.Setting
	var updated int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		RETURNING id, key, value, updated_at`, key, value, ts).
		Scan(&st.ID, &st.Key, &st.Value, &updated)
	if err != nil {
		return types.Setting{}, wrapErr(s.Name(), "upsert setting", err)
	}
	st.UpdatedAt = time.Unix(0, updated)
	return st, nil
}

func (s *SQLiteStore) ListSettings(ctx context.Context) ([]types.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, wrapErr(s.Name(), "list settings", err)
	}
	defer rows.Close()

	var out []types.Setting
	for rows.Next() {
		var st types.Setting
		var updated int64
		if err := rows.Scan(&st.ID, &st.Key, &st.Value, &updated); err != nil {
			return nil, wrapErr(s.Name(), "list settings", err)
		}
		st.UpdatedAt = time.Unix(0, updated)
		out = append(out, st)
	}
	return out, wrapErr(s.Name(), "list settings", rows.Err())
}

func (s *SQLiteStore) Close() error {
	s.logger.Info("sqlite storage closing")
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (types.Article, error) {
	var a types.Article
	var scraped int64
	if err := row.Scan(&a.ID, &a.Title, &a.Excerpt, &a.URL, &a.Category, &a.PublishedDate, &scraped); err != nil {
		return types.Article{}, err
	}
	a.ScrapedAt = time.Unix(0, scraped)
	return a, nil
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
