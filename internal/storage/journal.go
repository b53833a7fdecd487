package storage

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/newsrelay/internal/types"
)

// Journal appends operational log entries to a Store and mirrors each one
// to slog. A failed append is logged and otherwise ignored so that logging
// never fails a scrape run.
type Journal struct {
	store  Store
	logger *slog.Logger
}

// NewJournal creates a Journal writing to store.
func NewJournal(store Store, logger *slog.Logger) *Journal {
	return &Journal{
		store:  store,
		logger: logger.With("component", "journal"),
	}
}

// Record appends an entry at level.
func (j *Journal) Record(ctx context.Context, level types.LogLevel, message string) {
	j.logger.Log(ctx, slogLevel(level), message, "entry_level", string(level))
	if _, err := j.store.AppendLog(ctx, level, message); err != nil {
		j.logger.Error("append log entry failed", "message", message, "error", err)
	}
}

func (j *Journal) Info(ctx context.Context, message string)    { j.Record(ctx, types.LevelInfo, message) }
func (j *Journal) Warn(ctx context.Context, message string)    { j.Record(ctx, types.LevelWarn, message) }
func (j *Journal) Error(ctx context.Context, message string)   { j.Record(ctx, types.LevelError, message) }
func (j *Journal) Success(ctx context.Context, message string) { j.Record(ctx, types.LevelSuccess, message) }

func slogLevel(level types.LogLevel) slog.Level {
	switch level {
	case types.LevelWarn:
		return slog.LevelWarn
	case types.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
