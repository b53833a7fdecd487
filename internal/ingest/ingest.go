// Package ingest persists extracted candidates, skipping URLs the store
// already holds, and applies article and log retention.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/newsrelay/internal/storage"
	"github.com/IshaanNene/newsrelay/internal/types"
)

// MaxArticlesFunc returns the current retention basis.
type MaxArticlesFunc func(ctx context.Context) int

// Ingestor stores new candidates and trims history.
type Ingestor struct {
	store        storage.Store
	journal      *storage.Journal
	maxArticles  MaxArticlesFunc
	logRetention int
	logger       *slog.Logger
}

// NewIngestor creates an Ingestor. maxArticles is read on every cycle so
// settings changes apply without a restart.
func NewIngestor(store storage.Store, journal *storage.Journal, maxArticles MaxArticlesFunc, logRetention int, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:        store,
		journal:      journal,
		maxArticles:  maxArticles,
		logRetention: logRetention,
		logger:       logger.With("component", "ingestor"),
	}
}

// Ingest stores candidates whose URL is new and returns how many were
// added. Store failures other than a duplicate URL abort the batch.
func (i *Ingestor) Ingest(ctx context.Context, candidates []types.Candidate) (int, error) {
	if len(candidates) == 0 {
		i.journal.Warn(ctx, "no articles found, source structure may have changed")
	}

	added := 0
	for _, c := range candidates {
		_, exists, err := i.store.FindArticleByURL(ctx, c.URL)
		if err != nil {
			return added, asPersistence(i.store.Name(), "find article", err)
		}
		if exists {
			continue
		}

		a, err := i.store.InsertArticle(ctx, c)
		if errors.Is(err, types.ErrDuplicate) {
			continue
		}
		if err != nil {
			return added, asPersistence(i.store.Name(), "insert article", err)
		}
		added++
		i.logger.Debug("article added", "id", a.ID, "url", a.URL)
	}

	if added > 0 {
		i.journal.Info(ctx, fmt.Sprintf("added %d new articles", added))

		keep := 2 * i.maxArticles(ctx)
		removed, err := i.store.TrimArticles(ctx, keep)
		if err != nil {
			return added, asPersistence(i.store.Name(), "trim articles", err)
		}
		if removed > 0 {
			i.logger.Info("old articles trimmed", "removed", removed, "kept", keep)
		}
	}

	return added, nil
}

// TrimLogs applies log retention. It is separate from Ingest so runs that
// never reach ingestion are trimmed too.
func (i *Ingestor) TrimLogs(ctx context.Context) error {
	if _, err := i.store.TrimLogs(ctx, i.logRetention); err != nil {
		return asPersistence(i.store.Name(), "trim logs", err)
	}
	return nil
}

// asPersistence keeps errors the store already classified and wraps the rest.
func asPersistence(backend, op string, err error) error {
	var pe *types.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &types.PersistenceError{Backend: backend, Op: op, Err: err}
}
