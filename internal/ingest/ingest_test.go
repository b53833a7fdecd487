package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/newsrelay/internal/storage"
	"github.com/IshaanNene/newsrelay/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func tickingClock() storage.Clock {
	t := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func fixedMax(n int) MaxArticlesFunc {
	return func(context.Context) int { return n }
}

func candidates(from, to int) []types.Candidate {
	var out []types.Candidate
	for i := from; i <= to; i++ {
		out = append(out, types.Candidate{
			Title:         fmt.Sprintf("Berita kampus nomor %d", i),
			URL:           fmt.Sprintf("https://unik-kediri.ac.id/berita/%d", i),
			Category:      types.DefaultCategory,
			PublishedDate: "2024-01-15",
		})
	}
	return out
}

func newTestIngestor(store storage.Store, maxArticles, logRetention int) *Ingestor {
	return NewIngestor(store, storage.NewJournal(store, testLogger), fixedMax(maxArticles), logRetention, testLogger)
}

func TestIngestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger, storage.WithClock(tickingClock()))
	ing := newTestIngestor(store, 20, 200)

	batch := candidates(1, 5)

	added, err := ing.Ingest(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 5, added)

	added, err = ing.Ingest(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	n, err := store.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestIngestDuplicateWithinBatch(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger)
	ing := newTestIngestor(store, 20, 200)

	batch := append(candidates(1, 2), candidates(1, 1)...)
	added, err := ing.Ingest(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
}

func TestIngestEmptyWarns(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger, storage.WithClock(tickingClock()))
	ing := newTestIngestor(store, 20, 200)

	added, err := ing.Ingest(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, added)

	logs, err := store.ListLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, types.LevelWarn, logs[0].Level)
	assert.Contains(t, logs[0].Message, "no articles found")
}

func TestIngestLogsAddedCount(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger, storage.WithClock(tickingClock()))
	ing := newTestIngestor(store, 20, 200)

	_, err := ing.Ingest(ctx, candidates(1, 3))
	require.NoError(t, err)

	logs, err := store.ListLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, types.LevelInfo, logs[0].Level)
	assert.Equal(t, "added 3 new articles", logs[0].Message)

	// nothing new: no info entry
	_, err = ing.Ingest(ctx, candidates(1, 3))
	require.NoError(t, err)
	logs, err = store.ListLogs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestIngestTrimsToTwiceMax(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger, storage.WithClock(tickingClock()))
	ing := newTestIngestor(store, 3, 200)

	_, err := ing.Ingest(ctx, candidates(1, 10))
	require.NoError(t, err)

	list, err := store.ListArticles(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 6)
	assert.Equal(t, "https://unik-kediri.ac.id/berita/10", list[0].URL)
	assert.Equal(t, "https://unik-kediri.ac.id/berita/5", list[5].URL)
}

func TestTrimLogsKeepsNewest(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger, storage.WithClock(tickingClock()))
	ing := newTestIngestor(store, 20, 3)

	for i := 0; i < 10; i++ {
		_, err := store.AppendLog(ctx, types.LevelInfo, fmt.Sprintf("entry %d", i))
		require.NoError(t, err)
	}

	require.NoError(t, ing.TrimLogs(ctx))

	logs, err := store.ListLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "entry 9", logs[0].Message)
	assert.Equal(t, "entry 7", logs[2].Message)
}

func TestIngestLeavesLogTrimmingToCaller(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger, storage.WithClock(tickingClock()))
	ing := newTestIngestor(store, 20, 3)

	for i := 0; i < 10; i++ {
		_, err := store.AppendLog(ctx, types.LevelInfo, fmt.Sprintf("entry %d", i))
		require.NoError(t, err)
	}
	_, err := ing.Ingest(ctx, candidates(1, 1))
	require.NoError(t, err)

	logs, err := store.ListLogs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 11)
}

func TestIngestStoredArticlesRespectLimits(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger)
	ing := newTestIngestor(store, 20, 200)

	batch := []types.Candidate{{
		Title:   strings.Repeat("a", 500),
		Excerpt: strings.Repeat("b", 1000),
		URL:     "https://unik-kediri.ac.id/berita/long",
	}}
	_, err := ing.Ingest(ctx, batch)
	require.NoError(t, err)

	list, err := store.ListArticles(ctx, 0)
	require.NoError(t, err)
	for _, a := range list {
		assert.LessOrEqual(t, len([]rune(a.Title)), 500)
		assert.LessOrEqual(t, len([]rune(a.Excerpt)), 1000)
	}
}

// failingStore fails inserts with a non-duplicate error.
type failingStore struct {
	storage.Store
}

func (failingStore) InsertArticle(context.Context, types.Candidate) (types.Article, error) {
	return types.Article{}, errors.New("disk full")
}

func TestIngestPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	store := failingStore{Store: storage.NewMemoryStore(testLogger)}
	ing := newTestIngestor(store, 20, 200)

	added, err := ing.Ingest(ctx, candidates(1, 2))
	require.Error(t, err)
	assert.Zero(t, added)
	assert.Equal(t, types.KindPersistence, types.KindOf(err))
	assert.Contains(t, err.Error(), "disk full")
}

// racingStore reports a duplicate on insert, as when another writer stored
// the URL between lookup and insert.
type racingStore struct {
	storage.Store
}

func (racingStore) InsertArticle(context.Context, types.Candidate) (types.Article, error) {
	return types.Article{}, &types.PersistenceError{Backend: "race", Op: "insert article", Err: types.ErrDuplicate}
}

func TestIngestConcurrentDuplicateIsSkipped(t *testing.T) {
	ctx := context.Background()
	ing := newTestIngestor(racingStore{Store: storage.NewMemoryStore(testLogger)}, 20, 200)

	added, err := ing.Ingest(ctx, candidates(1, 2))
	require.NoError(t, err)
	assert.Zero(t, added)
}
