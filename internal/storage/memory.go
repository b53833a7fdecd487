package storage

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/IshaanNene/newsrelay/internal/types"
)

// MemoryStore keeps all records in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	articles []types.Article // ScrapedAt desc, ID desc
	byURL    map[string]int64
	logs     []types.LogEntry // Timestamp desc, ID desc
	settings map[string]types.Setting

	nextArticleID int64
	nextLogID     int64
	nextSettingID int64

	now    Clock
	logger *slog.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *slog.Logger, opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		byURL:    make(map[string]int64),
		settings: make(map[string]types.Setting),
		now:      o.now,
		logger:   logger.With("component", "memory_storage"),
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) ListArticles(_ context.Context, limit int) ([]types.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return headCopy(s.articles, limit), nil
}

func (s *MemoryStore) CountArticles(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles), nil
}

func (s *MemoryStore) FindArticleByURL(_ context.Context, url string) (types.Article, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byURL[url]
	if !ok {
		return types.Article{}, false, nil
	}
	for _, a := range s.articles {
		if a.ID == id {
			return a, true, nil
		}
	}
	return types.Article{}, false, nil
}

func (s *MemoryStore) InsertArticle(_ context.Context, c types.Candidate) (types.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byURL[c.URL]; exists {
		return types.Article{}, wrapErr(s.Name(), "insert article", types.ErrDuplicate)
	}

	s.nextArticleID++
	a := types.NewArticle(s.nextArticleID, c, s.now())
	s.articles = append(s.articles, a)
	sortArticles(s.articles)
	s.byURL[a.URL] = a.ID
	return a, nil
}

func (s *MemoryStore) TrimArticles(_ context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	if len(s.articles) <= keep {
		return 0, nil
	}
	removed := s.articles[keep:]
	for _, a := range removed {
		delete(s.byURL, a.URL)
	}
	n := len(removed)
	s.articles = append([]types.Article(nil), s.articles[:keep]...)
	s.logger.Debug("articles trimmed", "removed", n, "kept", keep)
	return n, nil
}

func (s *MemoryStore) ListLogs(_ context.Context, limit int) ([]types.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return headCopy(s.logs, limit), nil
}

func (s *MemoryStore) AppendLog(_ context.Context, level types.LogLevel, message string) (types.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLogID++
	entry := types.LogEntry{ID: s.nextLogID, Level: level, Message: message, Timestamp: s.now()}
	s.logs = append(s.logs, entry)
	sort.SliceStable(s.logs, func(i, j int) bool {
		if !s.logs[i].Timestamp.Equal(s.logs[j].Timestamp) {
			return s.logs[i].Timestamp.After(s.logs[j].Timestamp)
		}
		return s.logs[i].ID > s.logs[j].ID
	})
	return entry, nil
}

func (s *MemoryStore) TrimLogs(_ context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	if len(s.logs) <= keep {
		return 0, nil
	}
	n := len(s.logs) - keep
	s.logs = append([]types.LogEntry(nil), s.logs[:keep]...)
	return n, nil
}

func (s *MemoryStore) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[key]
	return st.Value, ok, nil
}

func (s *MemoryStore) UpsertSetting(_ context.Context, key, value string) (types.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.settings[key]
	if !ok {
		s.nextSettingID++
		st = types.Setting{ID: s.nextSettingID, Key: key}
	}
	st.Value = value
	st.UpdatedAt = s.now()
	s.settings[key] = st
	return st, nil
}

func (s *MemoryStore) ListSettings(_ context.Context) ([]types.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Setting, 0, len(s.settings))
	for _, st := range s.settings {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.logger.Info("memory storage closing", "articles", len(s.articles), "logs", len(s.logs))
	return nil
}

func sortArticles(articles []types.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].ScrapedAt.Equal(articles[j].ScrapedAt) {
			return articles[i].ScrapedAt.After(articles[j].ScrapedAt)
		}
		return articles[i].ID > articles[j].ID
	})
}

// headCopy returns a copy of the first limit elements (all when limit <= 0).
func headCopy[T any](src []T, limit int) []T {
	n := len(src)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, n)
	copy(out, src[:n])
	return out
}
