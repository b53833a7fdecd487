package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/IshaanNene/newsrelay/internal/config"
	"github.com/IshaanNene/newsrelay/internal/engine"
	"github.com/IshaanNene/newsrelay/internal/feed"
	"github.com/IshaanNene/newsrelay/internal/observability"
	"github.com/IshaanNene/newsrelay/internal/settings"
	"github.com/IshaanNene/newsrelay/internal/storage"
	"github.com/IshaanNene/newsrelay/internal/types"
)

const (
	defaultArticleLimit = 50
	maxArticleLimit     = 500
	defaultLogLimit     = 50
	maxLogLimit         = 200
)

// Scheduler is the part of the engine the API controls.
type Scheduler interface {
	RunScrapeTask(ctx context.Context) engine.RunResult
	UpdateSchedule(ctx context.Context) error
	Status(ctx context.Context) (engine.Status, error)
}

// Deps are the collaborators the routes read from and drive.
type Deps struct {
	Store     storage.Store
	Scheduler Scheduler
	Journal   *storage.Journal
	Metrics   *observability.Metrics
	// Dashboard is served at "/" when set.
	Dashboard http.Handler
}

// Server exposes the JSON API, the RSS feed, metrics and the dashboard.
type Server struct {
	cfg     *config.Config
	deps    Deps
	mux     *http.ServeMux
	srv     *http.Server
	started time.Time
	logger  *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		mux:     http.NewServeMux(),
		started: time.Now(),
		logger:  logger.With("component", "api_server"),
	}

	s.registerRoutes()
	s.srv = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Start binds the listen address and serves in the background. Bind
// errors are returned; later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	s.logger.Info("API server starting", "addr", ln.Addr().String())

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("API server shutting down")
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)

	s.mux.HandleFunc("GET /api/articles", s.handleArticles)
	s.mux.HandleFunc("GET /api/logs", s.handleLogs)

	s.mux.HandleFunc("GET /api/settings", s.handleListSettings)
	s.mux.HandleFunc("PUT /api/settings", s.handleUpdateSetting)

	s.mux.HandleFunc("POST /api/scrape", s.handleScrape)

	s.mux.HandleFunc("GET /rss", s.handleRSS)
	s.mux.HandleFunc("GET /feed.xml", s.handleRSS)

	if s.cfg.Metrics.Enabled && s.deps.Metrics != nil {
		s.mux.Handle("GET "+s.cfg.Metrics.Path, s.deps.Metrics)
	}
	if s.deps.Dashboard != nil {
		s.mux.Handle("GET /{$}", s.deps.Dashboard)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Scheduler.Status(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, st)
}

// serverStats is the body of GET /api/stats.
type serverStats struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Goroutines    int    `json:"goroutines"`
	HeapAlloc     uint64 `json:"heap_alloc_bytes"`
	HeapSys       uint64 `json:"heap_sys_bytes"`
	NumGC         uint32 `json:"num_gc"`
	GoVersion     string `json:"go_version"`
	Version       string `json:"version"`
	Store         string `json:"store"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	uptime := time.Since(s.started)

	s.jsonResponse(w, http.StatusOK, serverStats{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		HeapAlloc:     mem.HeapAlloc,
		HeapSys:       mem.HeapSys,
		NumGC:         mem.NumGC,
		GoVersion:     runtime.Version(),
		Version:       config.Version,
		Store:         s.deps.Store.Name(),
	})
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := s.deps.Store.ListArticles(r.Context(), parseLimit(r, defaultArticleLimit, maxArticleLimit))
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, articles)
}

// handleLogs serves the newest log entries. ?level= narrows them to one
// level, searched within the newest maxLogLimit entries.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, defaultLogLimit, maxLogLimit)
	raw := r.URL.Query().Get("level")
	if raw == "" {
		logs, err := s.deps.Store.ListLogs(r.Context(), limit)
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, logs)
		return
	}

	level, err := types.ParseLogLevel(raw)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}
	logs, err := s.deps.Store.ListLogs(r.Context(), maxLogLimit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	filtered := make([]types.LogEntry, 0, limit)
	for _, entry := range logs {
		if entry.Level != level {
			continue
		}
		filtered = append(filtered, entry)
		if len(filtered) == limit {
			break
		}
	}
	s.jsonResponse(w, http.StatusOK, filtered)
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Store.ListSettings(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, list)
}

func (s *Server) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := settings.Validate(body.Key, body.Value); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	setting, err := s.deps.Store.UpsertSetting(ctx, body.Key, body.Value)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("setting updated", "key", setting.Key, "value", setting.Value)

	if setting.Key == settings.KeyUpdateInterval {
		if err := s.deps.Scheduler.UpdateSchedule(ctx); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, err)
			return
		}
	} else if s.deps.Journal != nil {
		s.deps.Journal.Info(ctx, fmt.Sprintf("setting %s updated", setting.Key))
	}

	s.jsonResponse(w, http.StatusOK, setting)
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	// the run outlives a disconnecting client
	res := s.deps.Scheduler.RunScrapeTask(context.WithoutCancel(r.Context()))

	status := http.StatusOK
	if res.Status == engine.RunSkipped {
		status = http.StatusConflict
	}
	s.jsonResponse(w, status, res)
}

func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	articles, err := s.deps.Store.ListArticles(r.Context(), s.cfg.Feed.Limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", feed.ContentType)
	if err := feed.Write(w, articles, s.cfg.Feed, time.Now()); err != nil {
		s.logger.Error("rss render failed", "error", err)
	}
}

// parseLimit reads ?limit=, falling back to def when absent or invalid and
// capping at max.
func parseLimit(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, max)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.jsonResponse(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
