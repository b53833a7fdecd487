package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/IshaanNene/newsrelay/internal/config"
	"github.com/IshaanNene/newsrelay/internal/extractor"
	"github.com/IshaanNene/newsrelay/internal/fetcher"
	"github.com/IshaanNene/newsrelay/internal/observability"
	"github.com/IshaanNene/newsrelay/internal/settings"
	"github.com/IshaanNene/newsrelay/internal/storage"
	"github.com/IshaanNene/newsrelay/internal/types"
)

// Deps are the collaborators a Scheduler drives.
type Deps struct {
	Store     storage.Store
	Fetcher   fetcher.Fetcher
	Extractor Extractor
	Ingestor  Ingestor
	Settings  *settings.Resolver
	Journal   *storage.Journal
	Metrics   *observability.Metrics

	// Cron defaults to NewCron.
	Cron Cron
	// Now defaults to time.Now.
	Now func() time.Time
}

// Scheduler owns the repeating scrape timer and guarantees that at most one
// scrape run is in flight. Timer firings and manual triggers that arrive
// during a run are skipped, never queued.
type Scheduler struct {
	cfg  config.ScrapeConfig
	deps Deps

	state   atomic.Int32
	started atomic.Bool

	// mu guards the timer entry and the run context; it is never held
	// while a scrape runs.
	mu       sync.Mutex
	entryID  cron.EntryID
	hasEntry bool
	interval int
	spec     string
	runCtx   context.Context
	cancel   context.CancelFunc

	lastMu  sync.RWMutex
	lastRun *RunResult

	logger *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(cfg config.ScrapeConfig, deps Deps, logger *slog.Logger) *Scheduler {
	if deps.Cron == nil {
		deps.Cron = NewCron(logger)
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics(logger)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Scheduler{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "scheduler"),
	}
}

// Start runs one scrape immediately (when configured to), installs the
// repeating timer and starts it. Runs fired by the timer use a context
// derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.runCtx, s.cancel = runCtx, cancel
	s.mu.Unlock()

	s.deps.Journal.Info(ctx, "scheduler starting")

	if s.cfg.RunOnStart {
		s.RunScrapeTask(runCtx)
	}

	minutes, err := s.install(ctx)
	if err != nil {
		s.started.Store(false)
		cancel()
		return err
	}
	s.deps.Cron.Start()

	s.deps.Journal.Info(ctx, fmt.Sprintf("scheduler started: every %d minutes", minutes))
	return nil
}

// Stop removes the timer and stops the cron runner. The returned context
// is done once any timer-fired run has returned. Stop is idempotent.
func (s *Scheduler) Stop() context.Context {
	if !s.started.CompareAndSwap(true, false) {
		done, cancel := context.WithCancel(context.Background())
		cancel()
		return done
	}

	s.mu.Lock()
	if s.hasEntry {
		s.deps.Cron.Remove(s.entryID)
		s.hasEntry = false
	}
	cancel := s.cancel
	s.mu.Unlock()

	done := s.deps.Cron.Stop()
	if cancel != nil {
		cancel()
	}
	s.logger.Info("scheduler stopped")
	return done
}

// UpdateSchedule replaces the timer using the current updateInterval
// setting. It does not wait for or cancel a run in progress.
func (s *Scheduler) UpdateSchedule(ctx context.Context) error {
	minutes, err := s.install(ctx)
	if err != nil {
		return err
	}
	s.deps.Metrics.Reschedules.Inc()
	s.deps.Journal.Info(ctx, fmt.Sprintf("schedule updated: every %d minutes", minutes))
	return nil
}

// install swaps the timer entry for one built from the interval setting.
func (s *Scheduler) install(ctx context.Context) (int, error) {
	minutes := s.deps.Settings.UpdateInterval(ctx)
	spec := CronSpec(minutes)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasEntry {
		s.deps.Cron.Remove(s.entryID)
		s.hasEntry = false
	}

	id, err := s.deps.Cron.AddFunc(spec, s.fire)
	if err != nil {
		return 0, fmt.Errorf("install schedule %q: %w", spec, err)
	}
	s.entryID, s.hasEntry = id, true
	s.interval, s.spec = minutes, spec

	s.logger.Debug("timer installed", "spec", spec, "interval_minutes", minutes)
	return minutes, nil
}

// fire is the timer callback.
func (s *Scheduler) fire() {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	s.RunScrapeTask(ctx)
}

// RunScrapeTask performs one fetch, extract and ingest cycle. It never
// returns an error: a failure is recorded as an error entry for the failing
// stage plus the run summary, and reported in the result. Log retention is
// applied after every run, failed or not.
func (s *Scheduler) RunScrapeTask(ctx context.Context) RunResult {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		s.deps.Metrics.RunsSkipped.Inc()
		s.deps.Journal.Warn(ctx, "scrape already in progress, skipping")
		return RunResult{Status: RunSkipped, StartedAt: s.deps.Now()}
	}
	defer s.state.Store(int32(StateIdle))

	s.deps.Metrics.RunsTotal.Inc()
	s.deps.Metrics.RunActive.Set(1)
	defer s.deps.Metrics.RunActive.Set(0)

	res := RunResult{RunID: uuid.NewString(), StartedAt: s.deps.Now()}
	s.deps.Journal.Info(ctx, "starting scrape")

	err := s.scrape(ctx, &res)
	res.Duration = s.deps.Now().Sub(res.StartedAt)
	s.deps.Metrics.RunDuration.Observe(res.Duration.Seconds())

	if err != nil {
		res.Status = RunFailed
		res.Error = err.Error()
		res.ErrorKind = types.KindOf(err)
		s.deps.Metrics.RunsFailed.Inc()
		s.deps.Journal.Error(ctx, fmt.Sprintf("scrape failed: %v", err))
		s.logger.Error("scrape run failed", "run_id", res.RunID, "kind", res.ErrorKind, "error", err)
	} else {
		res.Status = RunSuccess
		s.deps.Metrics.RunsSuccess.Inc()
		s.deps.Journal.Success(ctx, fmt.Sprintf("scrape completed: %d new articles", res.Added))
		s.logger.Info("scrape run complete",
			"run_id", res.RunID,
			"found", res.Found,
			"added", res.Added,
			"strategy", res.Strategy,
			"duration", res.Duration,
		)
	}

	// the caller may already be gone; retention still applies
	if err := s.deps.Ingestor.TrimLogs(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("log trim failed", "run_id", res.RunID, "error", err)
	}

	s.lastMu.Lock()
	last := res
	s.lastRun = &last
	s.lastMu.Unlock()

	return res
}

// scrape runs the pipeline stages, turning a panic into an error. Each
// failing stage records its own error entry.
func (s *Scheduler) scrape(ctx context.Context, res *RunResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scrape panicked: %v", r)
			s.deps.Journal.Error(ctx, fmt.Sprintf("scrape aborted: %v", r))
		}
	}()

	source := s.deps.Settings.SourceURL(ctx)
	req, err := types.NewRequest(source)
	if err != nil {
		s.deps.Journal.Error(ctx, fmt.Sprintf("fetch failed: %v", err))
		return &types.FetchError{URL: source, Err: err}
	}
	req.RunID = res.RunID

	s.deps.Metrics.FetchesTotal.Inc()
	resp, err := s.deps.Fetcher.Fetch(ctx, req)
	if err != nil {
		s.deps.Metrics.FetchErrors.Inc()
		s.deps.Journal.Error(ctx, fmt.Sprintf("fetch failed: %v", err))
		return err
	}
	s.deps.Metrics.BytesDownloaded.Add(float64(len(resp.Body)))

	baseURL := resp.FinalURL
	if baseURL == "" {
		baseURL = source
	}
	extracted, err := s.deps.Extractor.Extract(resp.Body, baseURL)
	if err != nil {
		s.deps.Journal.Error(ctx, fmt.Sprintf("extraction failed: %v", err))
		return &types.ExtractionError{Index: -1, Err: err}
	}
	res.Found = len(extracted.Candidates)
	res.Strategy = extracted.Strategy
	s.deps.Metrics.CandidatesFound.Add(float64(len(extracted.Candidates)))
	s.deps.Metrics.CandidatesRejected.Add(float64(extracted.Rejected))
	s.deps.Metrics.ExtractionFailures.Add(float64(len(extracted.Failures)))
	if extracted.Strategy == extractor.FallbackStrategy {
		s.deps.Metrics.FallbackRuns.Inc()
	}

	added, err := s.deps.Ingestor.Ingest(ctx, extracted.Candidates)
	res.Added = added
	s.deps.Metrics.ArticlesAdded.Add(float64(added))
	if err != nil {
		s.deps.Journal.Error(ctx, fmt.Sprintf("ingest failed: %v", err))
		return err
	}
	return nil
}

// State returns the current run state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// LastRun returns the most recent completed run, if any.
func (s *Scheduler) LastRun() (RunResult, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.lastRun == nil {
		return RunResult{}, false
	}
	return *s.lastRun, true
}

// Status returns a snapshot of the scheduler and store.
func (s *Scheduler) Status(ctx context.Context) (Status, error) {
	st := Status{State: s.State().String()}

	s.mu.Lock()
	st.Scheduled = s.hasEntry && s.started.Load()
	st.IntervalMinutes, st.Spec = s.interval, s.spec
	if s.hasEntry {
		if next := s.deps.Cron.Entry(s.entryID).Next; !next.IsZero() {
			st.NextRun = &next
		}
	}
	s.mu.Unlock()

	if st.Spec == "" {
		st.IntervalMinutes = s.deps.Settings.UpdateInterval(ctx)
		st.Spec = CronSpec(st.IntervalMinutes)
	}

	if last, ok := s.LastRun(); ok {
		st.LastRun = &last
	}

	count, err := s.deps.Store.CountArticles(ctx)
	if err != nil {
		return st, err
	}
	st.ArticleCount = count

	logs, err := s.deps.Store.ListLogs(ctx, max(s.cfg.StatusWindow, 1))
	if err != nil {
		return st, err
	}
	st.Health = DeriveHealth(logs)
	if s.State() == StateRunning {
		st.Health = HealthRunning
	}
	return st, nil
}
