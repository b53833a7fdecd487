// Package engine drives the scrape loop: a cron-fired scheduler that runs
// at most one fetch, extract and ingest cycle at a time.
package engine

import (
	"context"
	"time"

	"github.com/IshaanNene/newsrelay/internal/extractor"
	"github.com/IshaanNene/newsrelay/internal/types"
)

// State represents the scheduler's run state.
type State int32

const (
	StateIdle    State = 0
	StateRunning State = 1
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// RunStatus is the outcome of one RunScrapeTask call.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
	RunSkipped RunStatus = "skipped"
)

// RunResult describes one scrape run.
type RunResult struct {
	RunID     string          `json:"run_id,omitempty"`
	Status    RunStatus       `json:"status"`
	Found     int             `json:"found"`
	Added     int             `json:"added"`
	Strategy  string          `json:"strategy,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Error     string          `json:"error,omitempty"`
	ErrorKind types.ErrorKind `json:"error_kind,omitempty"`
}

// Health is the overall status derived from recent log entries.
type Health string

const (
	HealthHealthy Health = "healthy"
	HealthError   Health = "error"
	HealthRunning Health = "running"
)

// DeriveHealth reports HealthError when error entries outnumber success and
// info entries among logs, else HealthHealthy. Warnings count for neither.
func DeriveHealth(logs []types.LogEntry) Health {
	var errs, ok int
	for _, l := range logs {
		switch l.Level {
		case types.LevelError:
			errs++
		case types.LevelSuccess, types.LevelInfo:
			ok++
		}
	}
	if errs > ok {
		return HealthError
	}
	return HealthHealthy
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	State           string     `json:"state"`
	Health          Health     `json:"health"`
	Scheduled       bool       `json:"scheduled"`
	IntervalMinutes int        `json:"interval_minutes"`
	Spec            string     `json:"spec"`
	NextRun         *time.Time `json:"next_run,omitempty"`
	LastRun         *RunResult `json:"last_run,omitempty"`
	ArticleCount    int        `json:"article_count"`
}

// Extractor turns a fetched listing into candidates.
type Extractor interface {
	Extract(body []byte, baseURL string) (*extractor.Result, error)
}

// Ingestor persists candidates and returns how many were new. TrimLogs
// applies log retention and is called once per run.
type Ingestor interface {
	Ingest(ctx context.Context, candidates []types.Candidate) (int, error)
	TrimLogs(ctx context.Context) error
}
