package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Cron is the repeating timer the Scheduler installs its firing on.
// *cron.Cron satisfies it.
type Cron interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Remove(id cron.EntryID)
	Entry(id cron.EntryID) cron.Entry
	Start()
	Stop() context.Context
}

// NewCronParser accepts standard five-field expressions and descriptors
// such as "@every 90m".
func NewCronParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// NewCron creates a cron runner that recovers panicking jobs and logs
// through logger.
func NewCron(logger *slog.Logger) *cron.Cron {
	l := cronLogger{logger: logger.With("component", "cron")}
	return cron.New(
		cron.WithParser(NewCronParser()),
		cron.WithChain(cron.Recover(l)),
		cron.WithLogger(l),
	)
}

// CronSpec returns the firing expression for an interval in minutes.
// Intervals that do not fit the minute field use a fixed-delay descriptor.
func CronSpec(minutes int) string {
	if minutes <= 0 {
		minutes = 15
	}
	if minutes < 60 {
		return fmt.Sprintf("*/%d * * * *", minutes)
	}
	return fmt.Sprintf("@every %dm", minutes)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
