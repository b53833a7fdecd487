package types

import (
	"fmt"
	"time"
)

// LogLevel classifies an operational log entry.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarn    LogLevel = "warn"
	LevelError   LogLevel = "error"
	LevelSuccess LogLevel = "success"
)

// ParseLogLevel validates a level name.
func ParseLogLevel(s string) (LogLevel, error) {
	switch l := LogLevel(s); l {
	case LevelInfo, LevelWarn, LevelError, LevelSuccess:
		return l, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// LogEntry is one entry of the operational log feed shown on the dashboard.
type LogEntry struct {
	ID        int64     `json:"id"        bson:"_id"`
	Level     LogLevel  `json:"level"     bson:"level"`
	Message   string    `json:"message"   bson:"message"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Setting is a runtime key/value setting.
type Setting struct {
	ID        int64     `json:"id"         bson:"id"`
	Key       string    `json:"key"        bson:"_id"`
	Value     string    `json:"value"      bson:"value"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
