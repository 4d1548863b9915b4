package domain

import "time"

// LogLevel classifies activity log entries shown to operators.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelSuccess LogLevel = "success"
	LevelError   LogLevel = "error"
)

// LogEntry is one line of the agent activity log.
type LogEntry struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
	Level   LogLevel  `json:"type"`
}
