package domain

import (
	"time"
)

const (
	// MinIntervalMinutes is the shortest period allowed between scheduled runs.
	MinIntervalMinutes = 5
	// DefaultIntervalMinutes applies when no interval is supplied.
	DefaultIntervalMinutes = 60
)

// AgentConfig carries the credentials and schedule for the agent.
// Tokens are opaque; only their presence is checked.
type AgentConfig struct {
	SourceToken     string   `json:"sourceToken"`
	SinkBotToken    string   `json:"sinkBotToken"`
	SinkChannelID   string   `json:"sinkChannelId"`
	Category        Category `json:"category"`
	IntervalMinutes int      `json:"intervalMinutes"`
}

// Validate checks that every credential needed by a run is present.
func (c AgentConfig) Validate() error {
	var missing []string
	if c.SourceToken == "" {
		missing = append(missing, "sourceToken")
	}
	if c.SinkBotToken == "" {
		missing = append(missing, "sinkBotToken")
	}
	if c.SinkChannelID == "" {
		missing = append(missing, "sinkChannelId")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// Normalize fills the category and interval defaults and clamps the interval.
func (c AgentConfig) Normalize() AgentConfig {
	if c.Category == "" {
		c.Category = DefaultCategory
	}
	if c.IntervalMinutes == 0 {
		c.IntervalMinutes = DefaultIntervalMinutes
	}
	if c.IntervalMinutes < MinIntervalMinutes {
		c.IntervalMinutes = MinIntervalMinutes
	}
	return c
}

// Interval returns the schedule period.
func (c AgentConfig) Interval() time.Duration {
	return time.Duration(c.Normalize().IntervalMinutes) * time.Minute
}

// Target extracts the sink coordinates.
func (c AgentConfig) Target() SinkTarget {
	return SinkTarget{BotToken: c.SinkBotToken, ChatID: c.SinkChannelID}
}

// Redacted hides the tokens so the config can be echoed back to callers.
func (c AgentConfig) Redacted() AgentConfig {
	c.SourceToken = redact(c.SourceToken)
	c.SinkBotToken = redact(c.SinkBotToken)
	return c
}

func redact(token string) string {
	if token == "" {
		return ""
	}
	return "***"
}

// SinkTarget addresses one chat on the messaging sink.
type SinkTarget struct {
	BotToken string
	ChatID   string
}

// AgentState is the scheduler state machine position.
type AgentState string

const (
	StateIdle    AgentState = "idle"
	StateRunning AgentState = "running"
)

// AgentStatus is a point-in-time view of the agent.
type AgentStatus struct {
	State     AgentState  `json:"state"`
	Busy      bool        `json:"busy"`
	Pending   bool        `json:"pending"`
	Config    AgentConfig `json:"config"`
	LastRun   *RunResult  `json:"lastRun,omitempty"`
	NextRunAt *time.Time  `json:"nextRunAt,omitempty"`
}
