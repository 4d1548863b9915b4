package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAgentRunning is returned by Start when the agent is already running.
var ErrAgentRunning = errors.New("agent already running")

// ReasonTransport marks failures below the provider protocol (network, timeout, malformed body).
const ReasonTransport = "transport"

// ConfigError reports missing credentials before a run starts.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: missing %s", strings.Join(e.Missing, ", "))
}

// SourceError reports a failed fetch; it aborts the current run only.
type SourceError struct {
	Reason string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source: %s: %v", e.Reason, e.Err)
	}
	return "source: " + e.Reason
}

func (e *SourceError) Unwrap() error { return e.Err }

// SinkError reports a failed delivery of a single article.
type SinkError struct {
	Reason string
	Err    error
}

func (e *SinkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sink: %s: %v", e.Reason, e.Err)
	}
	return "sink: " + e.Reason
}

func (e *SinkError) Unwrap() error { return e.Err }

// Detail returns the text recorded on a failed outcome.
func (e *SinkError) Detail() string {
	if e.Reason == ReasonTransport && e.Err != nil {
		return e.Err.Error()
	}
	return e.Reason
}
