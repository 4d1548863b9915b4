package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DispatchOutcome records one delivery attempt.
type DispatchOutcome struct {
	Article     Article `json:"article"`
	Success     bool    `json:"success"`
	ErrorDetail string  `json:"error,omitempty"`
}

// RunReport aggregates the outcomes of one dispatch.
type RunReport struct {
	Outcomes       []DispatchOutcome `json:"outcomes"`
	OverallSuccess bool              `json:"success"`
	Summary        string            `json:"message"`
}

// Delivered counts successful outcomes.
func (r RunReport) Delivered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// Failed counts failed outcomes.
func (r RunReport) Failed() int {
	return len(r.Outcomes) - r.Delivered()
}

// Trigger identifies what caused a run.
type Trigger string

const (
	TriggerStart  Trigger = "start"
	TriggerTimer  Trigger = "timer"
	TriggerManual Trigger = "manual"
)

// RunResult is the record of one fetch, filter and dispatch cycle.
type RunResult struct {
	ID         uuid.UUID
	Trigger    Trigger
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Kept       int
	Report     *RunReport
	Err        error
}

// Succeeded reports whether the run neither failed nor had a delivery failure.
func (r RunResult) Succeeded() bool {
	if r.Err != nil {
		return false
	}
	return r.Report == nil || r.Report.OverallSuccess
}

// MarshalJSON renders Err as a string.
func (r RunResult) MarshalJSON() ([]byte, error) {
	type view struct {
		ID         uuid.UUID  `json:"id"`
		Trigger    Trigger    `json:"trigger"`
		StartedAt  time.Time  `json:"startedAt"`
		FinishedAt time.Time  `json:"finishedAt"`
		Fetched    int        `json:"fetched"`
		Kept       int        `json:"kept"`
		Report     *RunReport `json:"report,omitempty"`
		Error      string     `json:"error,omitempty"`
	}
	v := view{
		ID:         r.ID,
		Trigger:    r.Trigger,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Fetched:    r.Fetched,
		Kept:       r.Kept,
		Report:     r.Report,
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return json.Marshal(v)
}
