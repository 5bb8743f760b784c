package domain

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// IsTerminal reports whether no further tracking calls are accepted.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

type Run struct {
	ID         string     `json:"id"`
	Experiment string     `json:"experiment"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// NewRun returns a RUNNING run with a fresh id.
func NewRun(experiment string) *Run {
	return &Run{
		ID:         uuid.New().String(),
		Experiment: experiment,
		Status:     RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
}

type Metric struct {
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Step      int64     `json:"step"`
	Timestamp time.Time `json:"timestamp"`
}
