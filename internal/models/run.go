package models

import "time"

// RunStatus is the outcome of one digest cycle.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunEmpty     RunStatus = "empty"
	RunFailed    RunStatus = "failed"
)

// Run is an operational log entry for one digest cycle. It records counts
// only, never the recommendations themselves.
type Run struct {
	ID         string
	Variant    string
	Status     RunStatus
	Events     int
	Results    int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}
