// Package importer runs the single-flight background job that fetches
// audio into the track library.
package importer

import "time"

// Status is the lifecycle state of an import job.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusDone
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusRunning:
		return "RUNNING"
	case StatusDone:
		return "DONE"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Finished reports whether the job ended and awaits acknowledgement.
func (s Status) Finished() bool {
	return s == StatusDone || s == StatusFailed
}

// Job is a read-only snapshot of the current import.
type Job struct {
	ID         string
	SourceURL  string
	Status     Status
	Message    string
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed returns how long the job has been (or was) running.
func (j Job) Elapsed(now time.Time) time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	if !j.FinishedAt.IsZero() {
		return j.FinishedAt.Sub(j.StartedAt)
	}
	return now.Sub(j.StartedAt)
}
