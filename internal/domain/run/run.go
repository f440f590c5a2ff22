// Package run provides the Run entity recorded in the session history.
package run

import "time"

// Run is one started cycle, finished or stopped.
type Run struct {
	ID                string // ULID, sortable by start time
	Activity          string
	WorkMinutes       int
	SessionCount      int
	SessionsCompleted int
	Completed         bool // All sessions ran to the end
	StartedAt         time.Time
	EndedAt           time.Time
}

// Duration returns the wall-clock length of the run.
func (r Run) Duration() time.Duration {
	if r.EndedAt.IsZero() || r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// FocusMinutes returns the work time of the completed sessions.
func (r Run) FocusMinutes() int {
	return r.SessionsCompleted * r.WorkMinutes
}

// Outcome returns a short label for listings.
func (r Run) Outcome() string {
	if r.Completed {
		return "completed"
	}
	return "stopped"
}

// Summary aggregates a list of runs.
type Summary struct {
	Runs              int
	CompletedRuns     int
	SessionsCompleted int
	FocusMinutes      int
}

// Summarize aggregates runs.
func Summarize(runs []Run) Summary {
	var s Summary
	for _, r := range runs {
		s.Runs++
		if r.Completed {
			s.CompletedRuns++
		}
		s.SessionsCompleted += r.SessionsCompleted
		s.FocusMinutes += r.FocusMinutes()
	}
	return s
}
