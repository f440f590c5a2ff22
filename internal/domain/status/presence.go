// Package status provides the presence payload shared with external
// presence services.
package status

import "time"

// Presence is what an external service shows about the current session.
type Presence struct {
	State   string    // First line, e.g. "Focusing on: Reading"
	Details string    // Second line, e.g. "Session 1/4 (12:34 left)"
	Start   time.Time // When the current run started (zero if none)
	End     time.Time // When the current phase ends (zero unless counting down)

	SequenceNo uint64 // Assigned by the broadcaster
}

// Counting reports whether the payload carries a countdown.
func (p Presence) Counting() bool {
	return !p.End.IsZero()
}

// Equal compares the visible content, ignoring the sequence number.
func (p Presence) Equal(o Presence) bool {
	return p.State == o.State &&
		p.Details == o.Details &&
		p.Start.Equal(o.Start) &&
		p.End.Equal(o.End)
}
