// Package state provides the focus session state machine.
package state

// Phase represents the current activity of a session cycle.
type Phase int

const (
	PhaseIdle    Phase = iota // No cycle is running
	PhaseWorking              // Work phase
	PhaseBreak                // Break phase
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWorking:
		return "working"
	case PhaseBreak:
		return "break"
	default:
		return "unknown"
	}
}

// Event represents an input to the phase transition table.
type Event int

const (
	EventStart        Event = iota // User starts a cycle
	EventWorkDone                  // A work phase ran out with sessions left
	EventLastWorkDone              // The final work phase ran out
	EventBreakDone                 // A break phase ran out
	EventStop                      // User aborts the cycle
)

// String returns the string representation of the event.
func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventWorkDone:
		return "work_done"
	case EventLastWorkDone:
		return "last_work_done"
	case EventBreakDone:
		return "break_done"
	case EventStop:
		return "stop"
	default:
		return "unknown"
	}
}

type transitionKey struct {
	from  Phase
	event Event
}

// transitions is the closed (phase, event) -> phase table.
// Pairs missing from the table are no-ops.
var transitions = map[transitionKey]Phase{
	{PhaseIdle, EventStart}:           PhaseWorking,
	{PhaseWorking, EventWorkDone}:     PhaseBreak,
	{PhaseWorking, EventLastWorkDone}: PhaseIdle,
	{PhaseBreak, EventBreakDone}:      PhaseWorking,
	{PhaseWorking, EventStop}:         PhaseIdle,
	{PhaseBreak, EventStop}:           PhaseIdle,
}

// Next looks up the phase reached from p on event e.
// The second return value is false when the pair is not in the table.
func Next(p Phase, e Event) (Phase, bool) {
	next, ok := transitions[transitionKey{from: p, event: e}]
	return next, ok
}

// Transition describes a phase change.
type Transition struct {
	From  Phase
	To    Phase
	Event Event
	Valid bool // False when nothing changed
}

// Completed returns true if the transition finished the whole cycle.
func (t Transition) Completed() bool {
	return t.Valid && t.Event == EventLastWorkDone
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Phase        Phase
	SessionIndex int
	SessionCount int
	Remaining    int // Seconds left in the current phase
	PhaseLength  int // Total seconds of the current phase
	Paused       bool
}

// Running returns true if a cycle is in progress.
func (s Snapshot) Running() bool {
	return s.Phase != PhaseIdle
}

// Progress returns the elapsed fraction of the current phase in [0,1].
func (s Snapshot) Progress() float64 {
	if s.PhaseLength <= 0 {
		return 0
	}
	p := float64(s.PhaseLength-s.Remaining) / float64(s.PhaseLength)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
