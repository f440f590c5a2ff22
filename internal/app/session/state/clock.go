package state

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/domain/cycle"
)

// Clock is the session phase state machine.
// It advances one second per Tick and is owned by the main loop;
// it is not safe for concurrent use.
type Clock struct {
	config cycle.Config

	phase        Phase
	sessionIndex int
	remaining    int
	paused       bool
}

// NewClock creates an idle clock for the given cycle config.
func NewClock(cfg cycle.Config) *Clock {
	return &Clock{
		config:       cfg,
		phase:        PhaseIdle,
		sessionIndex: 1,
		paused:       true,
	}
}

// Configure replaces the cycle config.
// Returns false and keeps the current config while a cycle is running.
func (c *Clock) Configure(cfg cycle.Config) bool {
	if c.phase != PhaseIdle {
		return false
	}
	c.config = cfg
	return true
}

// Config returns the active cycle config.
func (c *Clock) Config() cycle.Config {
	return c.config
}

// Start begins a new cycle in the first work phase, unpaused.
func (c *Clock) Start() Transition {
	t := c.apply(EventStart)
	if t.Valid {
		c.paused = false
	}
	return t
}

// Tick advances the clock by one second.
// It is a no-op while idle, paused or already at zero. When the
// remaining time reaches zero the phase transition is applied and the
// clock pauses until the user resumes it.
func (c *Clock) Tick() Transition {
	if c.phase == PhaseIdle || c.paused || c.remaining <= 0 {
		return Transition{From: c.phase, To: c.phase}
	}

	c.remaining--
	if c.remaining > 0 {
		return Transition{From: c.phase, To: c.phase}
	}

	t := c.apply(c.expireEvent())
	if t.Valid {
		c.paused = true
	}
	return t
}

// TogglePause flips the pause flag and returns the new value.
// Toggling while idle does nothing.
func (c *Clock) TogglePause() bool {
	if c.phase == PhaseIdle {
		return c.paused
	}
	c.paused = !c.paused
	return c.paused
}

// Stop aborts the running cycle.
func (c *Clock) Stop() Transition {
	t := c.apply(EventStop)
	if t.Valid {
		c.paused = true
	}
	return t
}

// Paused reports the pause flag.
func (c *Clock) Paused() bool {
	return c.paused
}

// Phase returns the current phase.
func (c *Clock) Phase() Phase {
	return c.phase
}

// Snapshot returns a copy of the current state.
func (c *Clock) Snapshot() Snapshot {
	return Snapshot{
		Phase:        c.phase,
		SessionIndex: c.sessionIndex,
		SessionCount: c.config.SessionCount,
		Remaining:    c.remaining,
		PhaseLength:  c.phaseLength(c.phase),
		Paused:       c.paused,
	}
}

// expireEvent picks the event fired when the current phase runs out.
func (c *Clock) expireEvent() Event {
	if c.phase == PhaseBreak {
		return EventBreakDone
	}
	if c.sessionIndex >= c.config.SessionCount {
		return EventLastWorkDone
	}
	return EventWorkDone
}

// apply looks up the transition table and runs the entry action of the
// target phase.
func (c *Clock) apply(e Event) Transition {
	from := c.phase
	to, ok := Next(from, e)
	if !ok {
		return Transition{From: from, To: from, Event: e}
	}

	switch {
	case e == EventStart:
		c.sessionIndex = 1
		c.remaining = c.config.WorkSeconds()
	case to == PhaseBreak:
		c.remaining = c.config.BreakSeconds()
	case to == PhaseWorking:
		c.sessionIndex++
		c.remaining = c.config.WorkSeconds()
	case to == PhaseIdle:
		c.remaining = 0
	}
	c.phase = to

	zlog.Debug().Msgf("clock: %s -> %s on %s (session %d/%d, remaining %ds)",
		from, to, e, c.sessionIndex, c.config.SessionCount, c.remaining)

	return Transition{From: from, To: to, Event: e, Valid: true}
}

func (c *Clock) phaseLength(p Phase) int {
	switch p {
	case PhaseWorking:
		return c.config.WorkSeconds()
	case PhaseBreak:
		return c.config.BreakSeconds()
	default:
		return 0
	}
}
