// Package presence samples the session state into presence payloads.
package presence

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/osa030/focusbox/internal/app/session/state"
	"github.com/osa030/focusbox/internal/domain/cycle"
	"github.com/osa030/focusbox/internal/domain/status"
)

// Presence lines.
const (
	StateSettingUp = "Setting up..."
	StateBreak     = "Taking a break ☕"
	DetailsReady   = "Ready to start"
)

// Broadcaster delivers payloads to external services without blocking.
type Broadcaster interface {
	Broadcast(p status.Presence) bool
	Clear()
}

// Sample builds the payload for the given state. It has no side effects.
// The start timestamp is the beginning of the running cycle; the end
// timestamp is set only while a phase is counting down.
func Sample(cfg cycle.Config, snap state.Snapshot, startedAt, now time.Time) status.Presence {
	if !snap.Running() {
		return status.Presence{
			State:   StateSettingUp,
			Details: DetailsReady,
		}
	}

	p := status.Presence{Start: startedAt}
	switch {
	case snap.Paused:
		p.State = "Paused: " + cfg.Activity
	case snap.Phase == state.PhaseWorking:
		p.State = "Focusing on: " + cfg.Activity
	default:
		p.State = StateBreak
	}
	p.Details = fmt.Sprintf("Session %d/%d (%02d:%02d left)",
		snap.SessionIndex, snap.SessionCount, snap.Remaining/60, snap.Remaining%60)
	if !snap.Paused {
		p.End = now.Add(time.Duration(snap.Remaining) * time.Second)
	}
	return p
}

// Sync emits a sampled payload once per clock tick.
type Sync struct {
	broadcaster Broadcaster
	clock       clockwork.Clock

	last    status.Presence
	emitted int
	dropped int
}

// NewSync creates a presence sync. A nil broadcaster disables emission.
func NewSync(b Broadcaster, clock clockwork.Clock) *Sync {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sync{broadcaster: b, clock: clock}
}

// Update samples the state and emits the result.
func (s *Sync) Update(cfg cycle.Config, snap state.Snapshot, startedAt time.Time) status.Presence {
	p := Sample(cfg, snap, startedAt, s.clock.Now())
	s.Emit(p)
	return p
}

// Emit hands p to the broadcaster. A payload that cannot be sent right
// away is dropped; the next tick carries fresh state anyway.
func (s *Sync) Emit(p status.Presence) {
	s.last = p
	if s.broadcaster == nil {
		return
	}
	if s.broadcaster.Broadcast(p) {
		s.emitted++
	} else {
		s.dropped++
	}
}

// Clear removes the presence on shutdown.
func (s *Sync) Clear() {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Clear()
}

// Last returns the most recently sampled payload.
func (s *Sync) Last() status.Presence {
	return s.last
}

// Stats returns how many payloads were handed off and dropped.
func (s *Sync) Stats() (emitted, dropped int) {
	return s.emitted, s.dropped
}
