package state

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Gate opens at most once per interval of wall-clock time.
// A stalled caller gets a single opening, missed intervals are not
// replayed.
type Gate struct {
	clock    clockwork.Clock
	interval time.Duration
	last     time.Time
}

// NewGate creates a gate whose first opening is one interval from now.
func NewGate(clock clockwork.Clock, interval time.Duration) *Gate {
	if interval <= 0 {
		interval = time.Second
	}
	return &Gate{
		clock:    clock,
		interval: interval,
		last:     clock.Now(),
	}
}

// Ready reports whether the interval has elapsed and, if so, restarts it.
func (g *Gate) Ready() bool {
	now := g.clock.Now()
	if now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	return true
}

// Reset restarts the interval from now.
func (g *Gate) Reset() {
	g.last = g.clock.Now()
}
