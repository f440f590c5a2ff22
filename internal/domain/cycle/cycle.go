// Package cycle provides the work/break cycle configuration entity.
package cycle

// Bounds for user-editable values.
const (
	MinWorkMinutes  = 1
	MaxWorkMinutes  = 60
	MinSessionCount = 1
	MaxSessionCount = 12

	// LongSessionMinutes is the work length from which breaks get longer.
	LongSessionMinutes = 40

	shortBreakSeconds = 5 * 60
	longBreakSeconds  = 10 * 60
)

// Config represents a user-chosen cycle.
// It is set during setup and never mutated while a run is active.
type Config struct {
	Activity     string // Activity label shown in presence
	WorkMinutes  int    // Length of a work phase in minutes
	SessionCount int    // Number of work phases in the cycle
}

// New creates a cycle config with clamped values.
func New(activity string, workMinutes, sessionCount int) Config {
	return Config{
		Activity:     activity,
		WorkMinutes:  ClampWorkMinutes(workMinutes),
		SessionCount: ClampSessionCount(sessionCount),
	}
}

// WorkSeconds returns the length of a work phase in seconds.
func (c Config) WorkSeconds() int {
	return c.WorkMinutes * 60
}

// BreakSeconds returns the length of a break phase in seconds.
func (c Config) BreakSeconds() int {
	return BreakDuration(c.WorkMinutes)
}

// WithWorkMinutes returns a copy with work minutes shifted by delta and clamped.
func (c Config) WithWorkMinutes(delta int) Config {
	c.WorkMinutes = ClampWorkMinutes(c.WorkMinutes + delta)
	return c
}

// WithSessionCount returns a copy with session count shifted by delta and clamped.
func (c Config) WithSessionCount(delta int) Config {
	c.SessionCount = ClampSessionCount(c.SessionCount + delta)
	return c
}

// BreakDuration returns the break length in seconds for a work length in minutes.
func BreakDuration(workMinutes int) int {
	if workMinutes >= LongSessionMinutes {
		return longBreakSeconds
	}
	return shortBreakSeconds
}

// ClampWorkMinutes clamps m into [MinWorkMinutes, MaxWorkMinutes].
func ClampWorkMinutes(m int) int {
	return clamp(m, MinWorkMinutes, MaxWorkMinutes)
}

// ClampSessionCount clamps n into [MinSessionCount, MaxSessionCount].
func ClampSessionCount(n int) int {
	return clamp(n, MinSessionCount, MaxSessionCount)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
