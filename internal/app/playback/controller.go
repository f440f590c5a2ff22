package playback

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/domain/track"
)

// Errors
var (
	ErrNoOutput = errors.New("no audio output available")
)

// Handle is a live looping source opened on an Output.
type Handle interface {
	SetVolume(v float64)
	SetPaused(paused bool)
	Close() error
}

// Output opens tracks on the audio device.
type Output interface {
	Open(path string, volume float64, paused bool) (Handle, error)
	Close() error
}

// Snapshot is a read-only copy of the audio state.
type Snapshot struct {
	Track   track.Track // Selected track (zero value means None)
	Volume  float64
	Playing bool // A resource is open
	Paused  bool
}

// Controller owns at most one playback resource.
// Open failures are swallowed: background music never blocks the timer.
// The controller is driven from the main loop and is not safe for
// concurrent use.
type Controller struct {
	output Output

	handle   Handle
	selected track.Track
	volume   float64
	paused   bool
}

// NewController creates a controller. A nil output makes every Play a no-op.
func NewController(output Output, volume float64) *Controller {
	return &Controller{
		output: output,
		volume: ClampVolume(volume),
		paused: true,
	}
}

// Play releases the current resource and loops t at the current volume,
// applying the mirrored pause flag right away. Playing the None track
// stops playback.
func (c *Controller) Play(t track.Track) {
	c.release()
	c.selected = t

	if t.IsNone() {
		return
	}
	if c.output == nil {
		zlog.Debug().Msgf("playback: %v, skipping track=%s", ErrNoOutput, t.ID)
		return
	}

	h, err := c.output.Open(t.Path, c.volume, c.paused)
	if err != nil {
		zlog.Debug().Err(err).Msgf("playback: failed to open track=%s", t.ID)
		return
	}
	c.handle = h
	zlog.Debug().Msgf("playback: looping track=%s volume=%.2f paused=%v", t.ID, c.volume, c.paused)
}

// SetVolume clamps v to [0,1] and applies it to the live resource.
func (c *Controller) SetVolume(v float64) float64 {
	c.volume = ClampVolume(v)
	if c.handle != nil {
		c.handle.SetVolume(c.volume)
	}
	return c.volume
}

// AdjustVolume shifts the volume by delta.
func (c *Controller) AdjustVolume(delta float64) float64 {
	return c.SetVolume(c.volume + delta)
}

// SetPaused mirrors the session pause flag onto the live resource.
func (c *Controller) SetPaused(paused bool) {
	c.paused = paused
	if c.handle != nil {
		c.handle.SetPaused(paused)
	}
}

// Stop releases the resource unconditionally.
// The selected track is kept so a later Resume can reopen it.
func (c *Controller) Stop() {
	c.release()
}

// Resume reopens the selected track if nothing is playing.
func (c *Controller) Resume() {
	if c.handle == nil && !c.selected.IsNone() {
		c.Play(c.selected)
	}
}

// Close releases the resource and shuts the output down.
func (c *Controller) Close() {
	c.release()
	if c.output != nil {
		if err := c.output.Close(); err != nil {
			zlog.Debug().Err(err).Msg("playback: failed to close output")
		}
	}
}

// GetState returns the current playback state.
func (c *Controller) GetState() State {
	switch {
	case c.handle == nil:
		return StateIdle
	case c.paused:
		return StatePaused
	default:
		return StatePlaying
	}
}

// Snapshot returns the current audio state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Track:   c.selected,
		Volume:  c.volume,
		Playing: c.handle != nil,
		Paused:  c.paused,
	}
}

func (c *Controller) release() {
	if c.handle == nil {
		return
	}
	if err := c.handle.Close(); err != nil {
		zlog.Debug().Err(err).Msgf("playback: failed to release track=%s", c.selected.ID)
	}
	c.handle = nil
}

// ClampVolume clamps v to [0,1].
func ClampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
