// Package session provides the session manager that drives one focus
// cycle from the main loop.
package session

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/app/bgm"
	"github.com/osa030/focusbox/internal/app/importer"
	"github.com/osa030/focusbox/internal/app/playback"
	"github.com/osa030/focusbox/internal/app/presence"
	"github.com/osa030/focusbox/internal/app/session/state"
	"github.com/osa030/focusbox/internal/domain/cycle"
	"github.com/osa030/focusbox/internal/domain/run"
	"github.com/osa030/focusbox/internal/domain/status"
	"github.com/osa030/focusbox/internal/domain/track"
	"github.com/osa030/focusbox/internal/infra/config"
)

var (
	ErrSessionRunning    = errors.New("session is already running")
	ErrSessionNotRunning = errors.New("session is not running")
	ErrNoImporter        = errors.New("import is not available")
)

const historyTimeout = 2 * time.Second

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, r *run.Run) error
}

// Deps are the collaborators of a Manager. Any of Importer, Presence and
// History may be nil.
type Deps struct {
	Clock    clockwork.Clock
	Player   *playback.Controller
	Library  *bgm.Library
	Importer *importer.Task
	Presence *presence.Sync
	History  Recorder
}

// Step reports what happened during one main loop iteration.
type Step struct {
	Ticked     bool
	Transition state.Transition
	Import     importer.Job // Snapshot polled this iteration
}

// View is everything the terminal surface needs to render.
type View struct {
	Session    state.Snapshot
	Cycle      cycle.Config
	Audio      playback.Snapshot
	Import     importer.Job
	Presence   status.Presence
	BreakLen   int // Break seconds for the configured work length
	Activities []string
	Activity   int
	Tracks     []track.Track
	Track      int
}

// Manager coordinates the clock, audio, import, presence and history.
// Every method is called from the main loop only; the import task is
// the sole concurrent collaborator and is accessed through its own
// synchronized snapshot.
type Manager struct {
	wall  clockwork.Clock
	clock *state.Clock
	gate  *state.Gate

	player   *playback.Controller
	library  *bgm.Library
	importer *importer.Task
	presence *presence.Sync
	history  Recorder

	activities  []string
	activityIdx int
	trackIdx    int

	current *run.Run
}

// NewManager creates a session manager.
func NewManager(cfg *config.Config, deps Deps) *Manager {
	wall := deps.Clock
	if wall == nil {
		wall = clockwork.NewRealClock()
	}
	activities := cfg.Activities
	if len(activities) == 0 {
		activities = config.DefaultActivities
	}
	player := deps.Player
	if player == nil {
		player = playback.NewController(nil, cfg.Audio.Volume)
	}
	library := deps.Library
	if library == nil {
		library = bgm.NewLibrary(cfg.Library.Dir)
	}

	m := &Manager{
		wall:       wall,
		clock:      state.NewClock(cycle.New(activities[0], cfg.Timer.WorkMinutes, cfg.Timer.SessionCount)),
		gate:       state.NewGate(wall, cfg.TickInterval()),
		player:     player,
		library:    library,
		importer:   deps.Importer,
		presence:   deps.Presence,
		history:    deps.History,
		activities: append([]string(nil), activities...),
	}
	return m
}

// Activities returns the selectable activity labels.
func (m *Manager) Activities() []string {
	return m.activities
}

// SelectActivity picks an activity by index. Ignored while running.
func (m *Manager) SelectActivity(i int) {
	if i < 0 || i >= len(m.activities) {
		return
	}
	cfg := m.clock.Config()
	cfg.Activity = m.activities[i]
	if m.clock.Configure(cfg) {
		m.activityIdx = i
	}
}

// AdjustWorkMinutes shifts the work length. Ignored while running.
func (m *Manager) AdjustWorkMinutes(delta int) cycle.Config {
	m.clock.Configure(m.clock.Config().WithWorkMinutes(delta))
	return m.clock.Config()
}

// AdjustSessionCount shifts the session count. Ignored while running.
func (m *Manager) AdjustSessionCount(delta int) cycle.Config {
	m.clock.Configure(m.clock.Config().WithSessionCount(delta))
	return m.clock.Config()
}

// EnterTrackSelection rescans the library and keeps the current
// selection if the track still exists.
func (m *Manager) EnterTrackSelection() []track.Track {
	selected := m.library.At(m.trackIdx).ID
	tracks := m.library.Scan()
	m.trackIdx = m.library.IndexOf(selected)
	return tracks
}

// SelectTrack picks a library entry by index, wrapping around.
// While a cycle runs the new track starts playing right away.
func (m *Manager) SelectTrack(i int) track.Track {
	n := m.library.Len()
	m.trackIdx = ((i % n) + n) % n
	t := m.library.At(m.trackIdx)
	if m.clock.Phase() != state.PhaseIdle {
		m.player.Play(t)
	}
	return t
}

// SelectedTrack returns the chosen background track.
func (m *Manager) SelectedTrack() track.Track {
	return m.library.At(m.trackIdx)
}

// AdjustVolume shifts the playback volume.
func (m *Manager) AdjustVolume(delta float64) float64 {
	return m.player.AdjustVolume(delta)
}

// Start begins the configured cycle and the selected background track.
func (m *Manager) Start() error {
	t := m.clock.Start()
	if !t.Valid {
		return ErrSessionRunning
	}
	m.gate.Reset()

	cfg := m.clock.Config()
	m.current = &run.Run{
		Activity:     cfg.Activity,
		WorkMinutes:  cfg.WorkMinutes,
		SessionCount: cfg.SessionCount,
		StartedAt:    m.wall.Now(),
	}

	m.player.SetPaused(false)
	m.player.Play(m.SelectedTrack())
	m.publish()

	zlog.Info().Msgf("session started: activity=%s work=%dm sessions=%d track=%s",
		cfg.Activity, cfg.WorkMinutes, cfg.SessionCount, m.SelectedTrack().DisplayName())
	return nil
}

// TogglePause pauses or resumes the clock and the audio together.
func (m *Manager) TogglePause() error {
	if m.clock.Phase() == state.PhaseIdle {
		return ErrSessionNotRunning
	}
	paused := m.clock.TogglePause()
	m.player.SetPaused(paused)
	if !paused {
		m.player.Resume()
	}
	m.publish()
	zlog.Debug().Msgf("session paused=%t audio=%s", paused, m.player.GetState())
	return nil
}

// Stop aborts the running cycle, stops audio and records the run.
func (m *Manager) Stop() error {
	t := m.clock.Stop()
	if !t.Valid {
		return ErrSessionNotRunning
	}
	m.player.Stop()
	m.finishRun(false)
	m.publish()
	zlog.Info().Msg("session stopped")
	return nil
}

// Step runs one main loop iteration: on the gate it ticks the clock and
// samples presence; the import task is polled every time.
func (m *Manager) Step() Step {
	var s Step
	if m.importer != nil {
		s.Import = m.importer.Poll()
	}
	if !m.gate.Ready() {
		return s
	}

	s.Ticked = true
	s.Transition = m.clock.Tick()
	if s.Transition.Valid {
		m.onTransition(s.Transition)
	}
	m.publish()
	return s
}

func (m *Manager) onTransition(t state.Transition) {
	if t.From == state.PhaseWorking && m.current != nil {
		m.current.SessionsCompleted++
	}

	switch {
	case t.Completed():
		m.player.Stop()
		m.finishRun(true)
		zlog.Info().Msg("session completed")
	default:
		m.player.SetPaused(m.clock.Paused())
		zlog.Info().Msgf("phase changed: %s -> %s", t.From, t.To)
	}
}

func (m *Manager) finishRun(completed bool) {
	if m.current == nil {
		return
	}
	r := m.current
	m.current = nil
	r.Completed = completed
	r.EndedAt = m.wall.Now()

	if m.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if err := m.history.Record(ctx, r); err != nil {
		zlog.Warn().Msgf("failed to record run: %v", err)
	}
}

func (m *Manager) publish() {
	if m.presence == nil {
		return
	}
	var startedAt time.Time
	if m.current != nil {
		startedAt = m.current.StartedAt
	}
	m.presence.Update(m.clock.Config(), m.clock.Snapshot(), startedAt)
}

// SubmitImport starts a background import of url.
func (m *Manager) SubmitImport(url string) error {
	if m.importer == nil {
		return ErrNoImporter
	}
	if err := m.library.EnsureDir(); err != nil {
		return err
	}
	_, err := m.importer.Submit(url)
	return err
}

// AcknowledgeImport dismisses a finished import. After a successful
// import the library is rescanned and the new track selected; while a
// cycle runs it starts playing like any other track change.
func (m *Manager) AcknowledgeImport() (importer.Job, bool) {
	if m.importer == nil {
		return importer.Job{}, false
	}
	job, ok := m.importer.Acknowledge()
	if !ok {
		return job, false
	}
	if job.Status == importer.StatusDone {
		m.EnterTrackSelection()
		if job.OutputPath != "" {
			if i := m.library.IndexOf(track.FromPath(job.OutputPath).ID); i > 0 {
				m.SelectTrack(i)
			}
		}
	}
	return job, true
}

// View returns the state for rendering.
func (m *Manager) View() View {
	v := View{
		Session:    m.clock.Snapshot(),
		Cycle:      m.clock.Config(),
		Audio:      m.player.Snapshot(),
		BreakLen:   m.clock.Config().BreakSeconds(),
		Activities: m.activities,
		Activity:   m.activityIdx,
		Tracks:     m.library.Tracks(),
		Track:      m.trackIdx,
	}
	if m.importer != nil {
		v.Import = m.importer.Poll()
	}
	if m.presence != nil {
		v.Presence = m.presence.Last()
	}
	return v
}

// Close stops everything on exit. An unfinished run is recorded as
// stopped and the presence is cleared.
func (m *Manager) Close() {
	if m.clock.Phase() != state.PhaseIdle {
		m.clock.Stop()
		m.finishRun(false)
	}
	m.player.Close()
	if m.presence != nil {
		emitted, dropped := m.presence.Stats()
		zlog.Debug().Msgf("presence updates: emitted=%d dropped=%d", emitted, dropped)
		m.presence.Clear()
	}
}
