package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/focusbox/internal/app/bgm"
	"github.com/osa030/focusbox/internal/app/importer"
	"github.com/osa030/focusbox/internal/app/playback"
	"github.com/osa030/focusbox/internal/app/presence"
	"github.com/osa030/focusbox/internal/app/session/state"
	"github.com/osa030/focusbox/internal/domain/run"
	"github.com/osa030/focusbox/internal/domain/status"
	"github.com/osa030/focusbox/internal/infra/config"
	"github.com/osa030/focusbox/internal/infra/converter"
)

type fakeHandle struct {
	path   string
	paused bool
	closed bool
}

func (h *fakeHandle) SetVolume(float64)     {}
func (h *fakeHandle) SetPaused(paused bool) { h.paused = paused }
func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

type fakeOutput struct {
	opened []*fakeHandle
}

func (o *fakeOutput) Open(path string, _ float64, paused bool) (playback.Handle, error) {
	h := &fakeHandle{path: path, paused: paused}
	o.opened = append(o.opened, h)
	return h, nil
}

func (o *fakeOutput) Close() error { return nil }

func (o *fakeOutput) last() *fakeHandle {
	if len(o.opened) == 0 {
		return nil
	}
	return o.opened[len(o.opened)-1]
}

type fakeRecorder struct {
	runs []run.Run
	err  error
}

func (r *fakeRecorder) Record(_ context.Context, rn *run.Run) error {
	r.runs = append(r.runs, *rn)
	return r.err
}

type fakeBroadcaster struct {
	sent    []status.Presence
	cleared int
}

func (b *fakeBroadcaster) Broadcast(p status.Presence) bool {
	b.sent = append(b.sent, p)
	return true
}

func (b *fakeBroadcaster) Clear() { b.cleared++ }

type fileConverter struct {
	mu   sync.Mutex
	name string
	err  error
}

func (c *fileConverter) Convert(_ context.Context, _ string, dir string) (converter.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return converter.Result{}, c.err
	}
	path := filepath.Join(dir, c.name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return converter.Result{}, err
	}
	return converter.Result{Path: path}, nil
}

func (c *fileConverter) Name() string { return "file" }

type fixture struct {
	clock     *clockwork.FakeClock
	output    *fakeOutput
	recorder  *fakeRecorder
	presence  *fakeBroadcaster
	converter *fileConverter
	dir       string
	manager   *Manager
}

func newFixture(t *testing.T, workMinutes, sessions int) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rain.mp3"), []byte("audio"), 0o644))

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Timer.WorkMinutes = workMinutes
	cfg.Timer.SessionCount = sessions
	cfg.Library.Dir = dir

	f := &fixture{
		clock:     clockwork.NewFakeClock(),
		output:    &fakeOutput{},
		recorder:  &fakeRecorder{},
		presence:  &fakeBroadcaster{},
		converter: &fileConverter{name: "lofi.mp3"},
		dir:       dir,
	}
	f.manager = NewManager(cfg, Deps{
		Clock:    f.clock,
		Player:   playback.NewController(f.output, 0.5),
		Library:  bgm.NewLibrary(dir),
		Importer: importer.NewTask(f.converter, dir, f.clock),
		Presence: presence.NewSync(f.presence, f.clock),
		History:  f.recorder,
	})
	return f
}

// advance moves the fake clock one second at a time, stepping after each.
func (f *fixture) advance(seconds int) []state.Transition {
	var out []state.Transition
	for i := 0; i < seconds; i++ {
		f.clock.Advance(time.Second)
		if s := f.manager.Step(); s.Transition.Valid {
			out = append(out, s.Transition)
		}
	}
	return out
}

func TestManager_StepHonoursGate(t *testing.T) {
	f := newFixture(t, 1, 1)
	require.NoError(t, f.manager.Start())

	assert.False(t, f.manager.Step().Ticked)
	f.clock.Advance(500 * time.Millisecond)
	assert.False(t, f.manager.Step().Ticked)
	f.clock.Advance(500 * time.Millisecond)
	assert.True(t, f.manager.Step().Ticked)
	assert.Equal(t, 59, f.manager.View().Session.Remaining)
}

func TestManager_StartTwice(t *testing.T) {
	f := newFixture(t, 1, 1)
	require.NoError(t, f.manager.Start())
	assert.ErrorIs(t, f.manager.Start(), ErrSessionRunning)
}

func TestManager_CompletesCycle(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.manager.EnterTrackSelection()
	f.manager.SelectTrack(1)
	require.NoError(t, f.manager.Start())

	h := f.output.last()
	require.NotNil(t, h)
	assert.False(t, h.paused)

	transitions := f.advance(60)
	require.Len(t, transitions, 1)
	assert.True(t, transitions[0].Completed())

	v := f.manager.View()
	assert.Equal(t, state.PhaseIdle, v.Session.Phase)
	assert.False(t, v.Audio.Playing)
	assert.True(t, h.closed)

	require.Len(t, f.recorder.runs, 1)
	r := f.recorder.runs[0]
	assert.True(t, r.Completed)
	assert.Equal(t, 1, r.SessionsCompleted)
	assert.Equal(t, time.Minute, r.Duration())
	assert.Equal(t, presence.StateSettingUp, v.Presence.State)
}

func TestManager_PhaseChangePausesAudio(t *testing.T) {
	f := newFixture(t, 1, 2)
	f.manager.EnterTrackSelection()
	f.manager.SelectTrack(1)
	require.NoError(t, f.manager.Start())
	h := f.output.last()

	transitions := f.advance(60)
	require.Len(t, transitions, 1)
	assert.Equal(t, state.PhaseBreak, transitions[0].To)
	assert.True(t, h.paused)
	assert.False(t, h.closed)

	// Paused clock does not move.
	f.advance(10)
	v := f.manager.View()
	assert.Equal(t, v.BreakLen, v.Session.Remaining)
	assert.True(t, v.Session.Paused)

	require.NoError(t, f.manager.TogglePause())
	assert.False(t, h.paused)
	f.advance(1)
	assert.Equal(t, v.BreakLen-1, f.manager.View().Session.Remaining)
	assert.Equal(t, presence.StateBreak, f.manager.View().Presence.State)
}

func TestManager_StopRecordsStoppedRun(t *testing.T) {
	f := newFixture(t, 1, 2)
	require.NoError(t, f.manager.Start())
	f.advance(61)

	require.NoError(t, f.manager.Stop())
	assert.ErrorIs(t, f.manager.Stop(), ErrSessionNotRunning)
	assert.ErrorIs(t, f.manager.TogglePause(), ErrSessionNotRunning)

	require.Len(t, f.recorder.runs, 1)
	assert.False(t, f.recorder.runs[0].Completed)
	assert.Equal(t, 1, f.recorder.runs[0].SessionsCompleted)
}

func TestManager_RecorderErrorIsLogged(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.recorder.err = errors.New("disk full")
	require.NoError(t, f.manager.Start())
	assert.NoError(t, f.manager.Stop())
}

func TestManager_ConfigLockedWhileRunning(t *testing.T) {
	f := newFixture(t, 25, 4)

	assert.Equal(t, 30, f.manager.AdjustWorkMinutes(5).WorkMinutes)
	assert.Equal(t, 3, f.manager.AdjustSessionCount(-1).SessionCount)
	f.manager.SelectActivity(2)
	assert.Equal(t, config.DefaultActivities[2], f.manager.View().Cycle.Activity)

	require.NoError(t, f.manager.Start())
	assert.Equal(t, 30, f.manager.AdjustWorkMinutes(5).WorkMinutes)
	assert.Equal(t, 3, f.manager.AdjustSessionCount(1).SessionCount)
	f.manager.SelectActivity(0)
	v := f.manager.View()
	assert.Equal(t, 2, v.Activity)
	assert.Equal(t, config.DefaultActivities[2], v.Cycle.Activity)
}

func TestManager_PresenceFollowsState(t *testing.T) {
	f := newFixture(t, 1, 1)
	require.NoError(t, f.manager.Start())
	require.NotEmpty(t, f.presence.sent)
	p := f.presence.sent[len(f.presence.sent)-1]
	assert.Equal(t, "Focusing on: "+config.DefaultActivities[0], p.State)
	assert.Equal(t, "Session 1/1 (01:00 left)", p.Details)

	require.NoError(t, f.manager.TogglePause())
	p = f.presence.sent[len(f.presence.sent)-1]
	assert.Equal(t, "Paused: "+config.DefaultActivities[0], p.State)
	assert.True(t, p.End.IsZero())
}

func TestManager_PresenceStartIsRunStart(t *testing.T) {
	f := newFixture(t, 1, 1)
	started := f.clock.Now()
	require.NoError(t, f.manager.Start())
	f.advance(5)

	p := f.manager.View().Presence
	assert.Equal(t, started, p.Start)
	assert.Equal(t, started.Add(time.Minute), p.End)

	require.NoError(t, f.manager.Stop())
	require.Len(t, f.recorder.runs, 1)
	assert.Equal(t, started, f.recorder.runs[0].StartedAt)
	assert.True(t, f.manager.View().Presence.Start.IsZero())
}

func TestManager_SelectTrackWhileRunningSwitchesAudio(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.manager.EnterTrackSelection()
	require.NoError(t, f.manager.Start())
	assert.Empty(t, f.output.opened)

	tr := f.manager.SelectTrack(1)
	assert.Equal(t, "rain", tr.Name)
	require.Len(t, f.output.opened, 1)

	f.manager.SelectTrack(2)
	assert.True(t, f.manager.SelectedTrack().IsNone())
	assert.True(t, f.output.opened[0].closed)
}

func TestManager_AdjustVolume(t *testing.T) {
	f := newFixture(t, 1, 1)
	assert.InDelta(t, 0.6, f.manager.AdjustVolume(0.1), 1e-9)
	assert.InDelta(t, 1.0, f.manager.AdjustVolume(2), 1e-9)
}

func TestManager_ImportSelectsNewTrack(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.manager.EnterTrackSelection()

	require.NoError(t, f.manager.SubmitImport("https://example.com/watch?v=1"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := f.manager.importer.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, importer.StatusDone, job.Status)
	assert.Equal(t, importer.StatusDone, f.manager.Step().Import.Status)

	acked, ok := f.manager.AcknowledgeImport()
	require.True(t, ok)
	assert.Equal(t, importer.StatusDone, acked.Status)
	assert.Equal(t, "lofi", f.manager.SelectedTrack().Name)
	assert.Len(t, f.manager.View().Tracks, 3)
	assert.Equal(t, importer.StatusIdle, f.manager.View().Import.Status)
}

func TestManager_ImportAcknowledgedWhileRunningSwitchesAudio(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.manager.EnterTrackSelection()
	f.manager.SelectTrack(1)
	require.NoError(t, f.manager.SubmitImport("https://example.com/watch?v=2"))
	require.NoError(t, f.manager.Start())
	require.Len(t, f.output.opened, 1)
	rain := f.output.opened[0]

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := f.manager.importer.Wait(ctx)
	require.NoError(t, err)

	_, ok := f.manager.AcknowledgeImport()
	require.True(t, ok)

	v := f.manager.View()
	assert.Equal(t, "lofi.mp3", f.manager.SelectedTrack().ID)
	assert.Equal(t, f.manager.SelectedTrack().ID, v.Audio.Track.ID)
	assert.True(t, v.Audio.Playing)
	assert.True(t, rain.closed)
	require.Len(t, f.output.opened, 2)
	assert.Equal(t, filepath.Join(f.dir, "lofi.mp3"), f.output.opened[1].path)
}

func TestManager_ImportFailureKeepsSelection(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.converter.err = errors.Mark(errors.New("converter missing: yt-dlp not found"), converter.ErrConverterMissing)
	f.manager.EnterTrackSelection()
	f.manager.SelectTrack(1)

	require.NoError(t, f.manager.SubmitImport("https://example.com/x"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := f.manager.importer.Wait(ctx)
	require.NoError(t, err)

	job, ok := f.manager.AcknowledgeImport()
	require.True(t, ok)
	assert.Equal(t, importer.StatusFailed, job.Status)
	assert.Contains(t, job.Message, "converter missing")
	assert.Equal(t, "rain", f.manager.SelectedTrack().Name)
}

func TestManager_ImportWithoutImporter(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Library.Dir = t.TempDir()
	m := NewManager(cfg, Deps{Clock: clockwork.NewFakeClock()})

	assert.ErrorIs(t, m.SubmitImport("https://example.com"), ErrNoImporter)
	_, ok := m.AcknowledgeImport()
	assert.False(t, ok)
}

func TestManager_CloseRecordsUnfinishedRun(t *testing.T) {
	f := newFixture(t, 1, 1)
	require.NoError(t, f.manager.Start())
	f.manager.Close()

	require.Len(t, f.recorder.runs, 1)
	assert.False(t, f.recorder.runs[0].Completed)
	assert.Equal(t, 1, f.presence.cleared)
}
