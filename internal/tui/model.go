// Package tui is the terminal surface of focusbox.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/osa030/focusbox/internal/app/session"
)

// Screen is the page currently shown.
type Screen int

const (
	ScreenActivity Screen = iota
	ScreenDuration
	ScreenSessions
	ScreenTrack
	ScreenImport
	ScreenRunning
)

func (s Screen) String() string {
	switch s {
	case ScreenActivity:
		return "activity"
	case ScreenDuration:
		return "duration"
	case ScreenSessions:
		return "sessions"
	case ScreenTrack:
		return "track"
	case ScreenImport:
		return "import"
	case ScreenRunning:
		return "running"
	default:
		return "unknown"
	}
}

const volumeStep = 0.05

// PollMsg drives the main loop.
type PollMsg time.Time

// Options configures the model.
type Options struct {
	PollInterval time.Duration
}

// Model is the root bubbletea model. The session manager it wraps is
// only touched from Update, which bubbletea runs on a single goroutine.
type Model struct {
	manager *session.Manager
	poll    time.Duration

	screen   Screen
	input    textinput.Model
	progress progress.Model
	notice   string
	width    int
	height   int
}

// New creates the root model.
func New(manager *session.Manager, opts Options) Model {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}

	ti := textinput.New()
	ti.Placeholder = "https://..."
	ti.CharLimit = 2048
	ti.Width = 56

	pb := progress.New(progress.WithDefaultGradient())
	pb.Width = 40

	return Model{
		manager:  manager,
		poll:     opts.PollInterval,
		screen:   ScreenActivity,
		input:    ti,
		progress: pb,
	}
}

// Screen returns the current screen.
func (m Model) Screen() Screen {
	return m.screen
}

func (m Model) Init() tea.Cmd {
	return m.pollCmd()
}

func (m Model) pollCmd() tea.Cmd {
	return tea.Tick(m.poll, func(t time.Time) tea.Msg { return PollMsg(t) })
}
