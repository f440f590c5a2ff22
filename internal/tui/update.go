package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zlog "github.com/rs/zerolog/log"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		target := msg.Width - 20
		if target > 60 {
			target = 60
		}
		if target < 10 {
			target = 10
		}
		m.progress.Width = target
		return m, nil

	case PollMsg:
		return m.handlePoll()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handlePoll() (tea.Model, tea.Cmd) {
	step := m.manager.Step()
	if step.Transition.Completed() && m.screen == ScreenRunning {
		m.screen = ScreenActivity
		m.notice = "Cycle complete. Well done!"
	}
	return m, m.pollCmd()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.screen == ScreenImport {
		return m.handleImportKey(msg)
	}

	// Finished imports wait for an explicit acknowledgement.
	if msg.String() == "a" {
		if job, ok := m.manager.AcknowledgeImport(); ok {
			m.notice = job.Message
			return m, nil
		}
	}

	switch m.screen {
	case ScreenActivity:
		return m.handleActivityKey(msg)
	case ScreenDuration:
		return m.handleDurationKey(msg)
	case ScreenSessions:
		return m.handleSessionsKey(msg)
	case ScreenTrack:
		return m.handleTrackKey(msg)
	case ScreenRunning:
		return m.handleRunningKey(msg)
	}
	return m, nil
}

func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.manager.View()
	switch msg.String() {
	case "up", "k":
		if v.Activity > 0 {
			m.manager.SelectActivity(v.Activity - 1)
		}
	case "down", "j":
		if v.Activity < len(v.Activities)-1 {
			m.manager.SelectActivity(v.Activity + 1)
		}
	case "enter":
		m.notice = ""
		m.screen = ScreenDuration
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleDurationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.manager.AdjustWorkMinutes(1)
	case "down", "j":
		m.manager.AdjustWorkMinutes(-1)
	case "right", "l":
		m.manager.AdjustWorkMinutes(5)
	case "left", "h":
		m.manager.AdjustWorkMinutes(-5)
	case "enter":
		m.screen = ScreenSessions
	case "esc":
		m.screen = ScreenActivity
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleSessionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.manager.AdjustSessionCount(1)
	case "down", "j":
		m.manager.AdjustSessionCount(-1)
	case "enter":
		m.manager.EnterTrackSelection()
		m.screen = ScreenTrack
	case "esc":
		m.screen = ScreenDuration
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleTrackKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.manager.View()
	switch msg.String() {
	case "up", "k":
		m.manager.SelectTrack(v.Track - 1)
	case "down", "j":
		m.manager.SelectTrack(v.Track + 1)
	case "+", "=":
		m.manager.AdjustVolume(volumeStep)
	case "-":
		m.manager.AdjustVolume(-volumeStep)
	case "r":
		m.manager.EnterTrackSelection()
	case "i":
		m.screen = ScreenImport
		m.input.Reset()
		return m, tea.Batch(m.input.Focus(), textinput.Blink)
	case "enter":
		if err := m.manager.Start(); err != nil {
			zlog.Debug().Err(err).Msg("tui: start rejected")
			return m, nil
		}
		m.notice = ""
		m.screen = ScreenRunning
	case "esc":
		m.screen = ScreenSessions
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleImportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.screen = ScreenTrack
		return m, nil
	case tea.KeyEnter:
		if err := m.manager.SubmitImport(m.input.Value()); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		m.input.Blur()
		m.screen = ScreenTrack
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleRunningKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.manager.View()
	switch msg.String() {
	case " ", "p":
		_ = m.manager.TogglePause()
	case "+", "=":
		m.manager.AdjustVolume(volumeStep)
	case "-":
		m.manager.AdjustVolume(-volumeStep)
	case "[":
		m.manager.SelectTrack(v.Track - 1)
	case "]":
		m.manager.SelectTrack(v.Track + 1)
	case "q", "esc":
		_ = m.manager.Stop()
		m.notice = "Cycle stopped."
		m.screen = ScreenActivity
	}
	return m, nil
}
