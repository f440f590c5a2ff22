package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/osa030/focusbox/internal/app/importer"
	"github.com/osa030/focusbox/internal/app/session"
	"github.com/osa030/focusbox/internal/app/session/state"
)

const maxLineWidth = 72

func (m Model) View() string {
	t := defaultTheme
	v := m.manager.View()

	var body string
	switch m.screen {
	case ScreenActivity:
		body = m.viewActivity(t, v)
	case ScreenDuration:
		body = m.viewDuration(t, v)
	case ScreenSessions:
		body = m.viewSessions(t, v)
	case ScreenTrack:
		body = m.viewTrack(t, v)
	case ScreenImport:
		body = m.viewImport(t)
	case ScreenRunning:
		body = m.viewRunning(t, v)
	}

	parts := []string{t.Title.Render("focusbox"), t.Box.Render(body)}
	if line := m.importLine(t, v.Import); line != "" {
		parts = append(parts, line)
	}
	if m.notice != "" {
		parts = append(parts, t.Item.Render(m.truncate(m.notice)))
	}
	parts = append(parts, t.Footer.Render(m.footer()))
	return t.Base.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewActivity(t Theme, v session.View) string {
	var b strings.Builder
	b.WriteString(t.Title.Render("Select activity"))
	b.WriteString("\n\n")
	for i, a := range v.Activities {
		if i == v.Activity {
			b.WriteString(t.Selected.Render("> " + a))
		} else {
			b.WriteString(t.Item.Render("  " + a))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewDuration(t Theme, v session.View) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		t.Title.Render("Session length"),
		"",
		t.Timer.Render(fmt.Sprintf("%d minutes", v.Cycle.WorkMinutes)),
		t.Dim.Render(fmt.Sprintf("Break: %d minutes", v.BreakLen/60)),
	)
}

func (m Model) viewSessions(t Theme, v session.View) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		t.Title.Render("Number of sessions"),
		"",
		t.Timer.Render(fmt.Sprintf("%d sessions", v.Cycle.SessionCount)),
		t.Dim.Render(fmt.Sprintf("%d x %d min focus, %d min breaks",
			v.Cycle.SessionCount, v.Cycle.WorkMinutes, v.BreakLen/60)),
	)
}

func (m Model) viewTrack(t Theme, v session.View) string {
	var b strings.Builder
	b.WriteString(t.Title.Render("Background music"))
	b.WriteString("\n\n")
	for i, tr := range v.Tracks {
		line := m.truncate(tr.DisplayName())
		if i == v.Track {
			b.WriteString(t.Selected.Render("> " + line))
		} else {
			b.WriteString(t.Item.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(t.Dim.Render(volumeLine(v.Audio.Volume)))
	return b.String()
}

func (m Model) viewImport(t Theme) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		t.Title.Render("Import a track"),
		"",
		t.Input.Render(m.input.View()),
	)
}

func (m Model) viewRunning(t Theme, v session.View) string {
	s := v.Session
	var label string
	switch {
	case s.Paused:
		label = t.Paused.Render("PAUSED")
	case s.Phase == state.PhaseWorking:
		label = t.Work.Render("FOCUS")
	default:
		label = t.Break.Render("BREAK")
	}

	header := fmt.Sprintf("%s  %s  Session %d/%d", label, v.Cycle.Activity, s.SessionIndex, s.SessionCount)
	timer := t.Timer.Render(fmt.Sprintf("%02d:%02d", s.Remaining/60, s.Remaining%60))

	lines := []string{
		m.truncate(header),
		"",
		timer,
		m.progress.ViewAs(s.Progress()),
		"",
		t.Dim.Render(m.truncate("Music: " + v.Audio.Track.DisplayName())),
		t.Dim.Render(volumeLine(v.Audio.Volume)),
	}
	if s.Paused && s.Remaining == s.PhaseLength {
		lines = append(lines, "", t.Item.Render("Press space to begin the next phase"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) importLine(t Theme, job importer.Job) string {
	switch job.Status {
	case importer.StatusRunning:
		return t.Dim.Render(m.truncate("⏳ " + job.Message))
	case importer.StatusDone:
		return t.Success.Render(m.truncate("✓ " + job.Message + "  [a] OK"))
	case importer.StatusFailed:
		return t.Failure.Render(m.truncate("✗ " + job.Message + "  [a] OK"))
	default:
		return ""
	}
}

func (m Model) footer() string {
	switch m.screen {
	case ScreenRunning:
		return " [Space] Pause | [+/-] Volume | [[/]] Track | [Q] Back to Menu "
	case ScreenTrack:
		return " [↑/↓] Navigate | [+/-] Volume | [I] Import | [R] Rescan | [Enter] Start | [Esc] Back "
	case ScreenImport:
		return " [Enter] Import | [Esc] Cancel "
	case ScreenActivity:
		return " [↑/↓] Navigate | [Enter] Select | [Q] Quit "
	default:
		return " [↑/↓] Adjust | [Enter] Next | [Esc] Back | [Q] Quit "
	}
}

func (m Model) truncate(s string) string {
	width := maxLineWidth
	if m.width > 0 && m.width-8 < width {
		width = m.width - 8
	}
	if width < 8 {
		width = 8
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func volumeLine(v float64) string {
	const slots = 10
	n := int(v*slots + 0.5)
	return fmt.Sprintf("Volume %s %3d%%", strings.Repeat("█", n)+strings.Repeat("░", slots-n), int(v*100+0.5))
}
