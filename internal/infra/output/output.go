// Package output provides colored plain-text output for the non-interactive
// commands.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/osa030/focusbox/internal/domain/run"
	"github.com/osa030/focusbox/internal/domain/track"
)

// UI writes messages and tables.
type UI struct {
	Verbose bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
)

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// Tracks prints the track library. The None entry is skipped.
func (u *UI) Tracks(dir string, tracks []track.Track) error {
	var n int
	table := u.Table([]string{"#", "NAME", "FORMAT", "FILE"})
	for _, t := range tracks {
		if t.IsNone() {
			continue
		}
		n++
		if err := table.Append([]string{strconv.Itoa(n), t.Name, t.Ext(), t.ID}); err != nil {
			return err
		}
	}
	if n == 0 {
		u.Info("No tracks in %s", cyan(dir))
		return nil
	}
	if err := table.Render(); err != nil {
		return err
	}
	u.VerboseLog("%d tracks in %s", n, dir)
	return nil
}

// Runs prints the run history followed by a summary line.
func (u *UI) Runs(runs []run.Run) error {
	if len(runs) == 0 {
		u.Info("No runs recorded yet")
		return nil
	}
	table := u.Table([]string{"STARTED", "ACTIVITY", "SESSIONS", "LENGTH", "DURATION", "OUTCOME"})
	for _, r := range runs {
		if err := table.Append([]string{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Activity,
			fmt.Sprintf("%d/%d", r.SessionsCompleted, r.SessionCount),
			fmt.Sprintf("%d min", r.WorkMinutes),
			r.Duration().Round(time.Second).String(),
			OutcomeColor(r.Outcome()),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := run.Summarize(runs)
	u.Info("%d runs, %d completed, %d sessions, %d focus minutes",
		s.Runs, s.CompletedRuns, s.SessionsCompleted, s.FocusMinutes)
	return nil
}

// OutcomeColor returns the outcome label colored.
func OutcomeColor(outcome string) string {
	switch outcome {
	case "completed":
		return green(outcome)
	case "stopped":
		return yellow(outcome)
	default:
		return outcome
	}
}
