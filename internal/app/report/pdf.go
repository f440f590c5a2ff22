// Package report renders the run history as a PDF document.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-pdf/fpdf"

	"github.com/osa030/focusbox/internal/domain/run"
)

// WritePDF renders runs to w.
func WritePDF(w io.Writer, runs []run.Run, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(generatedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(latin1(s)) }

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Focus Report: %s", generatedAt.Format("2006-01-02")))
	pdf.Ln(12)

	sum := run.Summarize(runs)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Runs: %d (%d completed)", sum.Runs, sum.CompletedRuns))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Sessions completed: %d", sum.SessionsCompleted))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Focus time: %s", formatMinutes(sum.FocusMinutes)))
	pdf.Ln(12)

	if len(runs) == 0 {
		pdf.Cell(0, 8, "No runs recorded yet.")
		pdf.Ln(8)
	}

	// Group by day, newest first as listed.
	var day string
	for _, r := range runs {
		d := r.StartedAt.Local().Format("Monday, 2006-01-02")
		if d != day {
			day = d
			pdf.Ln(2)
			pdf.SetFont("Arial", "B", 14)
			pdf.Cell(0, 10, d)
			pdf.Ln(8)
			pdf.SetFont("Arial", "", 12)
		}

		mark := "[x]"
		if !r.Completed {
			mark = "[ ]"
		}
		line := fmt.Sprintf("%s %s  %s  %d/%d x %d min  (%s)",
			mark,
			r.StartedAt.Local().Format("15:04"),
			strings.TrimSpace(text(r.Activity)),
			r.SessionsCompleted, r.SessionCount, r.WorkMinutes,
			r.Outcome())
		pdf.MultiCell(0, 8, line, "", "", false)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "failed to render pdf")
	}
	return nil
}

// WritePDFFile renders runs to the file at path.
func WritePDFFile(path string, runs []run.Run, generatedAt time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create pdf file")
	}
	if err := WritePDF(f, runs, generatedAt); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "failed to close pdf file")
}

// latin1 drops characters the core PDF fonts cannot draw, such as emoji.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF {
			return -1
		}
		return r
	}, s)
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%d min", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}
