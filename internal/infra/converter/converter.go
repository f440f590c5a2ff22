// Package converter runs external command-line tools that fetch audio
// from a URL and write it into the track library.
package converter

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrConverterMissing = errors.New("converter missing")
	ErrConversionFailed = errors.New("conversion failed")
)

// stderrTailLines is how much of the converter's stderr ends up in errors.
const stderrTailLines = 3

// Result describes the file produced by a conversion.
type Result struct {
	Path string // Written file, empty if the tool did not report it
}

// Name returns the base name of the produced file without extension.
func (r Result) Name() string {
	if r.Path == "" {
		return ""
	}
	base := filepath.Base(r.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Converter fetches url and writes an audio file into outputDir.
type Converter interface {
	Convert(ctx context.Context, url, outputDir string) (Result, error)
	Name() string
}

// run executes binary and returns its stdout.
// A binary that cannot be found maps to ErrConverterMissing and a
// failed run to ErrConversionFailed carrying the tail of stderr.
func run(ctx context.Context, binary string, args []string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", missing(binary)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zlog.Debug().Msgf("converter: running %s %s", path, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return "", missing(binary)
		}
		tail := tailLines(stderr.String(), stderrTailLines)
		if tail == "" {
			tail = err.Error()
		}
		return "", errors.Mark(errors.Newf("conversion failed: %s", tail), ErrConversionFailed)
	}
	return stdout.String(), nil
}

func missing(binary string) error {
	return errors.Mark(errors.Newf("converter missing: %s not found", binary), ErrConverterMissing)
}

// reportedPath returns the last non-empty stdout line if it names an
// existing file.
func reportedPath(stdout, outputDir string) string {
	line := tailLines(stdout, 1)
	if line == "" {
		return ""
	}
	if !filepath.IsAbs(line) {
		line = filepath.Join(outputDir, line)
	}
	if info, err := os.Stat(line); err != nil || info.IsDir() {
		return ""
	}
	return line
}

func tailLines(s string, n int) string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// expand substitutes the {url} and {output_dir} placeholders.
func expand(args []string, url, outputDir string) []string {
	r := strings.NewReplacer("{url}", url, "{output_dir}", outputDir)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}
