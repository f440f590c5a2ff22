package converter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o700))
	return path
}

func TestYtDlp_Args(t *testing.T) {
	y, err := NewYtDlp(map[string]any{"audio_format": "flac"})
	require.NoError(t, err)

	args := y.Args("https://example.com/v", "/lib")
	assert.Equal(t, []string{
		"-x",
		"--audio-format", "flac",
		"--no-playlist",
		"--no-simulate",
		"--print", "after_move:filepath",
		"-o", "/lib/%(title)s.%(ext)s",
		"https://example.com/v",
	}, args)
}

func TestNewYtDlp_Defaults(t *testing.T) {
	y, err := NewYtDlp(nil)
	require.NoError(t, err)
	assert.Equal(t, "yt-dlp", y.config.Binary)
	assert.Equal(t, "mp3", y.config.AudioFormat)
	assert.Equal(t, "ytdlp", y.Name())
}

func TestNewYtDlp_InvalidFormat(t *testing.T) {
	_, err := NewYtDlp(map[string]any{"audio_format": "aiff"})
	assert.Error(t, err)
}

func TestYtDlp_Convert(t *testing.T) {
	dir := t.TempDir()
	// Mimics yt-dlp: writes the file named after -o and prints its path.
	script := writeScript(t, "yt-dlp", `#!/usr/bin/env bash
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
path=$(printf '%s' "$out" | sed -e 's/%(title)s/Lofi Beats/' -e 's/%(ext)s/mp3/')
echo "[download] fetching" 1>&2
touch "$path"
echo "$path"
`)
	y, err := NewYtDlp(map[string]any{"binary": script})
	require.NoError(t, err)

	res, err := y.Convert(context.Background(), "https://example.com/v", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Lofi Beats.mp3"), res.Path)
	assert.Equal(t, "Lofi Beats", res.Name())
}

func TestConvert_Missing(t *testing.T) {
	y, err := NewYtDlp(map[string]any{"binary": filepath.Join(t.TempDir(), "no-such-tool")})
	require.NoError(t, err)

	_, err = y.Convert(context.Background(), "https://example.com/v", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConverterMissing))
	assert.False(t, errors.Is(err, ErrConversionFailed))
	assert.Contains(t, err.Error(), "converter missing")
}

func TestConvert_NonzeroExit(t *testing.T) {
	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'line one' 1>&2\necho 'ERROR: video unavailable' 1>&2\nexit 1\n")
	c, err := NewCommand(map[string]any{"command": []string{script, "{url}"}})
	require.NoError(t, err)

	_, err = c.Convert(context.Background(), "https://example.com/v", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConversionFailed))
	assert.False(t, errors.Is(err, ErrConverterMissing))
	assert.True(t, strings.HasPrefix(err.Error(), "conversion failed: "))
	assert.Contains(t, err.Error(), "ERROR: video unavailable")
}

func TestCommand_Placeholders(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, "fetch.sh", "#!/usr/bin/env bash\ntouch \"$2/track.wav\"\necho \"$1\" > \"$2/url.txt\"\necho track.wav\n")
	c, err := NewCommand(map[string]any{"command": []string{script, "{url}", "{output_dir}"}})
	require.NoError(t, err)

	res, err := c.Convert(context.Background(), "https://example.com/a", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "track.wav"), res.Path)

	got, err := os.ReadFile(filepath.Join(dir, "url.txt"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a\n", string(got))
}

func TestCommand_UnreportedPath(t *testing.T) {
	script := writeScript(t, "quiet.sh", "#!/usr/bin/env bash\necho done\n")
	c, err := NewCommand(map[string]any{"command": []string{script}})
	require.NoError(t, err)

	res, err := c.Convert(context.Background(), "u", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, res.Path)
	assert.Empty(t, res.Name())
}

func TestNewCommand_RequiresArgv(t *testing.T) {
	_, err := NewCommand(map[string]any{})
	assert.Error(t, err)
	_, err = NewCommand(map[string]any{"command": []string{""}})
	assert.Error(t, err)
}

func TestTailLines(t *testing.T) {
	assert.Equal(t, "b | c", tailLines("a\n\nb\n  c  \n\n", 2))
	assert.Equal(t, "", tailLines("\n\n", 3))
}
