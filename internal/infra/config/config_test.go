package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FOCUSBOX_LIBRARY_DIR", "")
	t.Setenv("FOCUSBOX_HISTORY_PATH", "")
	t.Setenv("FOCUSBOX_DISCORD_APP_ID", "")
	t.Setenv("XDG_DATA_HOME", "/data")
}

func TestDefault(t *testing.T) {
	clearEnv(t)

	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Timer.WorkMinutes)
	assert.Equal(t, 4, cfg.Timer.SessionCount)
	assert.Equal(t, time.Second, cfg.TickInterval())
	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, DefaultActivities, cfg.Activities)
	assert.Equal(t, 0.5, cfg.Audio.Volume)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, "ytdlp", cfg.Import.Converter.Type)
	assert.Equal(t, 500*time.Millisecond, cfg.SendTimeout())
	assert.Empty(t, cfg.Presence.Notifiers)
	assert.Equal(t, "/data/focusbox/tracks", cfg.Library.Dir)
	assert.Equal(t, "/data/focusbox/history.db", cfg.History.Path)
	assert.True(t, cfg.History.IsEnabled())
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
timer:
  work_minutes: 45
  session_count: 2
activities:
  - Writing
library:
  dir: /music
audio:
  volume: 0.8
import:
  converter:
    type: command
    settings:
      command: ["fetch", "{url}", "{output_dir}"]
presence:
  send_timeout_ms: 250
  notifiers:
    - type: discord
      settings:
        app_id: "123"
    - type: log
history:
  enabled: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Timer.WorkMinutes)
	assert.Equal(t, 2, cfg.Timer.SessionCount)
	assert.Equal(t, []string{"Writing"}, cfg.Activities)
	assert.Equal(t, "/music", cfg.Library.Dir)
	assert.Equal(t, 0.8, cfg.Audio.Volume)
	assert.Equal(t, "command", cfg.Import.Converter.Type)
	assert.Equal(t, []any{"fetch", "{url}", "{output_dir}"}, cfg.Import.Converter.Settings["command"])
	require.Len(t, cfg.Presence.Notifiers, 2)
	assert.Equal(t, "123", cfg.Presence.Notifiers[0].Settings["app_id"])
	assert.Equal(t, 250*time.Millisecond, cfg.SendTimeout())
	assert.False(t, cfg.History.IsEnabled())
}

func TestLoad_Validation(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "work minutes too large", body: "timer:\n  work_minutes: 61\n"},
		{name: "session count too large", body: "timer:\n  session_count: 13\n"},
		{name: "volume out of range", body: "audio:\n  volume: 1.5\n"},
		{name: "unsupported sample rate", body: "audio:\n  sample_rate: 12345\n"},
		{name: "blank activity", body: "activities: [\"\"]\n"},
		{name: "notifier without type", body: "presence:\n  notifiers:\n    - settings: {}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "timer: ["))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestLoadOptional_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Timer.WorkMinutes)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FOCUSBOX_LIBRARY_DIR", "/env/tracks")
	t.Setenv("FOCUSBOX_HISTORY_PATH", "/env/history.db")
	t.Setenv("FOCUSBOX_DISCORD_APP_ID", "999")

	cfg, err := Load(writeConfig(t, "library:\n  dir: /file/tracks\n"))
	require.NoError(t, err)

	assert.Equal(t, "/env/tracks", cfg.Library.Dir)
	assert.Equal(t, "/env/history.db", cfg.History.Path)
	require.Len(t, cfg.Presence.Notifiers, 1)
	assert.Equal(t, "discord", cfg.Presence.Notifiers[0].Type)
	assert.Equal(t, "999", cfg.Presence.Notifiers[0].Settings["app_id"])
}

func TestEnvOverrides_ExistingDiscordNotifier(t *testing.T) {
	clearEnv(t)
	t.Setenv("FOCUSBOX_DISCORD_APP_ID", "999")

	cfg, err := Load(writeConfig(t, "presence:\n  notifiers:\n    - type: log\n    - type: discord\n"))
	require.NoError(t, err)

	require.Len(t, cfg.Presence.Notifiers, 2)
	assert.Equal(t, "999", cfg.Presence.Notifiers[1].Settings["app_id"])
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_STATE_HOME", "/state")

	assert.Equal(t, "/cfg/focusbox/config.yaml", DefaultPath())
	assert.Equal(t, "/state/focusbox/focusbox.log", DefaultLogPath())
}
