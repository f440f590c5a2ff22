// Package config provides configuration loading from YAML files.
package config

import (
	"io/fs"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultActivities is used when the config lists none.
var DefaultActivities = []string{
	"Studying 📚",
	"Working 💼",
	"Programming 🦀",
	"Reading 📖",
}

// Config represents the application configuration.
type Config struct {
	Timer      TimerConfig    `yaml:"timer"`
	Activities []string       `yaml:"activities" validate:"min=1,dive,required"`
	Library    LibraryConfig  `yaml:"library"`
	Audio      AudioConfig    `yaml:"audio"`
	Import     ImportConfig   `yaml:"import"`
	Presence   PresenceConfig `yaml:"presence"`
	History    HistoryConfig  `yaml:"history"`
}

// TimerConfig represents the initial cycle and main loop pacing.
type TimerConfig struct {
	WorkMinutes    int `yaml:"work_minutes" default:"25" validate:"gte=1,lte=60"`
	SessionCount   int `yaml:"session_count" default:"4" validate:"gte=1,lte=12"`
	TickIntervalMs int `yaml:"tick_interval_ms" default:"1000" validate:"gte=10,lte=60000"`
	PollIntervalMs int `yaml:"poll_interval_ms" default:"50" validate:"gte=1,lte=1000"`
}

// LibraryConfig represents the track library location.
type LibraryConfig struct {
	Dir string `yaml:"dir"`
}

// AudioConfig represents audio output configuration.
type AudioConfig struct {
	Volume     float64 `yaml:"volume" default:"0.5" validate:"gte=0,lte=1"`
	SampleRate int     `yaml:"sample_rate" default:"44100" validate:"oneof=22050 32000 44100 48000 96000"`
	BufferMs   int     `yaml:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
}

// ImportConfig represents the external converter used by imports.
type ImportConfig struct {
	Converter PluginConfig `yaml:"converter"`
}

// PresenceConfig represents the presence notifiers.
type PresenceConfig struct {
	Notifiers     []PluginConfig `yaml:"notifiers" validate:"dive"`
	SendTimeoutMs int            `yaml:"send_timeout_ms" default:"500" validate:"gte=1,lte=10000"`
}

// PluginConfig selects an implementation by type and passes it
// free-form settings decoded by the implementation itself.
type PluginConfig struct {
	Type     string         `yaml:"type" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// HistoryConfig represents the run history store.
type HistoryConfig struct {
	Path    string `yaml:"path"`
	Enabled *bool  `yaml:"enabled" default:"true"`
}

// IsEnabled reports whether runs are recorded.
func (h HistoryConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return parse(data)
}

// LoadOptional loads path, falling back to defaults when it does not exist.
func LoadOptional(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return parse(nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return parse(data)
}

// Default returns the configuration used without a config file.
func Default() (*Config, error) {
	return parse(nil)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	cfg.applyDynamicDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("FOCUSBOX_LIBRARY_DIR"); v != "" {
		c.Library.Dir = v
	}
	if v := os.Getenv("FOCUSBOX_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("FOCUSBOX_DISCORD_APP_ID"); v != "" {
		for i := range c.Presence.Notifiers {
			if c.Presence.Notifiers[i].Type == "discord" {
				if c.Presence.Notifiers[i].Settings == nil {
					c.Presence.Notifiers[i].Settings = map[string]any{}
				}
				c.Presence.Notifiers[i].Settings["app_id"] = v
				return
			}
		}
		c.Presence.Notifiers = append(c.Presence.Notifiers, PluginConfig{
			Type:     "discord",
			Settings: map[string]any{"app_id": v},
		})
	}
}

// applyDynamicDefaults fills values that depend on the environment.
func (c *Config) applyDynamicDefaults() {
	if len(c.Activities) == 0 {
		c.Activities = append([]string(nil), DefaultActivities...)
	}
	if c.Library.Dir == "" {
		c.Library.Dir = DefaultLibraryDir()
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath()
	}
	if c.Import.Converter.Type == "" {
		c.Import.Converter.Type = "ytdlp"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// TickInterval returns the clock gate interval.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Timer.TickIntervalMs) * time.Millisecond
}

// PollInterval returns the main loop poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Timer.PollIntervalMs) * time.Millisecond
}

// SendTimeout returns the per-notifier presence send timeout.
func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Presence.SendTimeoutMs) * time.Millisecond
}
