package notification

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/domain/status"
)

type LogNotifierConfig struct {
	Level string `yaml:"level" mapstructure:"level" default:"info" validate:"oneof=debug info warn"`
	// OnlyChanges skips payloads identical to the previous one.
	OnlyChanges bool `yaml:"only_changes" mapstructure:"only_changes"`
}

// LogNotifier writes presence updates to the application log.
type LogNotifier struct {
	config *LogNotifierConfig
	level  zerolog.Level

	mu   sync.Mutex
	last status.Presence
}

// NewLogNotifier creates a log notifier from plugin settings.
func NewLogNotifier(settings map[string]any) (*LogNotifier, error) {
	var config LogNotifierConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return nil, errors.Wrap(err, "invalid level")
	}
	return &LogNotifier{config: &config, level: level}, nil
}

// Send logs the payload.
// Sends may overlap when a previous one outlives the fan-out timeout.
func (n *LogNotifier) Send(_ context.Context, p *status.Presence) error {
	n.mu.Lock()
	if n.config.OnlyChanges && p.Equal(n.last) {
		n.mu.Unlock()
		return nil
	}
	n.last = *p
	n.mu.Unlock()

	ev := zlog.WithLevel(n.level).
		Uint64("seq", p.SequenceNo).
		Str("state", p.State).
		Str("details", p.Details)
	if !p.Start.IsZero() {
		ev = ev.Time("start", p.Start)
	}
	if p.Counting() {
		ev = ev.Time("end", p.End)
	}
	ev.Msg("presence")
	return nil
}

// Clear logs that the presence was cleared.
func (n *LogNotifier) Clear(_ context.Context) error {
	n.mu.Lock()
	n.last = status.Presence{}
	n.mu.Unlock()
	zlog.WithLevel(n.level).Msg("presence cleared")
	return nil
}

// Name returns the notifier type.
func (n *LogNotifier) Name() string {
	return "log"
}

// Close is a no-op.
func (n *LogNotifier) Close() error {
	return nil
}
