package discord

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/domain/status"
)

type NotifierConfig struct {
	AppID      string `yaml:"app_id" mapstructure:"app_id" validate:"required,numeric"`
	LargeImage string `yaml:"large_image" mapstructure:"large_image" default:"app_icon"`
	LargeText  string `yaml:"large_text" mapstructure:"large_text" default:"focusbox"`
}

// Notifier publishes presence payloads as Discord activities.
type Notifier struct {
	config *NotifierConfig
	client *Client
}

// NewNotifier creates a Discord notifier from plugin settings.
func NewNotifier(settings map[string]any, opts ...Option) (*Notifier, error) {
	var config NotifierConfig
	if err := mapstructure.WeakDecode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("discord notifier config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &Notifier{
		config: &config,
		client: NewClient(config.AppID, opts...),
	}, nil
}

// Send sets the activity built from p.
func (n *Notifier) Send(ctx context.Context, p *status.Presence) error {
	return n.client.SetActivity(ctx, n.toActivity(p))
}

// Clear removes the activity.
func (n *Notifier) Clear(ctx context.Context) error {
	if !n.client.Connected() {
		return nil
	}
	return n.client.SetActivity(ctx, nil)
}

// Name returns the notifier type.
func (n *Notifier) Name() string {
	return "discord"
}

// Close closes the IPC connection.
func (n *Notifier) Close() error {
	return n.client.Close()
}

func (n *Notifier) toActivity(p *status.Presence) *Activity {
	a := &Activity{
		State:   p.State,
		Details: p.Details,
	}
	if !p.Start.IsZero() || !p.End.IsZero() {
		a.Timestamps = &Timestamps{}
		if !p.Start.IsZero() {
			a.Timestamps.Start = p.Start.UnixMilli()
		}
		if !p.End.IsZero() {
			a.Timestamps.End = p.End.UnixMilli()
		}
	}
	if n.config.LargeImage != "" || n.config.LargeText != "" {
		a.Assets = &Assets{
			LargeImage: n.config.LargeImage,
			LargeText:  n.config.LargeText,
		}
	}
	return a
}
