package notification

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/infra/config"
	"github.com/osa030/focusbox/internal/infra/discord"
)

// NewManagerFromConfig creates a manager with every configured notifier
// subscribed.
func NewManagerFromConfig(cfg *config.Config) (*Manager, error) {
	m := NewManager(cfg.SendTimeout())

	for i, ncfg := range cfg.Presence.Notifiers {
		var (
			n   Notifier
			err error
		)
		zlog.Debug().Msgf("creating notifier: index=%d type=%s settings=%+v", i+1, ncfg.Type, ncfg.Settings)
		switch ncfg.Type {
		case "discord":
			n, err = discord.NewNotifier(ncfg.Settings)
		case "log":
			n, err = NewLogNotifier(ncfg.Settings)
		default:
			m.Close()
			return nil, errors.Newf("unsupported notifier type: %s (notifier index %d)", ncfg.Type, i)
		}
		if err != nil {
			m.Close()
			return nil, errors.Wrapf(err, "failed to create notifier (index %d, type %s)", i, ncfg.Type)
		}

		id := m.Subscribe(n)
		zlog.Info().Msgf("registered notifier: index=%d type=%s id=%s", i+1, ncfg.Type, id)
	}

	return m, nil
}
