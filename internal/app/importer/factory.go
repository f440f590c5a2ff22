package importer

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/infra/config"
	"github.com/osa030/focusbox/internal/infra/converter"
)

// NewConverterFromConfig creates the converter selected in configuration.
func NewConverterFromConfig(cfg *config.Config) (converter.Converter, error) {
	pcfg := cfg.Import.Converter
	zlog.Debug().Msgf("creating converter: type=%s settings=%+v", pcfg.Type, pcfg.Settings)

	var (
		conv converter.Converter
		err  error
	)
	switch pcfg.Type {
	case "ytdlp":
		conv, err = converter.NewYtDlp(pcfg.Settings)
	case "command":
		conv, err = converter.NewCommand(pcfg.Settings)
	default:
		return nil, errors.Newf("unsupported converter type: %s", pcfg.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create converter (type %s)", pcfg.Type)
	}

	zlog.Info().Msgf("registered converter: type=%s", conv.Name())
	return conv, nil
}
