package converter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

type CommandConfig struct {
	// Command is the argv; {url} and {output_dir} are substituted.
	Command []string `yaml:"command" mapstructure:"command" validate:"required,min=1,dive,required"`
}

// Command runs an arbitrary user-configured tool.
// The tool may print the written file path as its last stdout line.
type Command struct {
	config *CommandConfig
}

// NewCommand creates a command converter from plugin settings.
func NewCommand(settings map[string]any) (*Command, error) {
	var config CommandConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("command converter config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &Command{config: &config}, nil
}

// Convert runs the configured command.
func (c *Command) Convert(ctx context.Context, url, outputDir string) (Result, error) {
	argv := expand(c.config.Command, url, outputDir)
	stdout, err := run(ctx, argv[0], argv[1:])
	if err != nil {
		return Result{}, err
	}
	return Result{Path: reportedPath(stdout, outputDir)}, nil
}

// Name returns the converter type.
func (c *Command) Name() string {
	return "command"
}
