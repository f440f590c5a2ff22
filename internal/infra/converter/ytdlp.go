package converter

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

type YtDlpConfig struct {
	Binary      string   `yaml:"binary" mapstructure:"binary" default:"yt-dlp" validate:"required"`
	AudioFormat string   `yaml:"audio_format" mapstructure:"audio_format" default:"mp3" validate:"oneof=mp3 wav flac vorbis"`
	ExtraArgs   []string `yaml:"extra_args" mapstructure:"extra_args"`
}

// YtDlp extracts audio with yt-dlp, naming the file after the item title.
type YtDlp struct {
	config *YtDlpConfig
}

// NewYtDlp creates a yt-dlp converter from plugin settings.
func NewYtDlp(settings map[string]any) (*YtDlp, error) {
	var config YtDlpConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("yt-dlp converter config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &YtDlp{config: &config}, nil
}

// Args returns the yt-dlp argument list for url.
func (y *YtDlp) Args(url, outputDir string) []string {
	args := []string{
		"-x",
		"--audio-format", y.config.AudioFormat,
		"--no-playlist",
		"--no-simulate",
		"--print", "after_move:filepath",
		"-o", filepath.Join(outputDir, "%(title)s.%(ext)s"),
	}
	args = append(args, y.config.ExtraArgs...)
	return append(args, url)
}

// Convert runs yt-dlp and returns the file it reports.
func (y *YtDlp) Convert(ctx context.Context, url, outputDir string) (Result, error) {
	stdout, err := run(ctx, y.config.Binary, y.Args(url, outputDir))
	if err != nil {
		return Result{}, err
	}
	return Result{Path: reportedPath(stdout, outputDir)}, nil
}

// Name returns the converter type.
func (y *YtDlp) Name() string {
	return "ytdlp"
}
