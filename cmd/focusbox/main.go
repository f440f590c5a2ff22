// Package main provides the focusbox entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/osa030/focusbox/internal/app/bgm"
	"github.com/osa030/focusbox/internal/app/importer"
	"github.com/osa030/focusbox/internal/app/notification"
	"github.com/osa030/focusbox/internal/app/playback"
	"github.com/osa030/focusbox/internal/app/presence"
	"github.com/osa030/focusbox/internal/app/report"
	"github.com/osa030/focusbox/internal/app/session"
	"github.com/osa030/focusbox/internal/infra/audio"
	"github.com/osa030/focusbox/internal/infra/config"
	"github.com/osa030/focusbox/internal/infra/history"
	"github.com/osa030/focusbox/internal/infra/logger"
	"github.com/osa030/focusbox/internal/infra/output"
	"github.com/osa030/focusbox/internal/tui"
)

var (
	app        = kingpin.New("focusbox", "Focus timer with background music and presence")
	configPath = app.Flag("config", "Path to config file (default: $XDG_CONFIG_HOME/focusbox/config.yaml)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file").String()

	startCmd = app.Command("start", "Run the focus timer (default)").Default()

	tracksCmd = app.Command("tracks", "List the track library")

	importCmd = app.Command("import", "Import a track into the library and wait for it")
	importURL = importCmd.Arg("url", "Source URL").Required().String()

	historyCmd   = app.Command("history", "Show recorded runs")
	historyLimit = historyCmd.Flag("limit", "Maximum number of runs").Default("20").Int()
	historyPDF   = historyCmd.Flag("pdf", "Write a PDF report to this file").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	ui := output.New()
	ui.Verbose = *verbose

	// The timer owns the terminal, so it logs to a file.
	loggerConfig := logger.Config{Output: "stderr", Level: "warn"}
	if command == startCmd.FullCommand() {
		loggerConfig = logger.Config{Output: "file", Level: "info", File: config.DefaultLogPath()}
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		ui.Error("Failed to initialize logger: %v", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	cfg, err := loadConfig()
	if err != nil {
		ui.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	switch command {
	case startCmd.FullCommand():
		err = runStart(cfg)
	case tracksCmd.FullCommand():
		err = runTracks(ui, cfg)
	case importCmd.FullCommand():
		err = runImport(ui, cfg, *importURL)
	case historyCmd.FullCommand():
		err = runHistory(ui, cfg, *historyLimit, *historyPDF)
	}
	if err != nil {
		ui.Error("%v", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		zlog.Info().Msgf("Loading config from %s", *configPath)
		return config.Load(*configPath)
	}
	path := config.DefaultPath()
	zlog.Debug().Msgf("Loading optional config from %s", path)
	return config.LoadOptional(path)
}

// runStart wires every component and runs the terminal UI until the
// user quits. Using a separate function ensures deferred cleanup runs.
func runStart(cfg *config.Config) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("start needs an interactive terminal")
	}

	library := bgm.NewLibrary(cfg.Library.Dir)
	if err := library.EnsureDir(); err != nil {
		zlog.Warn().Msgf("Track library unavailable: %v", err)
	}

	speaker := audio.NewSpeaker(audio.Config{
		SampleRate: cfg.Audio.SampleRate,
		BufferMs:   cfg.Audio.BufferMs,
	})
	player := playback.NewController(speaker, cfg.Audio.Volume)

	conv, err := importer.NewConverterFromConfig(cfg)
	if err != nil {
		zlog.Warn().Msgf("Import converter unavailable: %v", err)
	}
	task := importer.NewTask(conv, cfg.Library.Dir, nil)

	notifier, err := notification.NewManagerFromConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create presence notifiers")
	}
	defer notifier.Close()

	deps := session.Deps{
		Player:   player,
		Library:  library,
		Importer: task,
		Presence: presence.NewSync(notifier, nil),
	}

	if cfg.History.IsEnabled() {
		store, err := openHistory(cfg)
		if err != nil {
			zlog.Warn().Msgf("Run history disabled: %v", err)
		} else {
			defer store.Close()
			deps.History = store
		}
	}

	mgr := session.NewManager(cfg, deps)
	defer mgr.Close()

	zlog.Info().Msgf("focusbox started: library=%s notifiers=%d", cfg.Library.Dir, notifier.SubscriberCount())
	p := tea.NewProgram(tui.New(mgr, tui.Options{PollInterval: cfg.PollInterval()}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "terminal UI failed")
	}
	zlog.Info().Msg("focusbox stopped")
	return nil
}

func runTracks(ui *output.UI, cfg *config.Config) error {
	tracks, err := bgm.Scan(cfg.Library.Dir)
	if err != nil {
		ui.Warning("%v", err)
	}
	return ui.Tracks(cfg.Library.Dir, tracks)
}

func runImport(ui *output.UI, cfg *config.Config, url string) error {
	conv, err := importer.NewConverterFromConfig(cfg)
	if err != nil {
		return err
	}
	library := bgm.NewLibrary(cfg.Library.Dir)
	if err := library.EnsureDir(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	task := importer.NewTask(conv, library.Dir(), nil)
	if _, err := task.Submit(url); err != nil {
		return err
	}
	ui.Info("Importing %s with %s", url, conv.Name())
	ui.VerboseLog("Output directory: %s", library.Dir())

	job, err := task.Wait(ctx)
	if err != nil {
		return errors.Wrap(err, "import interrupted")
	}
	if job.Status == importer.StatusFailed {
		return errors.New(job.Message)
	}
	ui.Success("%s (%s)", job.Message, job.Elapsed(time.Now()).Round(time.Second))
	if job.OutputPath != "" {
		ui.VerboseLog("Saved to %s", job.OutputPath)
	}
	return nil
}

func runHistory(ui *output.UI, cfg *config.Config, limit int, pdfPath string) error {
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	runs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}

	if pdfPath == "" {
		return ui.Runs(runs)
	}
	if err := report.WritePDFFile(pdfPath, runs, time.Now()); err != nil {
		return err
	}
	ui.Success("Wrote %s", pdfPath)
	return nil
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open history %s", cfg.History.Path)
	}
	return store, nil
}
