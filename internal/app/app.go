package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/five82/printdeck/internal/config"
	"github.com/five82/printdeck/internal/logging"
	"github.com/five82/printdeck/internal/prefs"
	"github.com/five82/printdeck/internal/ui"
)

// Options configure the printdeck application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/printdeck/prefs.toml
	Device     string // overrides the configured device address
	Verbose    bool
}

// LoadConfig reads the config file and applies command-line overrides.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if d := strings.TrimSpace(opts.Device); d != "" {
		cfg.Device = d
	}
	return cfg, nil
}

// Run boots the printdeck TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	logging.SetVerbose(opts.Verbose)
	log, err := logging.NewFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = log.Close() }()

	engine, err := NewEngine(cfg, log, EngineOptions{})
	if err != nil {
		return err
	}
	log.Info().Str("device", engine.Client.BaseURL().String()).Msg("printdeck starting")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	engine.Start(ctx)

	// Populate the file pane before the first frame.
	go engine.Gateway.ListFiles(ctx)

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Actions:   engine.Gateway,
		Uploads:   engine.Uploads,
		Scheduler: engine.Scheduler,
		Device:    engine.Client.BaseURL().Host,
		LogPath:   cfg.LogFile,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
	})
	log.Info().Msg("printdeck stopped")
	return err
}
