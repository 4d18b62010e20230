package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"profilegrid/cmd/profilegrid/ui"
	"profilegrid/internal/config"
	"profilegrid/internal/logging"
)

// runInteractive launches the grid. The config file is watched and reloads
// are forwarded to the UI; edits that fail validation are ignored.
func runInteractive(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	updates := make(chan *config.Config, 1)
	watcher, err := config.NewWatcher(a.configPath, func(cfg *config.Config) {
		a.reload(cfg)
		select {
		case updates <- cfg:
		default:
			logging.ConfigWarn("Dropping config reload, previous one not yet applied")
		}
	})
	if err != nil {
		logging.ConfigWarn("Config hot reload unavailable: %v", err)
	} else if err := watcher.Start(ctx); err != nil {
		logging.ConfigWarn("Config hot reload unavailable: %v", err)
	} else {
		defer watcher.Stop()
	}

	logging.Boot("Starting interactive grid")
	return ui.Run(ctx, ui.Config{
		Manager:       a.manager,
		Scroll:        ui.ScrollOptions(a.cfg),
		ConfigUpdates: updates,
	})
}
