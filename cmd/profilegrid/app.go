package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"profilegrid/internal/collection"
	"profilegrid/internal/config"
	"profilegrid/internal/logging"
	"profilegrid/internal/persist"
	"profilegrid/internal/randomuser"
	"profilegrid/internal/store"
)

// app is the wired set of components shared by every command.
type app struct {
	workspace  string
	configPath string
	cfg        *config.Config
	kv         store.KV
	manager    *collection.Manager
}

func resolveWorkspace() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}

// openApp loads configuration and wires storage, the API client and the
// collection manager. Loading-indicator floors and background store writes
// are only used by the interactive grid.
func openApp(ctx context.Context, interactive bool) (*app, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace: %w", err)
	}
	if err := config.LoadDotEnv(ws); err != nil {
		return nil, err
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath(ws)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := logging.Initialize(config.LogsDir(ws), cfg.Logging.Options()); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if verbose {
		logging.SetLevel("debug")
	}
	logging.Boot("Workspace %s, config %s", ws, path)

	kv, err := store.Open(ctx, storeOptions(cfg, ws))
	if err != nil {
		logging.CloseAll()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if sq, ok := kv.(*store.SQLiteKV); ok {
		logging.Boot("Storage: sqlite %s", sq.Path())
	}

	opts := []collection.Option{collection.WithBatchSize(cfg.API.ResultsPerPage)}
	if interactive {
		opts = append(opts, collection.WithMinDurations(
			cfg.GetGenerateMinDuration(),
			cfg.GetLoadMoreButtonMinDuration(),
			cfg.GetLoadMoreScrollMinDuration(),
		), collection.WithBackgroundWrites())
	} else {
		opts = append(opts, collection.WithMinDurations(0, 0, 0))
	}

	client := randomuser.New(cfg.API.BaseURL, clientOptions(cfg)...)
	mgr := collection.New(client, persist.New(kv), opts...)

	return &app{
		workspace:  ws,
		configPath: path,
		cfg:        cfg,
		kv:         kv,
		manager:    mgr,
	}, nil
}

// reload applies the settings that take effect without a restart: the log
// level and the loading-indicator floors. Storage and API settings are read
// once by openApp.
func (a *app) reload(cfg *config.Config) {
	logging.SetLevel(cfg.Logging.Level)
	a.manager.SetMinDurations(
		cfg.GetGenerateMinDuration(),
		cfg.GetLoadMoreButtonMinDuration(),
		cfg.GetLoadMoreScrollMinDuration(),
	)
	logging.Config("Reloaded log level and loading floors")
}

func (a *app) Close() {
	a.manager.Flush()
	if err := a.kv.Close(); err != nil {
		logging.StoreError("Failed to close storage: %v", err)
	}
	logging.CloseAll()
}

func storeOptions(cfg *config.Config, ws string) store.Options {
	opts := store.Options{
		Backend:       cfg.Storage.Backend,
		Path:          cfg.StoragePath(ws),
		RedisAddr:     cfg.Storage.RedisAddr,
		RedisPassword: cfg.Storage.RedisPassword,
		RedisDB:       cfg.Storage.RedisDB,
		KeyPrefix:     cfg.Storage.KeyPrefix,
	}
	if ephemeral {
		opts.Backend = store.BackendMemory
	}
	return opts
}

func clientOptions(cfg *config.Config) []randomuser.Option {
	opts := []randomuser.Option{randomuser.WithProxy(cfg.API.Proxy, cfg.API.NoProxy)}
	if d := cfg.GetAPITimeout(); d > 0 {
		opts = append(opts, randomuser.WithTimeout(d))
	}
	if cfg.API.Seed != "" {
		opts = append(opts, randomuser.WithSeed(cfg.API.Seed))
	}
	if cfg.API.UserAgent != "" {
		opts = append(opts, randomuser.WithUserAgent(cfg.API.UserAgent))
	}
	return opts
}
