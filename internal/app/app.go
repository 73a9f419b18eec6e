package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/kotoba-decks/internal/adapter/fetch"
	"github.com/heartmarshall/kotoba-decks/internal/adapter/postgres"
	"github.com/heartmarshall/kotoba-decks/internal/adapter/postgres/deckrow"
	"github.com/heartmarshall/kotoba-decks/internal/adapter/sqlite"
	"github.com/heartmarshall/kotoba-decks/internal/app/builder"
	"github.com/heartmarshall/kotoba-decks/internal/config"
)

// ErrBuildFailed is returned by Run when at least one phase failed.
var ErrBuildFailed = errors.New("build completed with errors")

// Options carries command-line overrides for Run.
type Options struct {
	ConfigPath string
	Phases     []string // empty: all phases
	DryRun     bool
}

// Run is the application entry point. It loads configuration, initializes
// the logger, opens the configured row store and runs the build pipeline
// under the configured timeout.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.DryRun {
		cfg.DryRun = true
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting build",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("store", cfg.Store.Driver),
		slog.Bool("dry_run", cfg.DryRun),
	)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	return build(ctx, logger, *cfg, opts.Phases)
}

func build(ctx context.Context, logger *slog.Logger, cfg config.Config, phases []string) error {
	var store builder.RowStore
	if !cfg.DryRun {
		s, closeStore, err := openStore(ctx, logger, cfg)
		if err != nil {
			logger.Error("open row store", slog.String("error", err.Error()))
			return err
		}
		defer closeStore()
		store = s
	}

	fetcher := fetch.NewFetcher(fetch.NewCache(cfg.Cache.Dir), logger)
	pipeline := builder.NewPipeline(logger, fetcher, store, cfg)

	if err := pipeline.Run(ctx, phases); err != nil {
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		return err
	}

	if pipeline.HasErrors() {
		logger.Warn("pipeline completed with errors", slog.String("run_id", pipeline.RunID().String()))
		return ErrBuildFailed
	}

	logger.Info("pipeline completed successfully", slog.String("run_id", pipeline.RunID().String()))
	return nil
}

// openStore connects the configured row store. For the "none" driver it
// returns a nil store, and the pipeline only writes files.
func openStore(ctx context.Context, logger *slog.Logger, cfg config.Config) (builder.RowStore, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Store.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := postgres.Migrate(ctx, cfg.Store.Postgres.DSN, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		return deckrow.New(pool, postgres.NewTxManager(pool)), pool.Close, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Store.SQLite.Path, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Warn("close sqlite", slog.String("error", err.Error()))
			}
		}, nil

	default:
		return nil, func() {}, nil
	}
}
