package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/taalquest/internal/broker"
	"github.com/myrjola/taalquest/internal/config"
	"github.com/myrjola/taalquest/internal/core"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/logging"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/pprofserver"
)

type application struct {
	// ctx lives as long as the server and bounds the background jobs.
	ctx    context.Context //nolint:containedctx // background jobs outlive the request.
	logger *slog.Logger
	cfg    config.Config
	core   *core.App
	jobs   *broker.Broker[string, models.Progress]
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	cfg, err := config.Load(lookupEnv)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	if cfg.PprofPort != "" {
		// Listening on localhost so that it's not open to the world.
		pprofserver.Launch(ctx, cfg.PprofPort, logger)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := core.New(ctx, cfg, logger)
	if err != nil {
		return errors.Wrap(err, "create app")
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db", slog.String("url", cfg.SqliteURL))

	if a.HasCredential() {
		if err = a.CheckCredential(ctx); err != nil {
			logger.LogAttrs(ctx, slog.LevelWarn, "API key check failed", errors.SlogError(err))
		}
	}

	jobs := broker.New[string, models.Progress]()
	go jobs.Run(ctx)

	application := application{
		ctx:    ctx,
		logger: logger,
		cfg:    cfg,
		core:   a,
		jobs:   jobs,
	}
	return application.configureAndStartServer(ctx, cfg.Addr)
}

func main() {
	ctx := context.Background()
	// The .env file is optional, the environment may be configured otherwise.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.NewLogger(os.Stdout, slog.LevelInfo, true).LogAttrs(ctx, slog.LevelError, "error loading .env",
			errors.SlogError(err))
		os.Exit(1)
	}
	level, _ := os.LookupEnv("TAALQUEST_LOG_LEVEL")
	logger := logging.NewLogger(os.Stdout, logging.ParseLevel(level), true)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
