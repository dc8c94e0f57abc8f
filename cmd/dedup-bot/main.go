package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-dedup-bot/internal/app"
	"github.com/lueurxax/media-dedup-bot/internal/platform/config"
	"github.com/lueurxax/media-dedup-bot/internal/platform/lockfile"
)

const lockName = "media_dedup_bot.lock"

func main() {
	mode := flag.String("mode", "bot", "Service mode (bot, scan)")
	chat := flag.Int64("chat", 0, "Channel id to scan (scan mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	if (*mode != "bot" && *mode != "scan") || (*mode == "scan" && *chat == 0) {
		log.Fatalf("Usage: %s --mode=[bot|scan] [--chat=-100...]", os.Args[0])
	}

	// Two pollers on one token make getUpdates fail with a conflict.
	lock, err := lockfile.Acquire(cfg.LockDir, lockName, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to acquire instance lock")
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg.DatabaseCfg(), &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application := app.New(cfg, store, &logger)

	if err := runMode(ctx, application, *mode, *chat, &logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Error().Err(err).Msg("application error")

		stop()
		store.Close()
		lock.Release()
		os.Exit(1)
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode string, chat int64, logger *zerolog.Logger) error {
	switch mode {
	case "scan":
		_, err := application.RunScan(ctx, chat)
		return err
	default:
		go func() {
			if err := application.StartHealthServer(ctx); err != nil {
				logger.Error().Err(err).Msg("health check server error")
			}
		}()

		return application.RunBot(ctx)
	}
}
