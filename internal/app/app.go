// Package app wires the media dedup bot together and runs its modes:
//
//   - Bot mode: live update poller, live dedup filter, operator commands and
//     background history scans over the in-process update journal
//   - Scan mode: one-shot history scan of a single channel over getUpdates
//
// The store is opened and migrated once by the caller and shared by every
// component.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-dedup-bot/internal/bot"
	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	"github.com/lueurxax/media-dedup-bot/internal/core/links"
	"github.com/lueurxax/media-dedup-bot/internal/core/ports"
	"github.com/lueurxax/media-dedup-bot/internal/platform/config"
	"github.com/lueurxax/media-dedup-bot/internal/platform/observability"
	"github.com/lueurxax/media-dedup-bot/internal/process/dedup"
	"github.com/lueurxax/media-dedup-bot/internal/process/fingerprint"
	"github.com/lueurxax/media-dedup-bot/internal/process/scanner"
	db "github.com/lueurxax/media-dedup-bot/internal/storage"
)

const (
	errBotInit = "bot initialization failed: %w"

	// scanDrainTimeout bounds how long shutdown waits for running scans.
	scanDrainTimeout = 30 * time.Second

	logFieldScope = "scope"
)

// Store is what the runtime needs from either storage backend.
type Store interface {
	ports.DedupStore
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close()
}

var (
	_ Store = (*db.DB)(nil)
	_ Store = (*db.SQLite)(nil)
)

// OpenStore connects to the backend selected by cfg.Driver. Migrations are
// left to the caller.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *zerolog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		store, err := db.NewWithOptions(ctx, cfg.PostgresDSN, db.PoolOptions{
			MaxConns:          cfg.MaxConnections,
			MinConns:          cfg.MinConnections,
			MaxConnIdleTime:   cfg.MaxConnIdleTime,
			MaxConnLifetime:   cfg.MaxConnLifetime,
			HealthCheckPeriod: cfg.HealthCheckPeriod,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}

		return store, nil
	case config.StoreDriverSQLite:
		store, err := db.OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}

		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg    *config.Config
	store  Store
	logger *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, store Store, logger *zerolog.Logger) *App {
	return &App{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.store, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// engine is the dedup machinery bound to one Bot API connection.
type engine struct {
	client  *bot.Client
	filter  *dedup.Filter
	scanner *scanner.Scanner
}

func (a *App) newEngine(api bot.API, feed ports.Feed) *engine {
	fetch := a.cfg.FileFetchCfg()
	tg := a.cfg.TelegramBotCfg()
	scan := a.cfg.ScanCfg()

	client := bot.NewClient(api, links.NewDownloader(fetch.RPS, fetch.Timeout, fetch.MaxBytes), tg.APIRPS)
	prints := fingerprint.New(client, a.logger)
	policy := dedup.RetryPolicy{Retries: scan.DeleteRetries, Delay: scan.DeleteRetryDelay}

	return &engine{
		client: client,
		filter: dedup.NewFilter(a.store, prints,
			dedup.NewRemover(client, policy, observability.SourceLive, a.logger), a.logger),
		scanner: scanner.New(feed, a.store, prints, client,
			dedup.NewRemover(client, policy, observability.SourceScan, a.logger), scannerConfig(scan), a.logger),
	}
}

func scannerConfig(c config.ScanConfig) scanner.Config {
	cfg := scanner.DefaultConfig()
	cfg.PageLimit = c.PageLimit
	cfg.PageTimeout = c.PageTimeout
	cfg.PageDelay = c.PageDelay
	cfg.ItemBatch = c.ItemBatch
	cfg.BatchDelay = c.BatchDelay
	cfg.PreDeleteDelay = c.PreDeleteDelay
	cfg.PhotoDelay = c.PhotoDelay
	cfg.ProgressDelay = c.ProgressDelay
	cfg.Cooldown = c.Cooldown

	return cfg
}

// RunBot runs the bot mode until ctx is canceled.
func (a *App) RunBot(ctx context.Context) error {
	a.logger.Info().Msg("Starting bot mode")

	api, err := bot.NewAPI(a.cfg.BotToken)
	if err != nil {
		return fmt.Errorf(errBotInit, err)
	}

	a.logger.Info().Str("username", api.Self.UserName).Msg("authorized on Telegram")

	return a.runBot(ctx, api, api.Self.ID)
}

func (a *App) runBot(ctx context.Context, api bot.API, selfID int64) error {
	tg := a.cfg.TelegramBotCfg()

	if len(tg.AdminIDs) == 0 {
		a.logger.Warn().Msg("ADMIN_IDS is empty, private chat commands are disabled")
	}

	journal := bot.NewJournal(tg.JournalSize)
	eng := a.newEngine(api, journal)
	coordinator := scanner.NewCoordinator(ctx, eng.scanner, a.logger)

	b := bot.New(tg, bot.Deps{
		API:      api,
		SelfID:   selfID,
		Client:   eng.client,
		Repo:     a.store,
		Filter:   eng.filter,
		Scans:    coordinator,
		Journal:  journal,
		Sessions: bot.NewSessionManager(tg.SessionTTL),
	}, a.logger)

	runErr := b.Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), scanDrainTimeout)
	defer cancel()

	if err := coordinator.Shutdown(drainCtx); err != nil {
		a.logger.Warn().Err(err).Msg("scans did not drain before shutdown")
	}

	if runErr != nil {
		return fmt.Errorf("bot run: %w", runErr)
	}

	return nil
}

// RunScan scans the history of one channel and returns when it is done.
func (a *App) RunScan(ctx context.Context, scope int64) (domain.ScanResult, error) {
	a.logger.Info().Int64(logFieldScope, scope).Msg("Starting scan mode")

	api, err := bot.NewAPI(a.cfg.BotToken)
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf(errBotInit, err)
	}

	return a.runScan(ctx, api, scope)
}

func (a *App) runScan(ctx context.Context, api bot.API, scope int64) (domain.ScanResult, error) {
	eng := a.newEngine(api, bot.NewUpdatesFeed(api))

	res, err := eng.scanner.Scan(ctx, scope)
	if err != nil {
		return res, fmt.Errorf("scan %d: %w", scope, err)
	}

	a.logger.Info().
		Int64(logFieldScope, scope).
		Int("processed", res.Processed).
		Int("duplicates", res.Duplicates).
		Int("failed", res.Failed).
		Msg("scan finished")

	return res, nil
}
