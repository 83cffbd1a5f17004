// Command server is the entry point for the portfolio computation core: a
// single-SQLite-file service that ingests activities, maintains daily
// holdings snapshots, syncs market data, and serves valuations/performance/
// income over HTTP. Startup sequencing: load config, build the logger,
// open the database, wire repositories and calculators, then start the
// scheduler and HTTP server before blocking on a shutdown signal.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/backup"
	"github.com/afadil/wealthfolio-sub005/internal/config"
	"github.com/afadil/wealthfolio-sub005/internal/database"
	"github.com/afadil/wealthfolio-sub005/internal/fx"
	"github.com/afadil/wealthfolio-sub005/internal/income"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/providers"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/ratelimit"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/registry"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/resolver"
	"github.com/afadil/wealthfolio-sub005/internal/quotestore"
	"github.com/afadil/wealthfolio-sub005/internal/scheduler"
	"github.com/afadil/wealthfolio-sub005/internal/scheduler/jobs"
	"github.com/afadil/wealthfolio-sub005/internal/server"
	"github.com/afadil/wealthfolio-sub005/internal/snapshot"
	"github.com/afadil/wealthfolio-sub005/internal/storage"
	"github.com/afadil/wealthfolio-sub005/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)
	log.Info().Msg("starting portfolio core")

	dbPath := filepath.Join(cfg.DataDir, "core.db")
	db, err := database.New(database.Config{
		Path:    dbPath,
		Profile: database.ProfileStandard,
		Name:    "core",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	settingsStore := storage.NewSettingsStore(db.Conn(), log)
	if err := cfg.RefreshFromSettings(settingsStore); err != nil {
		log.Warn().Err(err).Msg("failed to refresh config from settings, using environment defaults")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	activityStore := storage.NewActivityStore(db.Conn(), log)
	assetStore := storage.NewAssetStore(db.Conn(), log)
	snapshotStore := storage.NewSnapshotStore(db.Conn(), log)
	exchangeRateStore := storage.NewExchangeRateStore(db.Conn(), log)
	quoteStore := quotestore.New(db.Conn(), log)
	syncStateStore := quotestore.NewSyncStateStore(db.Conn(), log)

	converter := fx.NewConverter()
	rates, err := exchangeRateStore.LoadAll(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load exchange rates")
	}
	for _, rate := range rates {
		if err := converter.IngestExchangeRate(rate); err != nil {
			log.Warn().Err(err).Str("from", rate.FromCurrency).Str("to", rate.ToCurrency).Msg("skipping malformed exchange rate")
		}
	}
	log.Info().Int("rates_loaded", len(rates)).Msg("fx converter bootstrapped")

	feedHandlers := server.NewFeedHandlers(log)

	snapshotSvc := snapshot.New(snapshotStore, activityStore, feedHandlers, log, time.Now)

	resolverChain, err := resolver.NewChain()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build resolver chain")
	}

	limiterRegistry := ratelimit.NewRegistry(ratelimit.Limits{
		RequestsPerMinute: cfg.DefaultRateLimitPerMinute,
		Burst:             cfg.DefaultRateLimitBurst,
	}, nil)

	var activeProviders []registry.Provider
	activeProviders = append(activeProviders, providers.NewYahooProvider(log))
	if cfg.AlphaVantageAPIKey != "" {
		activeProviders = append(activeProviders, providers.NewAlphaVantageProvider(cfg.AlphaVantageAPIKey, log))
	} else {
		log.Warn().Msg("ALPHAVANTAGE_API_KEY not set, skipping AlphaVantage provider")
	}

	providerRegistry := registry.New(
		activeProviders,
		resolverChain,
		limiterRegistry,
		cfg.CircuitBreakerFailureThreshold,
		cfg.CircuitBreakerCoolOff,
		log,
	)

	incomeAggregator := income.New(converter)

	uploader, err := backup.NewUploader(context.Background(), cfg.Backup)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure backup uploader")
	}
	backupSvc := backup.New(db.Conn(), uploader, log)

	sched := scheduler.New(log)
	quoteSyncJob := jobs.NewQuoteSyncJob(assetStore, syncStateStore, quoteStore, providerRegistry, log)
	maintenanceJob := jobs.NewMaintenanceJob(db, backupSvc, filepath.Join(cfg.DataDir, "backups"), log)

	if err := sched.AddJob("0 */15 * * * *", quoteSyncJob); err != nil {
		log.Fatal().Err(err).Msg("failed to register quote sync job")
	}
	if err := sched.AddJob("0 0 2 * * *", maintenanceJob); err != nil {
		log.Fatal().Err(err).Msg("failed to register daily maintenance job")
	}
	sched.Start()
	defer sched.Stop()

	activityHandlers := server.NewActivityHandlers(activityStore, log)
	assetHandlers := server.NewAssetHandlers(assetStore, feedHandlers, log)
	portfolioHandlers := server.NewPortfolioHandlers(
		snapshotSvc,
		activityStore,
		assetStore,
		quoteStore,
		converter,
		incomeAggregator,
		cfg.BaseCurrency,
		log,
	)
	syncHandlers := server.NewSyncHandlers(quoteSyncJob, snapshotSvc, log)

	srv := server.New(server.Deps{
		Log:        log,
		DB:         db,
		Config:     cfg,
		Activities: activityHandlers,
		Assets:     assetHandlers,
		Portfolio:  portfolioHandlers,
		Sync:       syncHandlers,
		Feed:       feedHandlers,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("http server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := srv.Shutdown(); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("shutdown complete")
}
