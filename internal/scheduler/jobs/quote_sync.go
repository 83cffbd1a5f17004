// Package jobs holds the cron-invoked jobs registered with
// internal/scheduler: each implements the scheduler's Run()/Name() job
// shape, scoped to the portfolio core's single database and market-data
// registry.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/registry"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/resolver"
	"github.com/afadil/wealthfolio-sub005/internal/quotestore"
	"github.com/rs/zerolog"
)

// AssetLister supplies the assets a sync sweep should consider.
type AssetLister interface {
	ListActive(ctx context.Context) ([]domain.Asset, error)
	Get(ctx context.Context, id string) (domain.Asset, error)
}

// QuoteSyncJob performs an incremental sync of every active asset's quotes,
// following window rule via quotestore.IncrementalWindow.
type QuoteSyncJob struct {
	assets    AssetLister
	syncState *quotestore.SyncStateStore
	quotes    *quotestore.Store
	registry  *registry.Registry
	clock     func() time.Time
	log       zerolog.Logger
}

// NewQuoteSyncJob builds a QuoteSyncJob.
func NewQuoteSyncJob(assets AssetLister, syncState *quotestore.SyncStateStore, quotes *quotestore.Store, reg *registry.Registry, log zerolog.Logger) *QuoteSyncJob {
	return &QuoteSyncJob{
		assets:    assets,
		syncState: syncState,
		quotes:    quotes,
		registry:  reg,
		clock:     time.Now,
		log:       log.With().Str("job", "quote_sync").Logger(),
	}
}

// Name satisfies scheduler.Job.
func (j *QuoteSyncJob) Name() string { return "quote_sync" }

// Run satisfies scheduler.Job: a full sweep over every priced, active asset.
func (j *QuoteSyncJob) Run() error {
	return j.RunWithMode(context.Background(), domain.MarketSyncMode{Mode: domain.SyncFull})
}

// RunWithMode fetches the incremental window of historical quotes and
// persists them, scoped by mode: None skips the sweep entirely, Incremental
// with AssetIDs set syncs only those assets, and Full (or Incremental with
// no AssetIDs) syncs every priced, active asset.
func (j *QuoteSyncJob) RunWithMode(ctx context.Context, mode domain.MarketSyncMode) error {
	if mode.Mode == domain.SyncNone {
		return nil
	}

	assets, err := j.assetsForMode(ctx, mode)
	if err != nil {
		return fmt.Errorf("quote sync: resolve assets: %w", err)
	}

	today := j.clock()
	var firstErr error
	for _, asset := range assets {
		if !asset.NeedsPricing() {
			continue
		}
		if err := j.syncOne(ctx, asset, today); err != nil {
			j.log.Warn().Err(err).Str("asset_id", asset.ID).Msg("quote sync failed for asset")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (j *QuoteSyncJob) assetsForMode(ctx context.Context, mode domain.MarketSyncMode) ([]domain.Asset, error) {
	if mode.Mode == domain.SyncIncremental && len(mode.AssetIDs) > 0 {
		assets := make([]domain.Asset, 0, len(mode.AssetIDs))
		for _, id := range mode.AssetIDs {
			asset, err := j.assets.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			assets = append(assets, asset)
		}
		return assets, nil
	}
	return j.assets.ListActive(ctx)
}

func (j *QuoteSyncJob) syncOne(ctx context.Context, asset domain.Asset, today time.Time) error {
	state, err := j.syncState.Get(ctx, asset.ID)
	if err != nil {
		return err
	}
	if !state.IsActive {
		return nil
	}

	start, end := quotestore.IncrementalWindow(state, today)
	instrument, err := toInstrument(asset)
	if err != nil {
		return err
	}

	quotes, err := j.registry.GetHistoricalQuotes(ctx, resolver.QuoteContext{
		Instrument:        instrument,
		Overrides:         providerOverridesToSymbols(asset),
		CurrencyHint:      asset.Currency,
		PreferredProvider: asset.PreferredProvider,
	}, start, end)
	if err != nil {
		state.ErrorCount++
		state.LastError = err.Error()
		_ = j.syncState.Upsert(ctx, state)
		return err
	}

	for _, q := range quotes {
		q.AssetID = asset.ID
		q.CreatedAt = today
		if err := j.quotes.UpsertQuote(ctx, q); err != nil {
			return err
		}
	}

	state.ErrorCount = 0
	state.LastError = ""
	state.LastSyncedAt = &today
	return j.syncState.Upsert(ctx, state)
}

func providerOverridesToSymbols(asset domain.Asset) map[string]string {
	if len(asset.ProviderOverrides) == 0 {
		return nil
	}
	out := make(map[string]string, len(asset.ProviderOverrides))
	for providerID, inst := range asset.ProviderOverrides {
		out[providerID] = inst.Symbol
	}
	return out
}

// toInstrument maps an asset catalog entry to the resolver's Instrument
// variant for its kind.
func toInstrument(asset domain.Asset) (resolver.Instrument, error) {
	switch asset.Kind {
	case domain.AssetSecurity:
		return resolver.Equity{Ticker: asset.Symbol, MIC: asset.MIC}, nil
	case domain.AssetCrypto:
		return resolver.Crypto{Base: asset.Symbol, Quote: asset.Currency}, nil
	case domain.AssetPreciousMetal:
		return resolver.Metal{Symbol: asset.Symbol, Quote: asset.Currency}, nil
	case domain.AssetFxRate:
		parts := strings.Split(asset.ID, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed fx asset id %q", asset.ID)
		}
		return resolver.Fx{Base: parts[1], Quote: parts[2]}, nil
	default:
		return nil, fmt.Errorf("asset kind %s has no market-data instrument mapping", asset.Kind)
	}
}
