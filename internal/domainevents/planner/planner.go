// Package planner turns a batch of domain events into
// recalculation plans for the snapshot/valuation pipeline, broker-sync
// account lists, and asset-enrichment queues.
package planner

import (
	"fmt"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
)

// orderedSet preserves first-seen insertion order while deduplicating,
// matching "plan output depends only on set semantics... but the
// planner processes events in insertion order" note: the inputs are
// deduplicated, but we still want deterministic, reproducible output
// ordering for tests and logs.
type orderedSet struct {
	seen  map[string]bool
	order []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	if v == "" || s.seen[v] {
		return
	}
	s.seen[v] = true
	s.order = append(s.order, v)
}

func (s *orderedSet) addAll(vs []string) {
	for _, v := range vs {
		s.add(v)
	}
}

func (s *orderedSet) slice() []string {
	if len(s.order) == 0 {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// PlanPortfolioJob implements plan_portfolio_job: merges
// account/asset ids across recalc-eligible events and returns nil if none
// were seen.
func PlanPortfolioJob(events []domain.DomainEvent, baseCurrency string) *domain.PortfolioJobConfig {
	accountIDs := newOrderedSet()
	assetIDs := newOrderedSet()
	sawRecalcEligible := false

	for _, evt := range events {
		switch e := evt.(type) {
		case domain.ActivitiesChanged:
			sawRecalcEligible = true
			accountIDs.addAll(e.AccountIDs)
			assetIDs.addAll(e.AssetIDs)
		case domain.HoldingsChanged:
			sawRecalcEligible = true
			accountIDs.addAll(e.AccountIDs)
			assetIDs.addAll(e.AssetIDs)
		case domain.AccountsChanged:
			sawRecalcEligible = true
			accountIDs.addAll(e.AccountIDs)
			for _, change := range e.CurrencyChanges {
				if change.NewCcy != baseCurrency {
					assetIDs.add(fmt.Sprintf("FX:%s:%s", change.NewCcy, baseCurrency))
				}
				if change.OldCcy != baseCurrency {
					assetIDs.add(fmt.Sprintf("FX:%s:%s", change.OldCcy, baseCurrency))
				}
			}
		case domain.ManualSnapshotSaved:
			sawRecalcEligible = true
			accountIDs.add(e.AccountID)
		case domain.AssetsCreated:
			assetIDs.addAll(e.AssetIDs) // contributes ids only, not a recalc trigger
		case domain.AssetsMerged, domain.TrackingModeChanged:
			// contribute nothing to the portfolio plan
		}
	}

	if !sawRecalcEligible {
		return nil
	}

	return &domain.PortfolioJobConfig{
		AccountIDs: accountIDs.slice(),
		MarketSyncMode: domain.MarketSyncMode{
			Mode:     domain.SyncIncremental,
			AssetIDs: assetIDs.slice(),
		},
		ForceFullRecalculation: true,
	}
}

// brokerSyncTransitions enumerates the TrackingMode transitions that
// trigger a broker sync.
var brokerSyncTransitions = map[[2]domain.TrackingMode]bool{
	{domain.TrackingNotSet, domain.TrackingTransactions}: true,
	{domain.TrackingNotSet, domain.TrackingHoldings}:     true,
	{domain.TrackingHoldings, domain.TrackingTransactions}: true,
}

// PlanBrokerSync implements plan_broker_sync.
func PlanBrokerSync(events []domain.DomainEvent) []string {
	accountIDs := newOrderedSet()
	for _, evt := range events {
		e, ok := evt.(domain.TrackingModeChanged)
		if !ok {
			continue
		}
		if !e.IsConnected || e.OldMode == e.NewMode {
			continue
		}
		if brokerSyncTransitions[[2]domain.TrackingMode{e.OldMode, e.NewMode}] {
			accountIDs.add(e.AccountID)
		}
	}
	return accountIDs.slice()
}

// PlanAssetEnrichment implements plan_asset_enrichment: the
// deduplicated union of asset ids across every AssetsCreated event.
func PlanAssetEnrichment(events []domain.DomainEvent) []string {
	assetIDs := newOrderedSet()
	for _, evt := range events {
		e, ok := evt.(domain.AssetsCreated)
		if !ok {
			continue
		}
		assetIDs.addAll(e.AssetIDs)
	}
	return assetIDs.slice()
}
