package planner

import (
	"testing"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanPortfolioJob_NilWhenNoRecalcEligibleEvents(t *testing.T) {
	events := []domain.DomainEvent{domain.AssetsMerged{From: "a", Into: "b"}}
	assert.Nil(t, PlanPortfolioJob(events, "USD"))
}

func TestPlanPortfolioJob_MergesAccountsAndAssetsDeduped(t *testing.T) {
	events := []domain.DomainEvent{
		domain.ActivitiesChanged{AccountIDs: []string{"acct-1", "acct-2"}, AssetIDs: []string{"SEC:AAPL:XNAS"}},
		domain.HoldingsChanged{AccountIDs: []string{"acct-1"}, AssetIDs: []string{"SEC:AAPL:XNAS", "SEC:MSFT:XNAS"}},
	}
	plan := PlanPortfolioJob(events, "USD")
	require.NotNil(t, plan)
	assert.Equal(t, []string{"acct-1", "acct-2"}, plan.AccountIDs)
	assert.Equal(t, []string{"SEC:AAPL:XNAS", "SEC:MSFT:XNAS"}, plan.MarketSyncMode.AssetIDs)
	assert.True(t, plan.ForceFullRecalculation)
}

func TestPlanPortfolioJob_CurrencyChangeAddsFxAsset(t *testing.T) {
	events := []domain.DomainEvent{
		domain.AccountsChanged{
			AccountIDs: []string{"acct-1"},
			CurrencyChanges: []domain.CurrencyChange{
				{AccountID: "acct-1", OldCcy: "USD", NewCcy: "EUR"},
			},
		},
	}
	plan := PlanPortfolioJob(events, "USD")
	require.NotNil(t, plan)
	assert.Contains(t, plan.MarketSyncMode.AssetIDs, "FX:EUR:USD")
	assert.NotContains(t, plan.MarketSyncMode.AssetIDs, "FX:USD:USD")
}

func TestPlanPortfolioJob_AssetsMergedAndTrackingModeContributeNothing(t *testing.T) {
	events := []domain.DomainEvent{
		domain.ManualSnapshotSaved{AccountID: "acct-1"},
		domain.AssetsMerged{From: "x", Into: "y"},
		domain.TrackingModeChanged{AccountID: "acct-2", OldMode: domain.TrackingNotSet, NewMode: domain.TrackingHoldings},
	}
	plan := PlanPortfolioJob(events, "USD")
	require.NotNil(t, plan)
	assert.Equal(t, []string{"acct-1"}, plan.AccountIDs)
}

func TestPlanBrokerSync_OnlyQualifyingTransitions(t *testing.T) {
	events := []domain.DomainEvent{
		domain.TrackingModeChanged{AccountID: "acct-1", OldMode: domain.TrackingNotSet, NewMode: domain.TrackingHoldings, IsConnected: true},
		domain.TrackingModeChanged{AccountID: "acct-2", OldMode: domain.TrackingHoldings, NewMode: domain.TrackingTransactions, IsConnected: true},
		domain.TrackingModeChanged{AccountID: "acct-3", OldMode: domain.TrackingTransactions, NewMode: domain.TrackingHoldings, IsConnected: true}, // not a qualifying transition
		domain.TrackingModeChanged{AccountID: "acct-4", OldMode: domain.TrackingNotSet, NewMode: domain.TrackingHoldings, IsConnected: false},      // not connected
	}
	accountIDs := PlanBrokerSync(events)
	assert.Equal(t, []string{"acct-1", "acct-2"}, accountIDs)
}

func TestPlanAssetEnrichment_DedupesAcrossEvents(t *testing.T) {
	events := []domain.DomainEvent{
		domain.AssetsCreated{AssetIDs: []string{"a", "b"}},
		domain.AssetsCreated{AssetIDs: []string{"b", "c"}},
	}
	assert.Equal(t, []string{"a", "b", "c"}, PlanAssetEnrichment(events))
}
