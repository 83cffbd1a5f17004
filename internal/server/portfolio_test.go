package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/fx"
	"github.com/afadil/wealthfolio-sub005/internal/income"
	"github.com/afadil/wealthfolio-sub005/internal/quotestore"
	"github.com/afadil/wealthfolio-sub005/internal/snapshot"
	"github.com/afadil/wealthfolio-sub005/internal/storage"
	coretesting "github.com/afadil/wealthfolio-sub005/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPortfolioTestRouter(t *testing.T) (*chi.Mux, *storage.ActivityStore, *storage.AssetStore, *quotestore.Store, *storage.SnapshotStore) {
	t.Helper()
	db, cleanup := coretesting.NewTestDB(t)
	t.Cleanup(cleanup)

	activities := storage.NewActivityStore(db.Conn(), zerolog.Nop())
	assets := storage.NewAssetStore(db.Conn(), zerolog.Nop())
	quotes := quotestore.New(db.Conn(), zerolog.Nop())
	snapshots := storage.NewSnapshotStore(db.Conn(), zerolog.Nop())

	converter := fx.NewConverter()
	incomeAgg := income.New(converter)
	snapSvc := snapshot.New(snapshots, activities, nil, zerolog.Nop(), nil)

	h := NewPortfolioHandlers(snapSvc, activities, assets, quotes, converter, incomeAgg, "USD", zerolog.Nop())

	r := chi.NewRouter()
	r.Get("/accounts/{accountID}/snapshots", h.Snapshots)
	r.Get("/accounts/{accountID}/valuations", h.Valuations)
	r.Get("/accounts/{accountID}/performance", h.Performance)
	r.Get("/accounts/{accountID}/income", h.Income)
	return r, activities, assets, quotes, snapshots
}

func seedPortfolioFixtures(t *testing.T, activities *storage.ActivityStore, assets *storage.AssetStore, quotes *quotestore.Store, snapshots *storage.SnapshotStore) {
	t.Helper()
	ctx := context.Background()
	for _, a := range coretesting.NewAssetFixtures() {
		require.NoError(t, assets.Upsert(ctx, a))
	}
	require.NoError(t, activities.BulkUpsert(ctx, coretesting.NewActivityFixtures()))
	for _, q := range coretesting.NewQuoteFixtures() {
		require.NoError(t, quotes.UpsertQuote(ctx, q))
	}

	assetID := domain.SecurityAssetID("AAPL", "XNAS")
	day := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	snap := domain.AccountStateSnapshot{
		AccountID:    "acct-1",
		SnapshotDate: day,
		Currency:     "USD",
		CashBalances: map[string]decimal.Decimal{"USD": decimal.NewFromInt(8195)},
		Positions: map[string]domain.Position{
			assetID: {
				AccountID: "acct-1", AssetID: assetID,
				Quantity: decimal.NewFromInt(10), TotalCostBasis: decimal.NewFromInt(1805), AverageCost: decimal.NewFromFloat(180.50),
			},
		},
		CostBasis:       decimal.NewFromInt(1805),
		NetContribution: decimal.NewFromInt(10000),
		CalculatedAt:    day,
	}
	require.NoError(t, snapshots.SaveBatch(ctx, []domain.AccountStateSnapshot{snap}))
}

func TestPortfolioHandlers_Valuations_ComputesMarketValue(t *testing.T) {
	r, activities, assets, quotes, snapshots := newPortfolioTestRouter(t)
	seedPortfolioFixtures(t, activities, assets, quotes, snapshots)

	req := httptest.NewRequest(http.MethodGet, "/accounts/acct-1/valuations", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var valuations []domain.DailyAccountValuation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &valuations))
	require.Len(t, valuations, 1)
	assert.True(t, valuations[0].InvestmentMarketValue.Equal(decimal.NewFromInt(1805))) // 10 * 180.50
	assert.True(t, valuations[0].CashBalance.Equal(decimal.NewFromInt(8195)))
}

func TestPortfolioHandlers_Performance_EmptyRangeReturnsZero(t *testing.T) {
	r, _, _, _, _ := newPortfolioTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/accounts/acct-unknown/performance", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload performancePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "0", payload.TWR)
}

func TestPortfolioHandlers_Snapshots_InvalidFromDateIs400(t *testing.T) {
	r, _, _, _, _ := newPortfolioTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/accounts/acct-1/snapshots?from=not-a-date", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPortfolioHandlers_Income_AggregatesDividends(t *testing.T) {
	r, activities, assets, quotes, snapshots := newPortfolioTestRouter(t)
	seedPortfolioFixtures(t, activities, assets, quotes, snapshots)

	req := httptest.NewRequest(http.MethodGet, "/accounts/acct-1/income", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries map[string]income.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	total, ok := summaries[string(income.PeriodTotal)]
	require.True(t, ok)
	assert.False(t, total.Total.IsZero()) // the dividend fixture contributes
}
