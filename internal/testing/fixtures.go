package testing

import (
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/shopspring/decimal"
)

// NewAssetFixtures returns a set of test assets covering the kinds the
// valuation and holdings calculators branch on: a priced security, a cash
// bucket, and an alternative (non-performance-eligible) asset.
func NewAssetFixtures() []domain.Asset {
	return []domain.Asset{
		{
			ID:          domain.SecurityAssetID("AAPL", "XNAS"),
			Kind:        domain.AssetSecurity,
			Symbol:      "AAPL",
			MIC:         "XNAS",
			Currency:    "USD",
			Name:        "Apple Inc.",
			PricingMode: domain.PricingMarket,
			IsActive:    true,
		},
		{
			ID:          domain.SecurityAssetID("VWCE", "XETR"),
			Kind:        domain.AssetSecurity,
			Symbol:      "VWCE",
			MIC:         "XETR",
			Currency:    "EUR",
			Name:        "Vanguard FTSE All-World UCITS ETF",
			PricingMode: domain.PricingMarket,
			IsActive:    true,
		},
		{
			ID:          domain.CashAssetID("USD"),
			Kind:        domain.AssetCash,
			Currency:    "USD",
			Name:        "USD Cash",
			PricingMode: domain.PricingNone,
			IsActive:    true,
		},
		{
			ID:          "PROP:primary-residence",
			Kind:        domain.AssetProperty,
			Currency:    "USD",
			Name:        "Primary Residence",
			PricingMode: domain.PricingManual,
			IsActive:    true,
		},
	}
}

// NewActivityFixtures returns a chronological set of activities for account
// "acct-1": a deposit, a buy, a dividend, and a partial sell.
func NewActivityFixtures() []domain.Activity {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []domain.Activity{
		{
			ID:           "act-1",
			AccountID:    "acct-1",
			ActivityType: domain.ActivityDeposit,
			Status:       domain.StatusPosted,
			ActivityDate: day(2024, time.January, 2),
			Amount:       decimal.NewFromInt(10000),
			Currency:     "USD",
		},
		{
			ID:           "act-2",
			AccountID:    "acct-1",
			AssetID:      domain.SecurityAssetID("AAPL", "XNAS"),
			ActivityType: domain.ActivityBuy,
			Status:       domain.StatusPosted,
			ActivityDate: day(2024, time.January, 5),
			Quantity:     decimal.NewFromInt(10),
			UnitPrice:    decimal.NewFromFloat(180.50),
			Amount:       decimal.NewFromFloat(1805.00),
			Fee:          decimal.NewFromFloat(1.00),
			Currency:     "USD",
		},
		{
			ID:           "act-3",
			AccountID:    "acct-1",
			AssetID:      domain.SecurityAssetID("AAPL", "XNAS"),
			ActivityType: domain.ActivityDividend,
			Status:       domain.StatusPosted,
			ActivityDate: day(2024, time.February, 15),
			Amount:       decimal.NewFromFloat(2.40),
			Currency:     "USD",
		},
		{
			ID:           "act-4",
			AccountID:    "acct-1",
			AssetID:      domain.SecurityAssetID("AAPL", "XNAS"),
			ActivityType: domain.ActivitySell,
			Status:       domain.StatusPosted,
			ActivityDate: day(2024, time.March, 1),
			Quantity:     decimal.NewFromInt(4),
			UnitPrice:    decimal.NewFromFloat(190.00),
			Amount:       decimal.NewFromFloat(760.00),
			Fee:          decimal.NewFromFloat(1.00),
			Currency:     "USD",
		},
	}
}

// NewQuoteFixtures returns a short daily price history for AAPL spanning
// the activity fixtures' date range.
func NewQuoteFixtures() []domain.Quote {
	assetID := domain.SecurityAssetID("AAPL", "XNAS")
	mk := func(y int, m time.Month, d int, close float64) domain.Quote {
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return domain.Quote{
			AssetID:   assetID,
			Day:       day,
			Open:      decimal.NewFromFloat(close),
			High:      decimal.NewFromFloat(close),
			Low:       decimal.NewFromFloat(close),
			Close:     decimal.NewFromFloat(close),
			AdjClose:  decimal.NewFromFloat(close),
			Volume:    decimal.NewFromInt(1000000),
			Currency:  "USD",
			Source:    "yahoo",
			CreatedAt: day,
		}
	}
	return []domain.Quote{
		mk(2024, time.January, 5, 180.50),
		mk(2024, time.February, 15, 185.00),
		mk(2024, time.March, 1, 190.00),
	}
}

// NewExchangeRateFixtures returns a small FX observation set sufficient to
// exercise a direct and a two-hop conversion (EUR->USD->GBP).
func NewExchangeRateFixtures() []domain.ExchangeRate {
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	return []domain.ExchangeRate{
		{FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.NewFromFloat(1.08), Timestamp: now, Source: "ecb"},
		{FromCurrency: "USD", ToCurrency: "GBP", Rate: decimal.NewFromFloat(0.79), Timestamp: now, Source: "ecb"},
	}
}
