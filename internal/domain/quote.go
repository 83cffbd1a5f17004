package domain

import (
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/shopspring/decimal"
)

// Quote is one day's OHLC price for an asset.
type Quote struct {
	AssetID   string
	Day       time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	AdjClose  decimal.Decimal
	Volume    decimal.Decimal
	Currency  string
	Source    string
	CreatedAt time.Time
}

// Validate enforces the OHLC and positivity invariants: a
// quote with close <= 0 is invalid at ingestion.
func (q Quote) Validate() error {
	if q.Close.LessThanOrEqual(decimal.Zero) {
		return coreerrors.NewValidationError("quote close must be > 0")
	}
	if q.Low.GreaterThan(q.Open) || q.Low.GreaterThan(q.Close) {
		return coreerrors.NewValidationError("quote low must be <= open and <= close")
	}
	if q.High.LessThan(q.Open) || q.High.LessThan(q.Close) {
		return coreerrors.NewValidationError("quote high must be >= open and >= close")
	}
	if q.Volume.LessThan(decimal.Zero) {
		return coreerrors.NewValidationError("quote volume must be >= 0")
	}
	if q.Currency == "" {
		return coreerrors.NewValidationError("quote currency must not be empty")
	}
	return nil
}

// ExchangeRate is one observation of a currency pair's conversion rate.
type ExchangeRate struct {
	FromCurrency string
	ToCurrency   string
	Rate         decimal.Decimal
	Timestamp    time.Time
	Source       string
}

// Validate enforces rate > 0.
func (r ExchangeRate) Validate() error {
	if r.Rate.LessThanOrEqual(decimal.Zero) {
		return coreerrors.NewValidationError("exchange rate must be > 0")
	}
	return nil
}

// QuoteSyncState tracks per-asset sync activity.
type QuoteSyncState struct {
	AssetID            string
	IsActive           bool
	PositionClosedDate *time.Time
	LastSyncedAt       *time.Time
	DataSource         string
	SyncPriority       int
	ErrorCount         int
	LastError          string
	ProfileEnrichedAt  *time.Time
}

// DailyAccountValuation is a snapshot joined with quotes and FX, denominated
// in both the account and base currency.
type DailyAccountValuation struct {
	AccountID                string
	ValuationDate            time.Time
	AccountCurrency          string
	BaseCurrency             string
	FxRateToBase             decimal.Decimal
	CashBalance              decimal.Decimal
	InvestmentMarketValue    decimal.Decimal
	PerformanceEligibleValue decimal.Decimal
	TotalValue               decimal.Decimal
	CostBasis                decimal.Decimal
	NetContribution          decimal.Decimal
	Warnings                 []string
}
