// Package valuation turns one day's AccountStateSnapshot
// into a DailyAccountValuation using that day's quotes and FX rates.
package valuation

import (
	"fmt"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/fx"
	"github.com/shopspring/decimal"
)

// minorUnitCurrencies maps a minor-unit quote currency (e.g. pence) to its
// major-unit form and the divisor normalize() applies (step 2:
// "some exchanges quote in minor units such as GBp").
var minorUnitCurrencies = map[string]struct {
	major   string
	divisor int64
}{
	"GBp": {major: "GBP", divisor: 100},
	"ZAc": {major: "ZAR", divisor: 100},
	"ILa": {major: "ILS", divisor: 100},
}

// Calculator computes DailyAccountValuation from a snapshot and day's market
// data.
type Calculator struct{}

// New returns a ready Calculator.
func New() *Calculator {
	return &Calculator{}
}

// AssetLookup resolves an asset id to its kind, used to exclude alternative
// assets from performance-eligible value.
type AssetLookup func(assetID string) (domain.Asset, bool)

// Valuate implements algorithm. quotesOfDay maps asset id to
// that day's quote; fxOfDay is queried through converter (already loaded
// with that day's rates) rather than a raw map, since conversion may
// require a multi-hop path.
func (c *Calculator) Valuate(
	snapshot domain.AccountStateSnapshot,
	quotesOfDay map[string]domain.Quote,
	converter *fx.Converter,
	targetDate time.Time,
	baseCurrency string,
	lookupAsset AssetLookup,
) (domain.DailyAccountValuation, error) {
	v := domain.DailyAccountValuation{
		AccountID:       snapshot.AccountID,
		ValuationDate:   targetDate,
		AccountCurrency: snapshot.Currency,
		BaseCurrency:    baseCurrency,
		CostBasis:       snapshot.CostBasis,
		NetContribution: snapshot.NetContribution,
	}

	investmentValue := decimal.Zero
	performanceEligibleValue := decimal.Zero
	for assetID, pos := range snapshot.Positions {
		if !domain.IsSignificant(pos.Quantity) {
			continue
		}
		quote, hasQuote := quotesOfDay[assetID]
		if !hasQuote {
			v.Warnings = append(v.Warnings, fmt.Sprintf("no quote for asset %s on %s; market value contribution is 0", assetID, targetDate.Format("2006-01-02")))
			continue
		}

		quoteCcy := quote.Currency
		if minor, ok := minorUnitCurrencies[quoteCcy]; ok {
			quoteCcy = minor.major
		}
		normalized := normalizeAmount(quote.Close, quote.Currency)
		converted, err := converter.Convert(normalized, quoteCcy, snapshot.Currency, targetDate)
		if err != nil {
			v.Warnings = append(v.Warnings, fmt.Sprintf("no fx rate %s->%s on %s; market value contribution is 0 for asset %s", quoteCcy, snapshot.Currency, targetDate.Format("2006-01-02"), assetID))
			continue
		}
		marketValue := pos.Quantity.Mul(converted)

		investmentValue = investmentValue.Add(marketValue)
		if !isAlternative(assetID, lookupAsset) {
			performanceEligibleValue = performanceEligibleValue.Add(marketValue)
		}
	}
	v.InvestmentMarketValue = investmentValue
	v.PerformanceEligibleValue = performanceEligibleValue

	cashValue := decimal.Zero
	for ccy, balance := range snapshot.CashBalances {
		if balance.IsZero() {
			continue
		}
		converted, err := converter.Convert(balance, ccy, snapshot.Currency, targetDate)
		if err != nil {
			return domain.DailyAccountValuation{}, coreerrors.NewRateNotFoundError(ccy, snapshot.Currency, targetDate.Format("2006-01-02"))
		}
		cashValue = cashValue.Add(converted)
	}
	v.CashBalance = cashValue
	v.TotalValue = v.InvestmentMarketValue.Add(v.CashBalance)

	if snapshot.Currency == baseCurrency {
		v.FxRateToBase = decimal.NewFromInt(1)
	} else {
		rate, err := converter.GetRate(snapshot.Currency, baseCurrency, targetDate)
		if err != nil {
			return domain.DailyAccountValuation{}, coreerrors.NewRateNotFoundError(snapshot.Currency, baseCurrency, targetDate.Format("2006-01-02"))
		}
		v.FxRateToBase = rate
	}

	return v, nil
}

func isAlternative(assetID string, lookup AssetLookup) bool {
	if lookup == nil {
		return false
	}
	asset, ok := lookup(assetID)
	if !ok {
		return false
	}
	return asset.IsAlternative()
}

// normalizeAmount converts a minor-unit quoted price (e.g. GBp) to its
// major-unit form before any FX conversion step 2.
func normalizeAmount(amount decimal.Decimal, currency string) decimal.Decimal {
	minor, ok := minorUnitCurrencies[currency]
	if !ok {
		return amount
	}
	return amount.Div(decimal.NewFromInt(minor.divisor))
}
