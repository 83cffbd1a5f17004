// Package income aggregates income- and capital-gain-
// classified activities into TOTAL/YTD/LAST_YEAR/TWO_YEARS_AGO period
// summaries.
package income

import (
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/fx"
	"github.com/shopspring/decimal"
)

// Period identifies one of the four required summary windows.
type Period string

const (
	PeriodTotal       Period = "TOTAL"
	PeriodYTD         Period = "YTD"
	PeriodLastYear    Period = "LAST_YEAR"
	PeriodTwoYearsAgo Period = "TWO_YEARS_AGO"
)

// Summary is one period's aggregation.
type Summary struct {
	Period          Period
	Total           decimal.Decimal
	ByMonth         map[string]decimal.Decimal // "YYYY-MM" -> amount
	ByType          map[domain.ActivityType]decimal.Decimal
	BySymbol        map[string]decimal.Decimal // asset id -> amount
	ByCurrency      map[string]decimal.Decimal
	ByMonthAndType  map[string]map[domain.ActivityType]decimal.Decimal
	MonthlyAverage  decimal.Decimal
	YoYGrowth       *decimal.Decimal
}

// RealizedSale is one SELL's realized gain inputs, supplied by the caller
// since capital-gain lots are relieved by the holdings calculator, not
// recomputed here.
type RealizedSale struct {
	AssetID      string
	Date         time.Time
	Currency     string
	SaleProceeds decimal.Decimal
	CostBasisSold decimal.Decimal
}

func newSummary(period Period) *Summary {
	return &Summary{
		Period:         period,
		ByMonth:        make(map[string]decimal.Decimal),
		ByType:         make(map[domain.ActivityType]decimal.Decimal),
		BySymbol:       make(map[string]decimal.Decimal),
		ByCurrency:     make(map[string]decimal.Decimal),
		ByMonthAndType: make(map[string]map[domain.ActivityType]decimal.Decimal),
	}
}

func (s *Summary) add(month string, activityType domain.ActivityType, assetID, currency string, amount decimal.Decimal) {
	s.Total = s.Total.Add(amount)
	s.ByMonth[month] = s.ByMonth[month].Add(amount)
	s.ByType[activityType] = s.ByType[activityType].Add(amount)
	if assetID != "" {
		s.BySymbol[assetID] = s.BySymbol[assetID].Add(amount)
	}
	s.ByCurrency[currency] = s.ByCurrency[currency].Add(amount)
	if s.ByMonthAndType[month] == nil {
		s.ByMonthAndType[month] = make(map[domain.ActivityType]decimal.Decimal)
	}
	s.ByMonthAndType[month][activityType] = s.ByMonthAndType[month][activityType].Add(amount)
}

// Aggregator computes the four period summaries from an account's income-
// eligible activities.
type Aggregator struct {
	converter *fx.Converter
}

// New builds an Aggregator over an already-loaded FX converter.
func New(converter *fx.Converter) *Aggregator {
	return &Aggregator{converter: converter}
}

// isIncomeActivity reports whether an activity type counts as income:
// DIVIDEND, INTEREST, or a categorized cash deposit.
func isIncomeActivity(a domain.Activity) bool {
	switch a.EffectiveType() {
	case domain.ActivityDividend, domain.ActivityInterest:
		return true
	case domain.ActivityDeposit, domain.ActivityCredit:
		return a.Subtype == domain.SubtypeBonus || a.Subtype == domain.SubtypeRebate || a.Subtype == domain.SubtypeRefund
	default:
		return false
	}
}

// Aggregate computes all four period summaries as of `now`, converting
// every amount to baseCurrency via the FX converter at the activity's own
// date.
func (a *Aggregator) Aggregate(activities []domain.Activity, sales []RealizedSale, baseCurrency string, now time.Time) (map[Period]*Summary, error) {
	summaries := map[Period]*Summary{
		PeriodTotal:       newSummary(PeriodTotal),
		PeriodYTD:         newSummary(PeriodYTD),
		PeriodLastYear:    newSummary(PeriodLastYear),
		PeriodTwoYearsAgo: newSummary(PeriodTwoYearsAgo),
	}

	var firstActivityDate *time.Time
	trackFirst := func(d time.Time) {
		if firstActivityDate == nil || d.Before(*firstActivityDate) {
			firstActivityDate = &d
		}
	}

	for _, act := range activities {
		if !isIncomeActivity(act) {
			continue
		}
		amountInBase, err := a.converter.Convert(act.Amount.Sub(act.Fee), act.Currency, baseCurrency, act.ActivityDate)
		if err != nil {
			return nil, err
		}
		trackFirst(act.Date())
		a.applyToPeriods(summaries, act.Date(), now, act.EffectiveType(), act.AssetID, baseCurrency, amountInBase)
	}

	for _, sale := range sales {
		gain := sale.SaleProceeds.Sub(sale.CostBasisSold)
		if gain.LessThanOrEqual(decimal.Zero) {
			continue // : capital gains included only when positive
		}
		gainInBase, err := a.converter.Convert(gain, sale.Currency, baseCurrency, sale.Date)
		if err != nil {
			return nil, err
		}
		trackFirst(sale.Date)
		a.applyToPeriods(summaries, sale.Date, now, domain.ActivitySell, sale.AssetID, baseCurrency, gainInBase)
	}

	for _, period := range []Period{PeriodTotal, PeriodYTD, PeriodLastYear, PeriodTwoYearsAgo} {
		s := summaries[period]
		s.MonthlyAverage = monthlyAverage(s.Total, period, firstActivityDate, now)
	}

	summaries[PeriodYTD].YoYGrowth = yoyGrowth(summaries[PeriodYTD].Total, summaries[PeriodLastYear].Total)
	summaries[PeriodLastYear].YoYGrowth = yoyGrowth(summaries[PeriodLastYear].Total, summaries[PeriodTwoYearsAgo].Total)

	return summaries, nil
}

func (a *Aggregator) applyToPeriods(summaries map[Period]*Summary, date, now time.Time, activityType domain.ActivityType, assetID, currency string, amount decimal.Decimal) {
	month := date.Format("2006-01")
	summaries[PeriodTotal].add(month, activityType, assetID, currency, amount)

	year := date.Year()
	nowYear := now.Year()
	switch {
	case year == nowYear:
		summaries[PeriodYTD].add(month, activityType, assetID, currency, amount)
	case year == nowYear-1:
		summaries[PeriodLastYear].add(month, activityType, assetID, currency, amount)
	case year == nowYear-2:
		summaries[PeriodTwoYearsAgo].add(month, activityType, assetID, currency, amount)
	}
}

// monthlyAverage divides total income by the effective number of months,
// respecting the first-ever activity date rather than naively using 12.
func monthlyAverage(total decimal.Decimal, period Period, firstActivityDate *time.Time, now time.Time) decimal.Decimal {
	months := effectiveMonths(period, firstActivityDate, now)
	if months <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(months)))
}

func effectiveMonths(period Period, firstActivityDate *time.Time, now time.Time) int {
	var windowStart, windowEnd time.Time
	switch period {
	case PeriodYTD:
		windowStart = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		windowEnd = now
	case PeriodLastYear:
		windowStart = time.Date(now.Year()-1, 1, 1, 0, 0, 0, 0, time.UTC)
		windowEnd = time.Date(now.Year()-1, 12, 31, 0, 0, 0, 0, time.UTC)
	case PeriodTwoYearsAgo:
		windowStart = time.Date(now.Year()-2, 1, 1, 0, 0, 0, 0, time.UTC)
		windowEnd = time.Date(now.Year()-2, 12, 31, 0, 0, 0, 0, time.UTC)
	default: // TOTAL
		if firstActivityDate == nil {
			return 0
		}
		windowStart = *firstActivityDate
		windowEnd = now
	}

	if firstActivityDate != nil && firstActivityDate.After(windowStart) {
		windowStart = *firstActivityDate
	}
	if windowEnd.Before(windowStart) {
		return 0
	}

	months := (windowEnd.Year()-windowStart.Year())*12 + int(windowEnd.Month()) - int(windowStart.Month()) + 1
	if months < 1 {
		months = 1
	}
	return months
}

// yoyGrowth is (current - previous) / previous, undefined (nil) when
// previous <= 0.
func yoyGrowth(current, previous decimal.Decimal) *decimal.Decimal {
	if previous.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	growth := current.Sub(previous).Div(previous)
	return &growth
}
