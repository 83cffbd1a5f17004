// Package performance computes simple gain, Modified-Dietz TWR, IRR
// (MWR) via Newton's method with bisection fallback, and day gain.
// Root-finding operates on float64; shopspring/decimal has no
// exponentiation operator, and everything here is a derived percentage
// rather than money, so converting to float64 at the boundary keeps the
// Newton/bisection code straightforward, the same way derived-ratio
// statistics helpers elsewhere in this codebase work in float64.
package performance

import (
	"math"
	"sort"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/flowclassifier"
	"github.com/shopspring/decimal"
)

const (
	daysPerYear        = 365.25
	zeroEpsilon        = 1e-9
	newtonMaxIterations = 50
	newtonInitialGuess  = 0.1
	bisectionLowerRate  = -0.99
	bisectionUpperRate  = 10.0
	bisectionIterations = 200
)

// Flow is one external cash flow on a date, as consumed by TWR and MWR.
type Flow struct {
	Date   time.Time
	Amount decimal.Decimal // positive = inflow to the portfolio
}

// SimpleGain is market_value - cost_basis.
func SimpleGain(marketValue, costBasis decimal.Decimal) decimal.Decimal {
	return marketValue.Sub(costBasis)
}

// ExternalFlowsFromActivities extracts the dated external-flow series from
// an activity timeline at the given scope.
func ExternalFlowsFromActivities(activities []domain.Activity, scope flowclassifier.Scope) []Flow {
	var flows []Flow
	for _, a := range activities {
		if flowclassifier.Classify(a, scope) != flowclassifier.External {
			continue
		}
		amount := externalFlowAmount(a)
		if amount.IsZero() {
			continue
		}
		flows = append(flows, Flow{Date: a.Date(), Amount: amount})
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].Date.Before(flows[j].Date) })
	return flows
}

func externalFlowAmount(a domain.Activity) decimal.Decimal {
	switch a.EffectiveType() {
	case domain.ActivityDeposit, domain.ActivityCredit:
		return a.Amount.Sub(a.Fee)
	case domain.ActivityWithdrawal:
		return a.Amount.Add(a.Fee).Neg()
	case domain.ActivityTransferIn:
		return a.Amount.Sub(a.Fee)
	case domain.ActivityTransferOut:
		return a.Amount.Add(a.Fee).Neg()
	default:
		return decimal.Zero
	}
}

// ValuationSeries is an ordered-by-date list of daily valuations, the
// input to TWR/MWR/day-gain.
type ValuationSeries []domain.DailyAccountValuation

// TWR computes the chained Modified-Dietz time-weighted return across the
// series, partitioning at every day an external flow occurs.
func TWR(series ValuationSeries, flows []Flow) (decimal.Decimal, []string) {
	if len(series) < 2 {
		return decimal.Zero, nil
	}

	flowsByDate := make(map[string]decimal.Decimal)
	for _, f := range flows {
		key := f.Date.Format("2006-01-02")
		flowsByDate[key] = flowsByDate[key].Add(f.Amount)
	}

	var warnings []string
	chain := decimal.NewFromInt(1)

	begin := series[0]
	for i := 1; i < len(series); i++ {
		end := series[i]
		flowAmount := flowsByDate[end.ValuationDate.Format("2006-01-02")]

		beginValue := begin.TotalValue
		endValue := end.TotalValue
		w := decimal.NewFromFloat(0.5)

		denominator := beginValue.Add(w.Mul(flowAmount))
		if denominator.Abs().LessThan(decimal.NewFromFloat(zeroEpsilon)) {
			warnings = append(warnings, "sub-period denominator near zero on "+end.ValuationDate.Format("2006-01-02")+"; treated as 0 return")
			begin = end
			continue
		}

		subReturn := endValue.Sub(beginValue).Sub(flowAmount).Div(denominator)
		chain = chain.Mul(decimal.NewFromInt(1).Add(subReturn))
		begin = end
	}

	return chain.Sub(decimal.NewFromInt(1)), warnings
}

// MWR computes the money-weighted return (IRR) solving
// sum(cf_i / (1+r)^(day_i/365.25)) = 0 over external flows plus terminal
// market value, via Newton's method with bisection fallback.
// Returns (rate, ok): ok is false if the cash flows never change sign or
// the series is degenerate.
func MWR(flows []Flow, terminalDate time.Time, terminalValue decimal.Decimal) (decimal.Decimal, bool) {
	if len(flows) == 0 {
		return decimal.Zero, false
	}

	type cashflow struct {
		days   float64
		amount float64
	}
	base := flows[0].Date
	if terminalDate.Before(base) {
		base = terminalDate
	}

	cfs := make([]cashflow, 0, len(flows)+1)
	hasPositive, hasNegative := false, false
	for _, f := range flows {
		amt, _ := f.Amount.Float64()
		days := f.Date.Sub(base).Hours() / 24
		cfs = append(cfs, cashflow{days: days, amount: amt})
		if amt > 0 {
			hasPositive = true
		} else if amt < 0 {
			hasNegative = true
		}
	}
	terminalAmt, _ := terminalValue.Float64()
	cfs = append(cfs, cashflow{days: terminalDate.Sub(base).Hours() / 24, amount: terminalAmt})
	if terminalAmt > 0 {
		hasPositive = true
	} else if terminalAmt < 0 {
		hasNegative = true
	}

	if !hasPositive || !hasNegative {
		return decimal.Zero, false
	}

	npv := func(r float64) float64 {
		total := 0.0
		for _, cf := range cfs {
			total += cf.amount / math.Pow(1+r, cf.days/daysPerYear)
		}
		return total
	}
	dnpv := func(r float64) float64 {
		total := 0.0
		for _, cf := range cfs {
			t := cf.days / daysPerYear
			if t == 0 {
				continue
			}
			total += -t * cf.amount / math.Pow(1+r, t+1)
		}
		return total
	}

	r := newtonInitialGuess
	converged := false
	for i := 0; i < newtonMaxIterations; i++ {
		f := npv(r)
		if math.Abs(f) < zeroEpsilon {
			converged = true
			break
		}
		d := dnpv(r)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			break
		}
		next := r - f/d
		if math.IsNaN(next) || math.IsInf(next, 0) || next <= bisectionLowerRate {
			break
		}
		r = next
	}

	if converged {
		return decimal.NewFromFloat(r), true
	}

	rate, ok := bisect(npv, bisectionLowerRate, bisectionUpperRate)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(rate), true
}

func bisect(f func(float64) float64, lo, hi float64) (float64, bool) {
	flo, fhi := f(lo), f(hi)
	if math.IsNaN(flo) || math.IsNaN(fhi) || flo*fhi > 0 {
		return 0, false
	}
	for i := 0; i < bisectionIterations; i++ {
		mid := (lo + hi) / 2
		fmid := f(mid)
		if math.Abs(fmid) < zeroEpsilon {
			return mid, true
		}
		if (flo < 0) == (fmid < 0) {
			lo, flo = mid, fmid
		} else {
			hi, fhi = mid, fmid
		}
	}
	return (lo + hi) / 2, true
}

// DayGainResult is one day's absolute and percentage gain.
type DayGainResult struct {
	AbsoluteGain decimal.Decimal
	PercentGain  decimal.Decimal
}

// DayGain computes (close*quantity - open*quantity) per non-cash position
// plus FX deltas on cash. positionOpenClose maps asset id to
// (open, close, quantity) triples already normalized to account currency;
// fxDelta is the aggregate day-over-day FX effect on cash balances.
func DayGain(positionOpenClose map[string][3]decimal.Decimal, fxDelta decimal.Decimal, priorTotalValue decimal.Decimal) DayGainResult {
	total := fxDelta
	for _, ocq := range positionOpenClose {
		open, close, qty := ocq[0], ocq[1], ocq[2]
		total = total.Add(close.Sub(open).Mul(qty))
	}

	result := DayGainResult{AbsoluteGain: total}
	if priorTotalValue.Abs().LessThan(decimal.NewFromFloat(zeroEpsilon)) {
		result.PercentGain = decimal.Zero
		return result
	}
	result.PercentGain = total.Div(priorTotalValue)
	return result
}
