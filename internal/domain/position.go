package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// significantQuantity is the threshold below which a position's quantity is
// treated as zero.
var significantQuantity = decimal.New(1, -10) // 10^-10

// IsSignificant reports whether q's magnitude is at or above the
// significance threshold used throughout the holdings calculator.
func IsSignificant(q decimal.Decimal) bool {
	return q.Abs().GreaterThanOrEqual(significantQuantity)
}

// Lot represents one acquisition tranche of an asset, the unit of FIFO
// cost-basis relief.
type Lot struct {
	ID                string // equals the creating activity's id
	PositionID        string
	AcquisitionDate   time.Time
	Quantity          decimal.Decimal
	CostBasis         decimal.Decimal // total paid, fee-inclusive for BUY
	AcquisitionPrice  decimal.Decimal // per unit
	AcquisitionFees   decimal.Decimal
}

// ApplySplit mutates the lot in place for a split of ratio r (:
// quantity *= r, acquisition_price /= r, cost_basis unchanged).
func (l *Lot) ApplySplit(ratio decimal.Decimal) {
	l.Quantity = l.Quantity.Mul(ratio)
	if !ratio.IsZero() {
		l.AcquisitionPrice = l.AcquisitionPrice.Div(ratio)
	}
}

// Position aggregates the lots held for one (account_id, asset_id) pair.
type Position struct {
	AccountID      string
	AssetID        string
	Lots           []Lot // sorted by AcquisitionDate ascending
	Quantity       decimal.Decimal
	TotalCostBasis decimal.Decimal
	AverageCost    decimal.Decimal
}

// Recompute derives Quantity/TotalCostBasis/AverageCost from Lots. A
// position whose quantity drops to insignificant magnitude has its
// aggregates zeroed but its (now-empty) lot list retained for audit;
// callers decide when to prune.
func (p *Position) Recompute() {
	qty := decimal.Zero
	cost := decimal.Zero
	for _, l := range p.Lots {
		qty = qty.Add(l.Quantity)
		cost = cost.Add(l.CostBasis)
	}
	p.Quantity = qty
	p.TotalCostBasis = cost
	if IsSignificant(qty) {
		p.AverageCost = cost.Div(qty)
	} else {
		p.Quantity = decimal.Zero
		p.TotalCostBasis = decimal.Zero
		p.AverageCost = decimal.Zero
	}
}

// Clone returns a deep copy suitable for carrying a position forward into
// the next day's snapshot before mutating it.
func (p Position) Clone() Position {
	lots := make([]Lot, len(p.Lots))
	copy(lots, p.Lots)
	return Position{
		AccountID:      p.AccountID,
		AssetID:        p.AssetID,
		Lots:           lots,
		Quantity:       p.Quantity,
		TotalCostBasis: p.TotalCostBasis,
		AverageCost:    p.AverageCost,
	}
}

// AccountStateSnapshot is the immutable daily state produced by the
// holdings calculator.
type AccountStateSnapshot struct {
	AccountID       string
	SnapshotDate    time.Time
	Currency        string
	CashBalances    map[string]decimal.Decimal // per-currency
	Positions       map[string]Position        // by asset id
	CostBasis       decimal.Decimal            // = sum of position.TotalCostBasis
	NetContribution decimal.Decimal            // running sum of external flows
	CalculatedAt    time.Time
	Warnings        []string
}

// Clone deep-copies a snapshot so the calculator never mutates the previous
// day's persisted state in place.
func (s AccountStateSnapshot) Clone() AccountStateSnapshot {
	cash := make(map[string]decimal.Decimal, len(s.CashBalances))
	for k, v := range s.CashBalances {
		cash[k] = v
	}
	positions := make(map[string]Position, len(s.Positions))
	for k, v := range s.Positions {
		positions[k] = v.Clone()
	}
	warnings := make([]string, len(s.Warnings))
	copy(warnings, s.Warnings)
	return AccountStateSnapshot{
		AccountID:       s.AccountID,
		SnapshotDate:    s.SnapshotDate,
		Currency:        s.Currency,
		CashBalances:    cash,
		Positions:       positions,
		CostBasis:       s.CostBasis,
		NetContribution: s.NetContribution,
		CalculatedAt:    s.CalculatedAt,
		Warnings:        warnings,
	}
}

// RecomputeCostBasis sets CostBasis = sum of every position's TotalCostBasis
// (invariant 1 of ).
func (s *AccountStateSnapshot) RecomputeCostBasis() {
	total := decimal.Zero
	for _, p := range s.Positions {
		total = total.Add(p.TotalCostBasis)
	}
	s.CostBasis = total
}

// EmptySnapshot synthesizes the zero-value snapshot used as the "previous"
// state before an account's first activity (step 2).
func EmptySnapshot(accountID, currency string, date time.Time) AccountStateSnapshot {
	return AccountStateSnapshot{
		AccountID:       accountID,
		SnapshotDate:    date,
		Currency:        currency,
		CashBalances:    map[string]decimal.Decimal{},
		Positions:       map[string]Position{},
		CostBasis:       decimal.Zero,
		NetContribution: decimal.Zero,
		CalculatedAt:    date,
	}
}
