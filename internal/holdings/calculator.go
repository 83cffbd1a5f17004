// Package holdings implements the deterministic state machine that
// folds one day's activities onto the previous day's AccountStateSnapshot,
// dispatching on each activity's effective type.
package holdings

import (
	"sort"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/flowclassifier"
	"github.com/shopspring/decimal"
)

// cashAssetPrefix identifies a $CASH-<CCY> asset id (identifiers).
const cashAssetPrefix = "$CASH-"

func isCashAsset(assetID string) bool {
	return len(assetID) > len(cashAssetPrefix) && assetID[:len(cashAssetPrefix)] == cashAssetPrefix
}

// Calculator computes the next day's snapshot from the previous one and a
// batch of same-day activities. It carries no state between
// calls; the zero value is ready to use.
type Calculator struct{}

// New returns a ready Calculator.
func New() *Calculator {
	return &Calculator{}
}

// CalculateNextState folds one day's activities onto the previous day's
// snapshot.
//
// Preconditions: activities contains every activity for the account with
// activity_date.date() == targetDate. CalculateNextState sorts them by
// (activity_date, id) itself so a caller-supplied order never changes
// the result.
//
// Idle-day carry-forward: if activities is empty, the result is prev
// verbatim except SnapshotDate and CalculatedAt, and with Warnings cleared
// (Warnings are reset at the start of every day, idle or not).
func (c *Calculator) CalculateNextState(prev domain.AccountStateSnapshot, activities []domain.Activity, targetDate time.Time) domain.AccountStateSnapshot {
	next := prev.Clone()
	next.SnapshotDate = targetDate
	next.CalculatedAt = targetDate
	next.Warnings = nil

	if len(activities) == 0 {
		return next
	}

	ordered := make([]domain.Activity, len(activities))
	copy(ordered, activities)
	sort.Stable(domain.ActivitiesByDateThenID(ordered))

	for _, a := range ordered {
		c.apply(&next, a)
	}

	next.RecomputeCostBasis()
	return next
}

func (c *Calculator) apply(s *domain.AccountStateSnapshot, a domain.Activity) {
	switch a.EffectiveType() {
	case domain.ActivityBuy:
		c.applyBuy(s, a)
	case domain.ActivitySell:
		c.applySell(s, a)
	case domain.ActivityDividend, domain.ActivityInterest:
		c.creditCash(s, a.Currency, a.Amount.Sub(a.Fee))
	case domain.ActivityDeposit, domain.ActivityCredit:
		net := a.Amount.Sub(a.Fee)
		c.creditCash(s, a.Currency, net)
		if flowclassifier.AffectsNetContribution(a) {
			s.NetContribution = s.NetContribution.Add(net)
		}
	case domain.ActivityWithdrawal:
		net := a.Amount.Add(a.Fee)
		c.debitCash(s, a.Currency, net)
		if flowclassifier.AffectsNetContribution(a) {
			s.NetContribution = s.NetContribution.Sub(net)
		}
	case domain.ActivityTransferIn:
		c.applyTransferIn(s, a)
	case domain.ActivityTransferOut:
		c.applyTransferOut(s, a)
	case domain.ActivityAddHolding:
		c.applyAddHolding(s, a)
	case domain.ActivityRemoveHold:
		c.applyRemoveHolding(s, a)
	case domain.ActivitySplit:
		c.applySplit(s, a)
	case domain.ActivityFee:
		c.debitCash(s, a.Currency, a.Fee)
	case domain.ActivityTax:
		c.debitCash(s, a.Currency, a.Amount)
	case domain.ActivityConversionIn:
		c.creditCash(s, a.Currency, a.Amount.Sub(a.Fee))
	case domain.ActivityConvOut:
		c.debitCash(s, a.Currency, a.Amount.Add(a.Fee))
	}
}

func (c *Calculator) creditCash(s *domain.AccountStateSnapshot, ccy string, amount decimal.Decimal) {
	s.CashBalances[ccy] = s.CashBalances[ccy].Add(amount)
}

func (c *Calculator) debitCash(s *domain.AccountStateSnapshot, ccy string, amount decimal.Decimal) {
	s.CashBalances[ccy] = s.CashBalances[ccy].Sub(amount)
}

// applyBuy adds a new lot and debits cash (: BUY).
func (c *Calculator) applyBuy(s *domain.AccountStateSnapshot, a domain.Activity) {
	cost := a.Quantity.Mul(a.UnitPrice).Add(a.Fee)
	c.addLot(s, a, cost, a.UnitPrice, a.Fee)
	c.debitCash(s, a.Currency, cost)
}

// applyAddHolding adds a new lot with no fee-adjusted cost basis and debits
// only the fee (: ADD_HOLDING).
func (c *Calculator) applyAddHolding(s *domain.AccountStateSnapshot, a domain.Activity) {
	cost := a.Quantity.Mul(a.UnitPrice)
	c.addLot(s, a, cost, a.UnitPrice, decimal.Zero)
	if !a.Fee.IsZero() {
		c.debitCash(s, a.Currency, a.Fee)
	}
}

func (c *Calculator) addLot(s *domain.AccountStateSnapshot, a domain.Activity, costBasis, price, fees decimal.Decimal) {
	pos, ok := s.Positions[a.AssetID]
	if !ok {
		pos = domain.Position{AccountID: a.AccountID, AssetID: a.AssetID}
	}
	pos.Lots = append(pos.Lots, domain.Lot{
		ID:               a.ID,
		PositionID:       a.AssetID,
		AcquisitionDate:  a.Date(),
		Quantity:         a.Quantity,
		CostBasis:        costBasis,
		AcquisitionPrice: price,
		AcquisitionFees:  fees,
	})
	pos.Recompute()
	s.Positions[a.AssetID] = pos
}

// applySell reduces lots FIFO and credits cash (: SELL).
func (c *Calculator) applySell(s *domain.AccountStateSnapshot, a domain.Activity) {
	consumed := c.consumeFIFO(s, a.AssetID, a.Quantity)
	if consumed.LessThan(a.Quantity) {
		s.Warnings = append(s.Warnings, sellExceedsAvailableWarning(a))
	}
	net := a.Quantity.Mul(a.UnitPrice).Sub(a.Fee)
	c.creditCash(s, a.Currency, net)
}

// applyRemoveHolding reduces lots FIFO with no cash effect beyond the fee
// (: REMOVE_HOLDING).
func (c *Calculator) applyRemoveHolding(s *domain.AccountStateSnapshot, a domain.Activity) {
	c.consumeFIFO(s, a.AssetID, a.Quantity)
	if !a.Fee.IsZero() {
		c.debitCash(s, a.Currency, a.Fee)
	}
}

// consumeFIFO reduces a position's lots oldest-first by up to qty units,
// proportionally relieving cost basis per lot, and returns the quantity
// actually consumed (may be less than qty if the position is insufficient,
// SELL edge case).
func (c *Calculator) consumeFIFO(s *domain.AccountStateSnapshot, assetID string, qty decimal.Decimal) decimal.Decimal {
	pos, ok := s.Positions[assetID]
	if !ok {
		return decimal.Zero
	}

	remaining := qty
	consumed := decimal.Zero
	var survivors []domain.Lot

	for _, lot := range pos.Lots {
		if remaining.LessThanOrEqual(decimal.Zero) {
			survivors = append(survivors, lot)
			continue
		}
		if lot.Quantity.LessThanOrEqual(decimal.Zero) {
			continue
		}
		take := decimal.Min(lot.Quantity, remaining)
		costRemoved := lot.CostBasis.Mul(take).Div(lot.Quantity)

		lot.Quantity = lot.Quantity.Sub(take)
		lot.CostBasis = lot.CostBasis.Sub(costRemoved)
		remaining = remaining.Sub(take)
		consumed = consumed.Add(take)

		if domain.IsSignificant(lot.Quantity) {
			survivors = append(survivors, lot)
		}
	}

	pos.Lots = survivors
	pos.Recompute()
	s.Positions[assetID] = pos
	return consumed
}

// applyTransferIn treats $CASH-<CCY> assets as a deposit without
// contribution effect; non-cash assets become an ADD_HOLDING with a
// deprecation warning (: TRANSFER_IN).
func (c *Calculator) applyTransferIn(s *domain.AccountStateSnapshot, a domain.Activity) {
	if isCashAsset(a.AssetID) || a.AssetID == "" {
		c.creditCash(s, a.Currency, a.Amount.Sub(a.Fee))
		return
	}
	c.applyAddHolding(s, a)
	s.Warnings = append(s.Warnings, deprecatedTransferWarning(a, "TRANSFER_IN", "ADD_HOLDING"))
}

// applyTransferOut is TRANSFER_IN's mirror (: TRANSFER_OUT).
func (c *Calculator) applyTransferOut(s *domain.AccountStateSnapshot, a domain.Activity) {
	if isCashAsset(a.AssetID) || a.AssetID == "" {
		c.debitCash(s, a.Currency, a.Amount.Add(a.Fee))
		return
	}
	c.applyRemoveHolding(s, a)
	s.Warnings = append(s.Warnings, deprecatedTransferWarning(a, "TRANSFER_OUT", "REMOVE_HOLDING"))
}

// applySplit multiplies every lot's quantity by the ratio and divides its
// acquisition price, leaving cost basis unchanged; a missing position is a
// no-op rather than an error (: SPLIT).
func (c *Calculator) applySplit(s *domain.AccountStateSnapshot, a domain.Activity) {
	pos, ok := s.Positions[a.AssetID]
	if !ok {
		return
	}
	ratio := a.Amount
	for i := range pos.Lots {
		pos.Lots[i].ApplySplit(ratio)
	}
	pos.Recompute()
	s.Positions[a.AssetID] = pos
}
