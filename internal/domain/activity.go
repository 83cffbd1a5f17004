// Package domain holds the core entities of the portfolio computation core:
// activities, lots, positions, assets, quotes, FX rates, snapshots,
// valuations and domain events. Types here are pure data: no I/O, no
// persistence concerns, so the calculators in internal/holdings,
// internal/valuation and internal/performance can operate on them without
// depending on any storage implementation.
package domain

import (
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/shopspring/decimal"
)

// ActivityType enumerates the kinds of financial events the holdings
// calculator understands.
type ActivityType string

const (
	ActivityBuy          ActivityType = "BUY"
	ActivitySell         ActivityType = "SELL"
	ActivityDividend     ActivityType = "DIVIDEND"
	ActivityInterest     ActivityType = "INTEREST"
	ActivityDeposit      ActivityType = "DEPOSIT"
	ActivityWithdrawal   ActivityType = "WITHDRAWAL"
	ActivityTransferIn   ActivityType = "TRANSFER_IN"
	ActivityTransferOut  ActivityType = "TRANSFER_OUT"
	ActivityFee          ActivityType = "FEE"
	ActivityTax          ActivityType = "TAX"
	ActivitySplit        ActivityType = "SPLIT"
	ActivityCredit       ActivityType = "CREDIT"
	ActivityAddHolding   ActivityType = "ADD_HOLDING"
	ActivityRemoveHold   ActivityType = "REMOVE_HOLDING"
	ActivityConversionIn ActivityType = "CONVERSION_IN"
	ActivityConvOut      ActivityType = "CONVERSION_OUT"
)

// ActivitySubtype further qualifies a CREDIT (or other) activity. Only
// BONUS changes flow-classification behavior; the rest are
// informational.
type ActivitySubtype string

const (
	SubtypeBonus  ActivitySubtype = "BONUS"
	SubtypeRebate ActivitySubtype = "REBATE"
	SubtypeRefund ActivitySubtype = "REFUND"
)

// ActivityStatus tracks whether an activity has settled.
type ActivityStatus string

const (
	StatusPosted  ActivityStatus = "POSTED"
	StatusPending ActivityStatus = "PENDING"
)

// Activity is a discrete financial event attached to an account.
type Activity struct {
	ID                    string
	AccountID             string
	AssetID               string // empty for pure-cash activities
	ActivityType          ActivityType
	ActivityTypeOverride  ActivityType // wins over ActivityType when non-empty
	Subtype               ActivitySubtype
	Status                ActivityStatus
	ActivityDate          time.Time // UTC instant; the date component is authoritative
	SettlementDate        *time.Time
	Quantity              decimal.Decimal
	UnitPrice             decimal.Decimal
	Amount                decimal.Decimal
	Fee                   decimal.Decimal
	Currency              string
	FxRate                decimal.Decimal
	Notes                 string
	SourceSystem          string
	SourceRecordID        string
	IdempotencyKey        string
	IsUserModified        bool
	NeedsReview           bool
}

// EffectiveType returns ActivityTypeOverride when set, otherwise ActivityType.
func (a Activity) EffectiveType() ActivityType {
	if a.ActivityTypeOverride != "" {
		return a.ActivityTypeOverride
	}
	return a.ActivityType
}

// Date truncates ActivityDate to a UTC calendar day, which is the unit the
// holdings calculator and snapshot service operate on.
func (a Activity) Date() time.Time {
	return truncateToDate(a.ActivityDate)
}

func truncateToDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate checks the invariants places on an activity before it
// is accepted into the ledger. It does not check idempotency-key
// uniqueness, which is a store-level concern.
func (a Activity) Validate() error {
	switch a.EffectiveType() {
	case ActivityBuy, ActivitySell:
		if a.Quantity.LessThanOrEqual(decimal.Zero) {
			return coreerrors.NewValidationError("quantity must be > 0 for BUY/SELL")
		}
		if a.UnitPrice.LessThan(decimal.Zero) {
			return coreerrors.NewValidationError("unit_price must be >= 0 for BUY/SELL")
		}
		if a.Currency == "" {
			return coreerrors.NewValidationError("currency is required for BUY/SELL")
		}
	case ActivityDeposit, ActivityWithdrawal, ActivityDividend, ActivityInterest,
		ActivityFee, ActivityTax, ActivityCredit:
		if a.Amount.IsZero() && a.Fee.IsZero() {
			return coreerrors.NewValidationError("amount is required for cash activities")
		}
	case ActivitySplit:
		if a.Amount.LessThanOrEqual(decimal.Zero) {
			return coreerrors.NewValidationError("split ratio (amount) must be > 0")
		}
	}
	if a.Currency == "" {
		return coreerrors.NewValidationError("currency is required")
	}
	return nil
}

// ActivitiesByDateThenID sorts activities by (activity_date, id), the
// ordering the holdings calculator and snapshot rebuild require.
type ActivitiesByDateThenID []Activity

func (s ActivitiesByDateThenID) Len() int      { return len(s) }
func (s ActivitiesByDateThenID) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s ActivitiesByDateThenID) Less(i, j int) bool {
	if !s[i].ActivityDate.Equal(s[j].ActivityDate) {
		return s[i].ActivityDate.Before(s[j].ActivityDate)
	}
	return s[i].ID < s[j].ID
}
