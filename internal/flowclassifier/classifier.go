// Package flowclassifier provides a pure function mapping each
// activity to External or Internal under Portfolio or Account scope.
// External flows move the time-weighted-return denominator; internal
// flows do not.
package flowclassifier

import "github.com/afadil/wealthfolio-sub005/internal/domain"

// Flow is the classification result.
type Flow string

const (
	External Flow = "EXTERNAL"
	Internal Flow = "INTERNAL"
)

// Scope selects which classification table to consult: a transfer between
// two of the user's own accounts is internal at the portfolio level but
// external at the single-account level.
type Scope string

const (
	ScopePortfolio Scope = "PORTFOLIO"
	ScopeAccount   Scope = "ACCOUNT"
)

// Classify maps an activity's effective type, given the scope it's
// evaluated under, to an External or Internal flow.
func Classify(a domain.Activity, scope Scope) Flow {
	switch a.EffectiveType() {
	case domain.ActivityDeposit, domain.ActivityWithdrawal:
		return External

	case domain.ActivityTransferIn, domain.ActivityTransferOut:
		if scope == ScopeAccount {
			return External
		}
		return Internal

	case domain.ActivityCredit:
		if a.Subtype == domain.SubtypeBonus {
			return External
		}
		return Internal

	default:
		// BUY, SELL, DIVIDEND, INTEREST, FEE, TAX, SPLIT, ADD_HOLDING,
		// REMOVE_HOLDING, CONVERSION_IN/OUT: always internal regardless of
		// scope.
		return Internal
	}
}

// AffectsNetContribution is an alias for the portfolio-scope external test,
// the test the holdings calculator uses when crediting or debiting
// net_contribution.
func AffectsNetContribution(a domain.Activity) bool {
	return Classify(a, ScopePortfolio) == External
}
