// Package idempotency computes a SHA-256 fingerprint over the
// semantic fields of an activity, used to deduplicate activities across
// providers and imports.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fields carries the canonical tuple the key is computed over. Building it
// explicitly (rather than hashing the Activity struct directly) keeps the
// exact field order and optionality spelled out in one place, since the
// fingerprint is a pipe-delimited join of these fields in this order.
type Fields struct {
	AccountID         string
	EffectiveType     domain.ActivityType
	ActivityDate      string // YYYY-MM-DD
	AssetID           string
	Quantity          *decimal.Decimal
	UnitPrice         *decimal.Decimal
	Amount            *decimal.Decimal
	Currency          string
	ProviderRefID     string
	Description       string
}

// FromActivity builds the canonical Fields tuple from an activity plus an
// optional provider reference id (not itself a field on domain.Activity,
// since it is supplied by the import/sync path rather than stored on the
// ledger).
func FromActivity(a domain.Activity, providerRefID string) Fields {
	f := Fields{
		AccountID:     a.AccountID,
		EffectiveType: a.EffectiveType(),
		ActivityDate:  a.Date().Format("2006-01-02"),
		AssetID:       a.AssetID,
		Currency:      a.Currency,
		ProviderRefID: providerRefID,
		Description:   a.Notes,
	}
	if !a.Quantity.IsZero() {
		q := a.Quantity
		f.Quantity = &q
	}
	if !a.UnitPrice.IsZero() {
		p := a.UnitPrice
		f.UnitPrice = &p
	}
	if !a.Amount.IsZero() {
		m := a.Amount
		f.Amount = &m
	}
	return f
}

// normDecimal strips trailing zeros from a decimal's string form so
// "10" and "10.00" fingerprint identically.
func normDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	s := d.String()
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// normWhitespace collapses runs of whitespace to single spaces after
// trimming norm_whitespace.
func normWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// Key computes the SHA-256 hex digest of the pipe-delimited canonical tuple.
// Empty fields render as empty strings; separators are always present, so
// the tuple's shape never changes regardless of which fields are set.
func Key(f Fields) string {
	parts := []string{
		f.AccountID,
		string(f.EffectiveType),
		f.ActivityDate,
		f.AssetID,
		normDecimal(f.Quantity),
		normDecimal(f.UnitPrice),
		normDecimal(f.Amount),
		f.Currency,
		f.ProviderRefID,
		normWhitespace(f.Description),
	}
	tuple := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(tuple))
	return hex.EncodeToString(sum[:])
}

// ManualKey generates the "manual:<uuidv4>" form used for user-entered
// activities that have no external provider to deduplicate against.
func ManualKey() string {
	return fmt.Sprintf("manual:%s", uuid.NewString())
}
