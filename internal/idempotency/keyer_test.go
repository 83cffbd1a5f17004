package idempotency

import (
	"strings"
	"testing"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestKey_DeterministicAndOrderSensitive(t *testing.T) {
	a := domain.Activity{
		AccountID:    "acct-1",
		ActivityType: domain.ActivityBuy,
		AssetID:      "SEC:AAPL:XNAS",
		ActivityDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Quantity:     decimal.NewFromInt(10),
		UnitPrice:    decimal.NewFromFloat(180.50),
		Currency:     "USD",
	}
	k1 := Key(FromActivity(a, "ref-1"))
	k2 := Key(FromActivity(a, "ref-1"))
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64) // hex-encoded sha256

	k3 := Key(FromActivity(a, "ref-2"))
	assert.NotEqual(t, k1, k3, "different provider ref must change the key")
}

func TestKey_TrailingZerosNormalized(t *testing.T) {
	a1 := domain.Activity{AccountID: "a", Quantity: decimal.RequireFromString("10.00")}
	a2 := domain.Activity{AccountID: "a", Quantity: decimal.RequireFromString("10")}
	assert.Equal(t, Key(FromActivity(a1, "")), Key(FromActivity(a2, "")))
}

func TestKey_WhitespaceNormalized(t *testing.T) {
	a1 := domain.Activity{AccountID: "a", Notes: "  hello   world  "}
	a2 := domain.Activity{AccountID: "a", Notes: "hello world"}
	assert.Equal(t, Key(FromActivity(a1, "")), Key(FromActivity(a2, "")))
}

func TestManualKey_HasPrefixAndIsUnique(t *testing.T) {
	k1 := ManualKey()
	k2 := ManualKey()
	assert.True(t, strings.HasPrefix(k1, "manual:"))
	assert.NotEqual(t, k1, k2)
}

func TestNormDecimal_Nil(t *testing.T) {
	assert.Equal(t, "", normDecimal(nil))
}
