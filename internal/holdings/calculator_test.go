package holdings

import (
	"testing"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptySnapshot() domain.AccountStateSnapshot {
	return domain.EmptySnapshot("acct-1", "USD", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestCalculateNextState_IdleDayCarriesForward(t *testing.T) {
	calc := New()
	prev := emptySnapshot()
	prev.CashBalances["USD"] = decimal.NewFromInt(100)

	next := calc.CalculateNextState(prev, nil, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	assert.True(t, decimal.NewFromInt(100).Equal(next.CashBalances["USD"]))
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), next.SnapshotDate)
}

func TestCalculateNextState_Deposit(t *testing.T) {
	calc := New()
	prev := emptySnapshot()
	a := domain.Activity{
		ID: "a1", AccountID: "acct-1", ActivityType: domain.ActivityDeposit,
		ActivityDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.NewFromInt(1000), Currency: "USD",
	}
	next := calc.CalculateNextState(prev, []domain.Activity{a}, a.ActivityDate)

	assert.True(t, decimal.NewFromInt(1000).Equal(next.CashBalances["USD"]))
	assert.True(t, decimal.NewFromInt(1000).Equal(next.NetContribution))
}

func TestCalculateNextState_BuyThenSellFIFO(t *testing.T) {
	calc := New()
	prev := emptySnapshot()
	prev.CashBalances["USD"] = decimal.NewFromInt(10000)
	assetID := "SEC:AAPL:XNAS"

	buy1 := domain.Activity{
		ID: "buy1", AccountID: "acct-1", AssetID: assetID, ActivityType: domain.ActivityBuy,
		ActivityDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Quantity:     decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100), Currency: "USD",
	}
	buy2 := domain.Activity{
		ID: "buy2", AccountID: "acct-1", AssetID: assetID, ActivityType: domain.ActivityBuy,
		ActivityDate: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Quantity:     decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(200), Currency: "USD",
	}
	after := calc.CalculateNextState(prev, []domain.Activity{buy1}, buy1.ActivityDate)
	after = calc.CalculateNextState(after, []domain.Activity{buy2}, buy2.ActivityDate)

	pos := after.Positions[assetID]
	require.True(t, decimal.NewFromInt(20).Equal(pos.Quantity))
	require.True(t, decimal.NewFromInt(3000).Equal(pos.TotalCostBasis)) // 10*100 + 10*200

	sell := domain.Activity{
		ID: "sell1", AccountID: "acct-1", AssetID: assetID, ActivityType: domain.ActivitySell,
		ActivityDate: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		Quantity:     decimal.NewFromInt(12), UnitPrice: decimal.NewFromInt(250), Currency: "USD",
	}
	final := calc.CalculateNextState(after, []domain.Activity{sell}, sell.ActivityDate)

	finalPos := final.Positions[assetID]
	// FIFO consumes all 10 of buy1 plus 2 of buy2: remaining qty = 8, cost = 8*200 = 1600
	assert.True(t, decimal.NewFromInt(8).Equal(finalPos.Quantity))
	assert.True(t, decimal.NewFromInt(1600).Equal(finalPos.TotalCostBasis))
	assert.True(t, decimal.NewFromInt(3000).Equal(final.CashBalances["USD"].Sub(after.CashBalances["USD"]))) // 12*250
}

func TestCalculateNextState_SellExceedsAvailableWarns(t *testing.T) {
	calc := New()
	prev := emptySnapshot()
	assetID := "SEC:AAPL:XNAS"
	buy := domain.Activity{
		ID: "buy1", AccountID: "acct-1", AssetID: assetID, ActivityType: domain.ActivityBuy,
		ActivityDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Quantity:     decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(100), Currency: "USD",
	}
	after := calc.CalculateNextState(prev, []domain.Activity{buy}, buy.ActivityDate)

	sell := domain.Activity{
		ID: "sell1", AccountID: "acct-1", AssetID: assetID, ActivityType: domain.ActivitySell,
		ActivityDate: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Quantity:     decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100), Currency: "USD",
	}
	final := calc.CalculateNextState(after, []domain.Activity{sell}, sell.ActivityDate)

	assert.NotEmpty(t, final.Warnings)
	assert.True(t, final.Positions[assetID].Quantity.IsZero())
}

func TestCalculateNextState_Split(t *testing.T) {
	calc := New()
	prev := emptySnapshot()
	assetID := "SEC:AAPL:XNAS"
	buy := domain.Activity{
		ID: "buy1", AccountID: "acct-1", AssetID: assetID, ActivityType: domain.ActivityBuy,
		ActivityDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Quantity:     decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100), Currency: "USD",
	}
	after := calc.CalculateNextState(prev, []domain.Activity{buy}, buy.ActivityDate)

	split := domain.Activity{
		ID: "split1", AccountID: "acct-1", AssetID: assetID, ActivityType: domain.ActivitySplit,
		ActivityDate: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.NewFromInt(2), Currency: "USD",
	}
	final := calc.CalculateNextState(after, []domain.Activity{split}, split.ActivityDate)

	pos := final.Positions[assetID]
	assert.True(t, decimal.NewFromInt(20).Equal(pos.Quantity))
	assert.True(t, decimal.NewFromInt(1000).Equal(pos.TotalCostBasis)) // unchanged
}

func TestCalculateNextState_ActivityOrderDoesNotAffectResult(t *testing.T) {
	calc := New()
	prev := emptySnapshot()
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	deposit := domain.Activity{ID: "b", AccountID: "acct-1", ActivityType: domain.ActivityDeposit, ActivityDate: d, Amount: decimal.NewFromInt(500), Currency: "USD"}
	fee := domain.Activity{ID: "a", AccountID: "acct-1", ActivityType: domain.ActivityFee, ActivityDate: d, Fee: decimal.NewFromInt(10), Currency: "USD"}

	r1 := calc.CalculateNextState(prev, []domain.Activity{deposit, fee}, d)
	r2 := calc.CalculateNextState(prev, []domain.Activity{fee, deposit}, d)

	assert.True(t, r1.CashBalances["USD"].Equal(r2.CashBalances["USD"]))
}
