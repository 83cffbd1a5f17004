package income

import (
	"testing"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/fx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_DividendCountedInTotalAndYTD(t *testing.T) {
	converter := fx.NewConverter()
	agg := New(converter)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	activities := []domain.Activity{
		{ActivityType: domain.ActivityDividend, ActivityDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(100), Currency: "USD"},
	}
	summaries, err := agg.Aggregate(activities, nil, "USD", now)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(100).Equal(summaries[PeriodTotal].Total))
	assert.True(t, decimal.NewFromInt(100).Equal(summaries[PeriodYTD].Total))
	assert.True(t, summaries[PeriodLastYear].Total.IsZero())
}

func TestAggregate_BuySellNotCounted(t *testing.T) {
	converter := fx.NewConverter()
	agg := New(converter)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	activities := []domain.Activity{
		{ActivityType: domain.ActivityBuy, ActivityDate: now, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10), Currency: "USD"},
	}
	summaries, err := agg.Aggregate(activities, nil, "USD", now)
	require.NoError(t, err)
	assert.True(t, summaries[PeriodTotal].Total.IsZero())
}

func TestAggregate_BonusDepositCounted(t *testing.T) {
	converter := fx.NewConverter()
	agg := New(converter)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	activities := []domain.Activity{
		{ActivityType: domain.ActivityDeposit, Subtype: domain.SubtypeBonus, ActivityDate: now, Amount: decimal.NewFromInt(50), Currency: "USD"},
		{ActivityType: domain.ActivityDeposit, ActivityDate: now, Amount: decimal.NewFromInt(1000), Currency: "USD"}, // plain deposit, not income
	}
	summaries, err := agg.Aggregate(activities, nil, "USD", now)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(summaries[PeriodTotal].Total))
}

func TestAggregate_RealizedGainsOnlyPositiveCounted(t *testing.T) {
	converter := fx.NewConverter()
	agg := New(converter)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	sales := []RealizedSale{
		{AssetID: "SEC:AAPL:XNAS", Date: now, Currency: "USD", SaleProceeds: decimal.NewFromInt(150), CostBasisSold: decimal.NewFromInt(100)},
		{AssetID: "SEC:TSLA:XNAS", Date: now, Currency: "USD", SaleProceeds: decimal.NewFromInt(50), CostBasisSold: decimal.NewFromInt(100)}, // a loss
	}
	summaries, err := agg.Aggregate(nil, sales, "USD", now)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(summaries[PeriodTotal].Total))
}

func TestAggregate_YoYGrowthNilWhenNoPreviousYear(t *testing.T) {
	converter := fx.NewConverter()
	agg := New(converter)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	summaries, err := agg.Aggregate(nil, nil, "USD", now)
	require.NoError(t, err)
	assert.Nil(t, summaries[PeriodYTD].YoYGrowth)
}

func TestAggregate_ConversionErrorPropagates(t *testing.T) {
	converter := fx.NewConverter() // no rates ingested
	agg := New(converter)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	activities := []domain.Activity{
		{ActivityType: domain.ActivityDividend, ActivityDate: now, Amount: decimal.NewFromInt(100), Currency: "EUR"},
	}
	_, err := agg.Aggregate(activities, nil, "USD", now)
	assert.Error(t, err)
}
