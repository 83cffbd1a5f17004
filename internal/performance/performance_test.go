package performance

import (
	"testing"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/flowclassifier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSimpleGain(t *testing.T) {
	got := SimpleGain(decimal.NewFromInt(1200), decimal.NewFromInt(1000))
	assert.True(t, decimal.NewFromInt(200).Equal(got))
}

func TestExternalFlowsFromActivities(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	activities := []domain.Activity{
		{ActivityType: domain.ActivityDeposit, ActivityDate: day, Amount: decimal.NewFromInt(1000), Currency: "USD"},
		{ActivityType: domain.ActivityBuy, ActivityDate: day, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), Currency: "USD"},
		{ActivityType: domain.ActivityWithdrawal, ActivityDate: day.AddDate(0, 0, 1), Amount: decimal.NewFromInt(200), Currency: "USD"},
	}
	flows := ExternalFlowsFromActivities(activities, flowclassifier.ScopeAccount)

	assert.Len(t, flows, 2)
	assert.True(t, decimal.NewFromInt(1000).Equal(flows[0].Amount))
	assert.True(t, decimal.NewFromInt(-200).Equal(flows[1].Amount))
}

func TestTWR_NoFlows(t *testing.T) {
	series := ValuationSeries{
		{ValuationDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), TotalValue: decimal.NewFromInt(1000)},
		{ValuationDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), TotalValue: decimal.NewFromInt(1100)},
	}
	twr, warnings := TWR(series, nil)
	assert.Empty(t, warnings)
	assert.True(t, decimal.NewFromFloat(0.1).Equal(twr))
}

func TestTWR_WithFlowNeutralizesContribution(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := ValuationSeries{
		{ValuationDate: day1, TotalValue: decimal.NewFromInt(1000)},
		{ValuationDate: day2, TotalValue: decimal.NewFromInt(2100)}, // +1000 flow, +100 growth
	}
	flows := []Flow{{Date: day2, Amount: decimal.NewFromInt(1000)}}

	twr, _ := TWR(series, flows)
	// denominator = 1000 + 0.5*1000 = 1500; return = (2100-1000-1000)/1500 = 100/1500
	expected := decimal.NewFromInt(100).Div(decimal.NewFromInt(1500))
	assert.True(t, expected.Equal(twr))
}

func TestTWR_LessThanTwoPointsReturnsZero(t *testing.T) {
	twr, warnings := TWR(ValuationSeries{{TotalValue: decimal.NewFromInt(100)}}, nil)
	assert.True(t, twr.IsZero())
	assert.Nil(t, warnings)
}

func TestMWR_SimpleRoundTrip(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	flows := []Flow{{Date: base, Amount: decimal.NewFromInt(-1000)}}
	rate, ok := MWR(flows, base.AddDate(1, 0, 0), decimal.NewFromInt(1100))
	assert.True(t, ok)
	// ~10% annualized return
	f, _ := rate.Float64()
	assert.InDelta(t, 0.10, f, 0.01)
}

func TestMWR_DegenerateSameSignFlowsDoesNotConverge(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	flows := []Flow{{Date: base, Amount: decimal.NewFromInt(1000)}}
	_, ok := MWR(flows, base.AddDate(0, 1, 0), decimal.NewFromInt(500))
	assert.False(t, ok)
}

func TestMWR_EmptyFlows(t *testing.T) {
	_, ok := MWR(nil, time.Now(), decimal.Zero)
	assert.False(t, ok)
}

func TestDayGain(t *testing.T) {
	positionOpenClose := map[string][3]decimal.Decimal{
		"SEC:AAPL:XNAS": {decimal.NewFromInt(100), decimal.NewFromInt(110), decimal.NewFromInt(10)},
	}
	result := DayGain(positionOpenClose, decimal.Zero, decimal.NewFromInt(1000))
	assert.True(t, decimal.NewFromInt(100).Equal(result.AbsoluteGain))
	assert.True(t, decimal.NewFromFloat(0.1).Equal(result.PercentGain))
}

func TestDayGain_ZeroPriorValueYieldsZeroPercent(t *testing.T) {
	result := DayGain(nil, decimal.NewFromInt(5), decimal.Zero)
	assert.True(t, decimal.NewFromInt(5).Equal(result.AbsoluteGain))
	assert.True(t, result.PercentGain.IsZero())
}
