package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestActivity_EffectiveType_PrefersOverride(t *testing.T) {
	a := Activity{ActivityType: ActivityBuy, ActivityTypeOverride: ActivitySplit}
	assert.Equal(t, ActivitySplit, a.EffectiveType())

	b := Activity{ActivityType: ActivityBuy}
	assert.Equal(t, ActivityBuy, b.EffectiveType())
}

func TestActivity_Date_TruncatesToUTCCalendarDay(t *testing.T) {
	a := Activity{ActivityDate: time.Date(2024, time.January, 5, 14, 30, 0, 0, time.UTC)}
	assert.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), a.Date())
}

func TestActivity_Validate_BuySellRequiresPositiveQuantity(t *testing.T) {
	a := Activity{
		ActivityType: ActivityBuy,
		Quantity:     decimal.Zero,
		UnitPrice:    decimal.NewFromInt(10),
		Currency:     "USD",
	}
	err := a.Validate()
	assert.Error(t, err)
}

func TestActivity_Validate_BuySellRejectsNegativeUnitPrice(t *testing.T) {
	a := Activity{
		ActivityType: ActivitySell,
		Quantity:     decimal.NewFromInt(1),
		UnitPrice:    decimal.NewFromInt(-1),
		Currency:     "USD",
	}
	assert.Error(t, a.Validate())
}

func TestActivity_Validate_BuySellAcceptsValidActivity(t *testing.T) {
	a := Activity{
		ActivityType: ActivityBuy,
		Quantity:     decimal.NewFromInt(10),
		UnitPrice:    decimal.NewFromFloat(180.50),
		Currency:     "USD",
	}
	assert.NoError(t, a.Validate())
}

func TestActivity_Validate_CashActivityRequiresAmountOrFee(t *testing.T) {
	a := Activity{ActivityType: ActivityDeposit, Currency: "USD"}
	assert.Error(t, a.Validate())

	withFee := Activity{ActivityType: ActivityFee, Fee: decimal.NewFromInt(5), Currency: "USD"}
	assert.NoError(t, withFee.Validate())
}

func TestActivity_Validate_SplitRequiresPositiveRatio(t *testing.T) {
	a := Activity{ActivityType: ActivitySplit, Amount: decimal.Zero, Currency: "USD"}
	assert.Error(t, a.Validate())

	valid := Activity{ActivityType: ActivitySplit, Amount: decimal.NewFromInt(2), Currency: "USD"}
	assert.NoError(t, valid.Validate())
}

func TestActivity_Validate_RequiresCurrencyRegardlessOfType(t *testing.T) {
	a := Activity{ActivityType: ActivityTransferIn}
	assert.Error(t, a.Validate())
}

func TestActivity_Validate_OverrideTypeDrivesValidationBranch(t *testing.T) {
	a := Activity{
		ActivityType:         ActivityDeposit,
		ActivityTypeOverride: ActivityBuy,
		Currency:             "USD",
	}
	err := a.Validate()
	assert.Error(t, err, "override to BUY should require quantity even though the base type is a cash activity")
}

func TestActivitiesByDateThenID_SortsByDateThenID(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }
	activities := []Activity{
		{ID: "b", ActivityDate: day(2)},
		{ID: "a", ActivityDate: day(2)},
		{ID: "z", ActivityDate: day(1)},
	}
	sortable := ActivitiesByDateThenID(activities)
	assert.Equal(t, 3, sortable.Len())

	// bubble sort via the Less/Swap contract to avoid importing sort here
	for i := 0; i < len(activities); i++ {
		for j := i + 1; j < len(activities); j++ {
			if sortable.Less(j, i) {
				sortable.Swap(i, j)
			}
		}
	}
	assert.Equal(t, []string{"z", "a", "b"}, []string{activities[0].ID, activities[1].ID, activities[2].ID})
}
