package fx

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestConvert_SameCurrency(t *testing.T) {
	c := NewConverter()
	got, err := c.Convert(decimal.NewFromInt(100), "USD", "USD", day(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(got))
}

func TestConvert_DirectRate(t *testing.T) {
	c := NewConverter()
	require.NoError(t, c.Ingest("EUR", "USD", day(2024, 1, 1), decimal.NewFromFloat(1.10)))

	got, err := c.Convert(decimal.NewFromInt(100), "EUR", "USD", day(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(110).Equal(got))
}

func TestConvert_InverseIsPopulated(t *testing.T) {
	c := NewConverter()
	require.NoError(t, c.Ingest("EUR", "USD", day(2024, 1, 1), decimal.NewFromFloat(2)))

	rate, ok := c.DirectRate("USD", "EUR", day(2024, 1, 1))
	require.True(t, ok)
	assert.True(t, decimal.NewFromFloat(0.5).Equal(rate))
}

func TestConvert_MultiHop(t *testing.T) {
	c := NewConverter()
	require.NoError(t, c.Ingest("EUR", "USD", day(2024, 1, 1), decimal.NewFromFloat(1.10)))
	require.NoError(t, c.Ingest("USD", "GBP", day(2024, 1, 1), decimal.NewFromFloat(0.80)))

	got, err := c.Convert(decimal.NewFromInt(100), "EUR", "GBP", day(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(88).Equal(got))
}

func TestConvert_NoPath(t *testing.T) {
	c := NewConverter()
	require.NoError(t, c.Ingest("EUR", "USD", day(2024, 1, 1), decimal.NewFromFloat(1.10)))

	_, err := c.Convert(decimal.NewFromInt(100), "EUR", "JPY", day(2024, 1, 1))
	assert.Error(t, err)
}

func TestDirectRate_NearestDate_TiesGoToPast(t *testing.T) {
	c := NewConverter()
	require.NoError(t, c.Ingest("EUR", "USD", day(2024, 1, 1), decimal.NewFromInt(1)))
	require.NoError(t, c.Ingest("EUR", "USD", day(2024, 1, 5), decimal.NewFromInt(5)))

	rate, ok := c.DirectRate("EUR", "USD", day(2024, 1, 3))
	require.True(t, ok)
	// equidistant (2 days each way) -> ties go to the past observation
	assert.True(t, decimal.NewFromInt(1).Equal(rate))
}

func TestDirectRate_ReIngestSameDateReplaces(t *testing.T) {
	c := NewConverter()
	require.NoError(t, c.Ingest("EUR", "USD", day(2024, 1, 1), decimal.NewFromInt(1)))
	require.NoError(t, c.Ingest("EUR", "USD", day(2024, 1, 1), decimal.NewFromInt(2)))

	rate, ok := c.DirectRate("EUR", "USD", day(2024, 1, 1))
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(2).Equal(rate))
}

func TestIngest_RejectsNonPositiveRate(t *testing.T) {
	c := NewConverter()
	err := c.Ingest("EUR", "USD", day(2024, 1, 1), decimal.Zero)
	assert.Error(t, err)
}

func TestIngest_SameCurrencyNoOp(t *testing.T) {
	c := NewConverter()
	require.NoError(t, c.Ingest("USD", "USD", day(2024, 1, 1), decimal.NewFromInt(1)))
	assert.Empty(t, c.adjacency["USD"])
}
