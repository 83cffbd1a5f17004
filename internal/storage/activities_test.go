package storage

import (
	"context"
	"testing"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	coretesting "github.com/afadil/wealthfolio-sub005/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityStore_UpsertThenGet(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewActivityStore(db.Conn(), zerolog.Nop())

	fixtures := coretesting.NewActivityFixtures()
	require.NoError(t, store.Upsert(context.Background(), fixtures[0]))

	got, err := store.Get(context.Background(), fixtures[0].ID)
	require.NoError(t, err)
	assert.Equal(t, fixtures[0].AccountID, got.AccountID)
	assert.True(t, fixtures[0].Amount.Equal(got.Amount))
}

func TestActivityStore_Get_NotFound(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewActivityStore(db.Conn(), zerolog.Nop())

	_, err := store.Get(context.Background(), "does-not-exist")
	assert.Error(t, err)
}

func TestActivityStore_BulkUpsert_LoadFromOrdersAscending(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewActivityStore(db.Conn(), zerolog.Nop())

	require.NoError(t, store.BulkUpsert(context.Background(), coretesting.NewActivityFixtures()))

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	loaded, err := store.LoadFrom(context.Background(), "acct-1", from)
	require.NoError(t, err)
	require.Len(t, loaded, 4)
	for i := 1; i < len(loaded); i++ {
		assert.False(t, loaded[i].ActivityDate.Before(loaded[i-1].ActivityDate))
	}
}

func TestActivityStore_LoadFrom_ExcludesEarlierActivities(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewActivityStore(db.Conn(), zerolog.Nop())
	require.NoError(t, store.BulkUpsert(context.Background(), coretesting.NewActivityFixtures()))

	from := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	loaded, err := store.LoadFrom(context.Background(), "acct-1", from)
	require.NoError(t, err)
	for _, a := range loaded {
		assert.False(t, a.ActivityDate.Before(from))
	}
	assert.Len(t, loaded, 2) // dividend + sell, deposit and buy are earlier
}

func TestActivityStore_Search_FiltersByAssetAndDateRange(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewActivityStore(db.Conn(), zerolog.Nop())
	require.NoError(t, store.BulkUpsert(context.Background(), coretesting.NewActivityFixtures()))

	assetID := domain.SecurityAssetID("AAPL", "XNAS")
	results, err := store.Search(context.Background(), SearchParams{AccountID: "acct-1", AssetID: assetID})
	require.NoError(t, err)
	assert.Len(t, results, 3) // buy, dividend, sell

	from := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)
	results, err = store.Search(context.Background(), SearchParams{AccountID: "acct-1", From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, results, 1) // only the dividend
}

func TestActivityStore_Search_Pagination(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewActivityStore(db.Conn(), zerolog.Nop())
	require.NoError(t, store.BulkUpsert(context.Background(), coretesting.NewActivityFixtures()))

	results, err := store.Search(context.Background(), SearchParams{AccountID: "acct-1", Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "act-2", results[0].ID)
	assert.Equal(t, "act-3", results[1].ID)
}

func TestActivityStore_Delete(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewActivityStore(db.Conn(), zerolog.Nop())
	fixtures := coretesting.NewActivityFixtures()
	require.NoError(t, store.Upsert(context.Background(), fixtures[0]))

	require.NoError(t, store.Delete(context.Background(), fixtures[0].ID))
	_, err := store.Get(context.Background(), fixtures[0].ID)
	assert.Error(t, err)
}

func TestActivityStore_Upsert_RejectsInvalidActivity(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewActivityStore(db.Conn(), zerolog.Nop())

	err := store.Upsert(context.Background(), domain.Activity{})
	assert.Error(t, err)
}
