package storage

import (
	"context"
	"testing"

	coretesting "github.com/afadil/wealthfolio-sub005/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetStore_UpsertThenGet(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewAssetStore(db.Conn(), zerolog.Nop())

	fixtures := coretesting.NewAssetFixtures()
	require.NoError(t, store.Upsert(context.Background(), fixtures[0]))

	got, err := store.Get(context.Background(), fixtures[0].ID)
	require.NoError(t, err)
	assert.Equal(t, fixtures[0].Symbol, got.Symbol)
	assert.Equal(t, fixtures[0].Currency, got.Currency)
}

func TestAssetStore_Get_NotFound(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewAssetStore(db.Conn(), zerolog.Nop())

	_, err := store.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestAssetStore_ListActive_ExcludesDeactivated(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewAssetStore(db.Conn(), zerolog.Nop())

	fixtures := coretesting.NewAssetFixtures()
	for _, a := range fixtures {
		require.NoError(t, store.Upsert(context.Background(), a))
	}
	inactive := fixtures[0]
	inactive.IsActive = false
	require.NoError(t, store.Upsert(context.Background(), inactive))

	active, err := store.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, len(fixtures)-1)
	for _, a := range active {
		assert.NotEqual(t, inactive.ID, a.ID)
	}
}

func TestAssetStore_Upsert_PersistsProviderOverrides(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	store := NewAssetStore(db.Conn(), zerolog.Nop())

	a := coretesting.NewAssetFixtures()[0]
	a.ProviderOverrides = map[string]string{"yahoo": "AAPL-CUSTOM"}
	require.NoError(t, store.Upsert(context.Background(), a))

	got, err := store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAPL-CUSTOM", got.ProviderOverrides["yahoo"])
}

func TestAssetStore_Merge_ReassignsActivitiesAndDeactivatesSource(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	assetStore := NewAssetStore(db.Conn(), zerolog.Nop())
	activityStore := NewActivityStore(db.Conn(), zerolog.Nop())

	fixtures := coretesting.NewAssetFixtures()
	from := fixtures[0]
	into := fixtures[1]
	require.NoError(t, assetStore.Upsert(context.Background(), from))
	require.NoError(t, assetStore.Upsert(context.Background(), into))

	act := coretesting.NewActivityFixtures()[1]
	act.AssetID = from.ID
	require.NoError(t, activityStore.Upsert(context.Background(), act))

	require.NoError(t, assetStore.Merge(context.Background(), from.ID, into.ID))

	movedAct, err := activityStore.Get(context.Background(), act.ID)
	require.NoError(t, err)
	assert.Equal(t, into.ID, movedAct.AssetID)

	mergedAsset, err := assetStore.Get(context.Background(), from.ID)
	require.NoError(t, err)
	assert.False(t, mergedAsset.IsActive)
}
