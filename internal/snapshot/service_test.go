package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/storage"
	coretesting "github.com/afadil/wealthfolio-sub005/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock pins "today" to the day the activity fixtures end, so Rebuild's
// carry-forward doesn't walk hundreds of real-world days in every test run.
var fixedClock = func() time.Time {
	return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
}

func newServiceTestDeps(t *testing.T) (*Service, *storage.SnapshotStore, *storage.ActivityStore, *coretesting.MockEventSink) {
	t.Helper()
	db, cleanup := coretesting.NewTestDB(t)
	t.Cleanup(cleanup)

	snapshots := storage.NewSnapshotStore(db.Conn(), zerolog.Nop())
	activities := storage.NewActivityStore(db.Conn(), zerolog.Nop())
	sink := coretesting.NewMockEventSink()

	svc := New(snapshots, activities, sink, zerolog.Nop(), fixedClock)
	return svc, snapshots, activities, sink
}

func TestRebuild_BuildsSnapshotSeriesFromActivities(t *testing.T) {
	svc, snapshots, activities, sink := newServiceTestDeps(t)
	ctx := context.Background()
	require.NoError(t, activities.BulkUpsert(ctx, coretesting.NewActivityFixtures()))

	require.NoError(t, svc.Rebuild(ctx, []string{"acct-1"}, nil))

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := from
	rows, err := snapshots.InRange(ctx, "acct-1", &from, &to)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	final := rows[0]
	assetID := domain.SecurityAssetID("AAPL", "XNAS")
	pos, ok := final.Positions[assetID]
	require.True(t, ok)
	assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(6)), "expected 10 bought - 4 sold = 6 remaining")

	events := sink.Events()
	assert.Len(t, events, 1)
	changed, ok := events[0].(domain.HoldingsChanged)
	require.True(t, ok)
	assert.Equal(t, []string{"acct-1"}, changed.AccountIDs)
}

func TestRebuild_FromDateOnlyRecomputesFromThatDayForward(t *testing.T) {
	svc, snapshots, activities, _ := newServiceTestDeps(t)
	ctx := context.Background()
	require.NoError(t, activities.BulkUpsert(ctx, coretesting.NewActivityFixtures()))

	seedDay := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	seed := domain.AccountStateSnapshot{
		AccountID:    "acct-1",
		SnapshotDate: seedDay,
		Currency:     "USD",
		CashBalances: map[string]decimal.Decimal{"USD": decimal.NewFromInt(999999)},
		Positions:    map[string]domain.Position{},
		CalculatedAt: seedDay,
	}
	require.NoError(t, snapshots.SaveBatch(ctx, []domain.AccountStateSnapshot{seed}))

	from := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Rebuild(ctx, []string{"acct-1"}, &from))

	rows, err := snapshots.InRange(ctx, "acct-1", &seedDay, &seedDay)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].CashBalances["USD"].Equal(decimal.NewFromInt(999999)), "snapshot before from_date must survive untouched")
}

func TestRebuild_NoActivitiesAndNoFromDateFails(t *testing.T) {
	svc, _, _, _ := newServiceTestDeps(t)

	err := svc.Rebuild(context.Background(), []string{"acct-empty"}, nil)
	assert.Error(t, err)
}

func TestRebuild_MultipleAccountsRunConcurrently(t *testing.T) {
	svc, snapshots, activities, sink := newServiceTestDeps(t)
	ctx := context.Background()

	fixtures := coretesting.NewActivityFixtures()
	var acct2 []domain.Activity
	for _, a := range fixtures {
		a.ID = a.ID + "-acct2"
		a.AccountID = "acct-2"
		acct2 = append(acct2, a)
	}
	require.NoError(t, activities.BulkUpsert(ctx, fixtures))
	require.NoError(t, activities.BulkUpsert(ctx, acct2))

	require.NoError(t, svc.Rebuild(ctx, []string{"acct-1", "acct-2"}, nil))

	for _, acct := range []string{"acct-1", "acct-2"} {
		from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		rows, err := snapshots.InRange(ctx, acct, &from, &from)
		require.NoError(t, err)
		require.Len(t, rows, 1)
	}
	events := sink.Events()
	require.Len(t, events, 1)
	changed := events[0].(domain.HoldingsChanged)
	assert.ElementsMatch(t, []string{"acct-1", "acct-2"}, changed.AccountIDs)
}

func TestGetDailySnapshots_DelegatesToRepositoryInRange(t *testing.T) {
	svc, snapshots, activities, _ := newServiceTestDeps(t)
	ctx := context.Background()
	require.NoError(t, activities.BulkUpsert(ctx, coretesting.NewActivityFixtures()))
	require.NoError(t, svc.Rebuild(ctx, []string{"acct-1"}, nil))

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	rows, err := svc.GetDailySnapshots(ctx, "acct-1", &from, &to)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)
}
