package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/ratelimit"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/registry"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/resolver"
	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/quotestore"
	"github.com/afadil/wealthfolio-sub005/internal/scheduler/jobs"
	"github.com/afadil/wealthfolio-sub005/internal/snapshot"
	"github.com/afadil/wealthfolio-sub005/internal/storage"
	coretesting "github.com/afadil/wealthfolio-sub005/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyAssetLister struct{}

func (emptyAssetLister) ListActive(ctx context.Context) ([]domain.Asset, error) {
	return nil, nil
}

func (emptyAssetLister) Get(ctx context.Context, id string) (domain.Asset, error) {
	return domain.Asset{}, coreerrors.NewNotFoundError("asset " + id + " not found")
}

func newSyncTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	db, cleanup := coretesting.NewTestDB(t)
	t.Cleanup(cleanup)

	activities := storage.NewActivityStore(db.Conn(), zerolog.Nop())
	quotes := quotestore.New(db.Conn(), zerolog.Nop())
	syncState := quotestore.NewSyncStateStore(db.Conn(), zerolog.Nop())
	snapshots := storage.NewSnapshotStore(db.Conn(), zerolog.Nop())

	chain, err := resolver.NewChain()
	require.NoError(t, err)
	reg := registry.New(nil, chain, ratelimit.NewRegistry(ratelimit.Limits{RequestsPerMinute: 600, Burst: 10}, nil), 5, time.Minute, zerolog.Nop())
	quoteSyncJob := jobs.NewQuoteSyncJob(emptyAssetLister{}, syncState, quotes, reg, zerolog.Nop())

	snapSvc := snapshot.New(snapshots, activities, nil, zerolog.Nop(), nil)
	h := NewSyncHandlers(quoteSyncJob, snapSvc, zerolog.Nop())

	r := chi.NewRouter()
	r.Post("/sync/quotes", h.TriggerQuoteSync)
	r.Post("/sync/rebuild", h.TriggerRebuild)
	return r
}

func TestSyncHandlers_TriggerQuoteSync_NoAssetsSucceeds(t *testing.T) {
	r := newSyncTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/sync/quotes", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestSyncHandlers_TriggerRebuild_EmptyBodyIsAccepted(t *testing.T) {
	r := newSyncTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/sync/rebuild", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestSyncHandlers_TriggerRebuild_InvalidFromDateIs400(t *testing.T) {
	r := newSyncTestRouter(t)

	body := `{"from_date":"not-a-date"}`
	req := httptest.NewRequest(http.MethodPost, "/sync/rebuild", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncHandlers_TriggerRebuild_InvalidBodyIs400(t *testing.T) {
	r := newSyncTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/sync/rebuild", bytes.NewBufferString(`{`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
