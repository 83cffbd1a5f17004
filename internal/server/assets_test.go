package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/storage"
	coretesting "github.com/afadil/wealthfolio-sub005/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssetTestRouter(t *testing.T) (*chi.Mux, *storage.AssetStore, *coretesting.MockEventSink) {
	t.Helper()
	db, cleanup := coretesting.NewTestDB(t)
	t.Cleanup(cleanup)
	store := storage.NewAssetStore(db.Conn(), zerolog.Nop())
	sink := coretesting.NewMockEventSink()
	h := NewAssetHandlers(store, sink, zerolog.Nop())

	r := chi.NewRouter()
	r.Post("/assets/merge", h.Merge)
	return r, store, sink
}

func TestAssetHandlers_Merge_ReassignsAndPublishesEvent(t *testing.T) {
	r, store, sink := newAssetTestRouter(t)
	fixtures := coretesting.NewAssetFixtures()
	from, into := fixtures[0], fixtures[1]
	require.NoError(t, store.Upsert(context.Background(), from))
	require.NoError(t, store.Upsert(context.Background(), into))

	body := `{"from":"` + from.ID + `","into":"` + into.ID + `"}`
	req := httptest.NewRequest(http.MethodPost, "/assets/merge", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	merged, err := store.Get(context.Background(), from.ID)
	require.NoError(t, err)
	assert.False(t, merged.IsActive)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.AssetsMerged{From: from.ID, Into: into.ID}, events[0])
}

func TestAssetHandlers_Merge_RejectsSameFromAndInto(t *testing.T) {
	r, _, sink := newAssetTestRouter(t)

	body := `{"from":"SEC:AAPL:XNAS","into":"SEC:AAPL:XNAS"}`
	req := httptest.NewRequest(http.MethodPost, "/assets/merge", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusOK, rec.Code)
	assert.Empty(t, sink.Events())
}
