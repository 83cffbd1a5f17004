package server

import (
	"encoding/json"
	"net/http"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/storage"
	"github.com/rs/zerolog"
)

// AssetHandlers serves the /api/assets routes.
type AssetHandlers struct {
	store *storage.AssetStore
	sink  domain.DomainEventSink
	log   zerolog.Logger
}

// NewAssetHandlers builds an AssetHandlers. A nil sink discards events.
func NewAssetHandlers(store *storage.AssetStore, sink domain.DomainEventSink, log zerolog.Logger) *AssetHandlers {
	if sink == nil {
		sink = domain.NopEventSink{}
	}
	return &AssetHandlers{store: store, sink: sink, log: log.With().Str("component", "asset_handlers").Logger()}
}

// mergeRequest is the body for POST /api/assets/merge.
type mergeRequest struct {
	From string `json:"from"`
	Into string `json:"into"`
}

// Merge handles POST /api/assets/merge: reassigns every activity from
// `from` to `into`, deletes `from`'s quotes and quote sync state,
// deactivates `from`, and publishes
// AssetsMerged so downstream snapshot rebuilds pick up the reassignment.
func (h *AssetHandlers) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, coreerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if req.From == "" || req.Into == "" {
		writeError(w, coreerrors.NewValidationError("from and into are both required"))
		return
	}
	if req.From == req.Into {
		writeError(w, coreerrors.NewValidationError("from and into must differ"))
		return
	}

	if err := h.store.Merge(r.Context(), req.From, req.Into); err != nil {
		writeError(w, err)
		return
	}
	h.sink.Publish(domain.AssetsMerged{From: req.From, Into: req.Into})
	writeJSON(w, http.StatusOK, map[string]string{"status": "merged"})
}
