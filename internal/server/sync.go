package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/scheduler/jobs"
	"github.com/afadil/wealthfolio-sub005/internal/snapshot"
	"github.com/rs/zerolog"
)

// SyncHandlers serves the /api/sync routes: on-demand quote sync and
// snapshot rebuild triggers, run synchronously rather than waiting for the
// cron schedule.
type SyncHandlers struct {
	quoteSync *jobs.QuoteSyncJob
	snapshots *snapshot.Service
	log       zerolog.Logger
}

// NewSyncHandlers builds a SyncHandlers.
func NewSyncHandlers(quoteSync *jobs.QuoteSyncJob, snapshots *snapshot.Service, log zerolog.Logger) *SyncHandlers {
	return &SyncHandlers{
		quoteSync: quoteSync,
		snapshots: snapshots,
		log:       log.With().Str("component", "sync_handlers").Logger(),
	}
}

// quoteSyncRequest is the optional body for POST /api/sync/quotes. An empty
// or absent market_sync_mode defaults to a full sweep.
type quoteSyncRequest struct {
	MarketSyncMode struct {
		Mode     string   `json:"mode"`
		AssetIDs []string `json:"asset_ids,omitempty"`
	} `json:"market_sync_mode"`
}

// TriggerQuoteSync handles POST /api/sync/quotes: runs the quote sync job
// immediately instead of waiting for its cron schedule, scoped by the
// request's market_sync_mode (None/Incremental{asset_ids}/Full).
func (h *SyncHandlers) TriggerQuoteSync(w http.ResponseWriter, r *http.Request) {
	var req quoteSyncRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, coreerrors.NewValidationError("invalid request body: "+err.Error()))
			return
		}
	}

	mode := domain.MarketSyncMode{Mode: domain.SyncFull}
	switch req.MarketSyncMode.Mode {
	case string(domain.SyncNone):
		mode = domain.MarketSyncMode{Mode: domain.SyncNone}
	case string(domain.SyncIncremental):
		mode = domain.MarketSyncMode{Mode: domain.SyncIncremental, AssetIDs: req.MarketSyncMode.AssetIDs}
	case string(domain.SyncFull), "":
		mode = domain.MarketSyncMode{Mode: domain.SyncFull}
	default:
		writeError(w, coreerrors.NewValidationError("invalid market_sync_mode.mode: "+req.MarketSyncMode.Mode))
		return
	}

	if err := h.quoteSync.RunWithMode(r.Context(), mode); err != nil {
		writeError(w, coreerrors.NewCalculationError("quote sync failed: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "completed"})
}

// rebuildRequest is the body for POST /api/sync/rebuild.
type rebuildRequest struct {
	AccountIDs []string `json:"account_ids,omitempty"`
	FromDate   string   `json:"from_date,omitempty"` // YYYY-MM-DD
}

// TriggerRebuild handles POST /api/sync/rebuild: recomputes every daily
// snapshot for the named accounts from from_date forward (or from each
// account's earliest required date when from_date is omitted). An empty
// account_ids list rebuilds no account.
func (h *SyncHandlers) TriggerRebuild(w http.ResponseWriter, r *http.Request) {
	var req rebuildRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, coreerrors.NewValidationError("invalid request body: "+err.Error()))
			return
		}
	}
	var fromDate *time.Time
	if req.FromDate != "" {
		t, err := time.Parse("2006-01-02", req.FromDate)
		if err != nil {
			writeError(w, coreerrors.NewValidationError("invalid from_date"))
			return
		}
		fromDate = &t
	}
	if err := h.snapshots.Rebuild(r.Context(), req.AccountIDs, fromDate); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "completed"})
}
