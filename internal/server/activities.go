package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/idempotency"
	"github.com/afadil/wealthfolio-sub005/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ActivityHandlers serves the /api/activities routes.
type ActivityHandlers struct {
	store *storage.ActivityStore
	log   zerolog.Logger
}

// NewActivityHandlers builds an ActivityHandlers.
func NewActivityHandlers(store *storage.ActivityStore, log zerolog.Logger) *ActivityHandlers {
	return &ActivityHandlers{store: store, log: log.With().Str("component", "activity_handlers").Logger()}
}

// activityPayload is the wire shape for activity create/update requests.
type activityPayload struct {
	ID             string  `json:"id,omitempty"`
	AccountID      string  `json:"account_id"`
	AssetID        string  `json:"asset_id"`
	ActivityType   string  `json:"activity_type"`
	Subtype        string  `json:"subtype,omitempty"`
	ActivityDate   string  `json:"activity_date"`
	Quantity       string  `json:"quantity,omitempty"`
	UnitPrice      string  `json:"unit_price,omitempty"`
	Amount         string  `json:"amount,omitempty"`
	Fee            string  `json:"fee,omitempty"`
	Currency       string  `json:"currency"`
	Notes          string  `json:"notes,omitempty"`
	SourceSystem   string  `json:"source_system,omitempty"`
	SourceRecordID string  `json:"source_record_id,omitempty"`
}

// Create handles POST /api/activities: assigns a fresh manual:<uuid>
// idempotency key (idempotency.ManualKey) when the activity has none, then
// upserts the activity by id.
func (h *ActivityHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var p activityPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, coreerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	a, err := p.toActivity()
	if err != nil {
		writeError(w, err)
		return
	}
	if a.IdempotencyKey == "" {
		a.IdempotencyKey = idempotency.ManualKey()
	}
	if err := h.store.Upsert(r.Context(), a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// BulkImport handles POST /api/activities/bulk: a provider/import batch,
// each row deduplicated via its own canonical idempotency key.
func (h *ActivityHandlers) BulkImport(w http.ResponseWriter, r *http.Request) {
	var payloads []activityPayload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		writeError(w, coreerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	activities := make([]domain.Activity, 0, len(payloads))
	for _, p := range payloads {
		a, err := p.toActivity()
		if err != nil {
			writeError(w, err)
			return
		}
		if a.IdempotencyKey == "" {
			a.IdempotencyKey = idempotency.Key(idempotency.FromActivity(a, p.SourceRecordID))
		}
		activities = append(activities, a)
	}
	if err := h.store.BulkUpsert(r.Context(), activities); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, activities)
}

// Get handles GET /api/activities/{id}.
func (h *ActivityHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Update handles PUT /api/activities/{id}.
func (h *ActivityHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	var p activityPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, coreerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	p.ID = id
	a, err := p.toActivity()
	if err != nil {
		writeError(w, err)
		return
	}
	a.IdempotencyKey = existing.IdempotencyKey
	a.IsUserModified = true
	if err := h.store.Upsert(r.Context(), a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /api/activities/{id}.
func (h *ActivityHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/activities?account_id=&asset_id=&from=&to=&limit=&offset=.
func (h *ActivityHandlers) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := storage.SearchParams{
		AccountID: q.Get("account_id"),
		AssetID:   q.Get("asset_id"),
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeError(w, coreerrors.NewValidationError("invalid from date"))
			return
		}
		params.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeError(w, coreerrors.NewValidationError("invalid to date"))
			return
		}
		params.To = &t
	}
	activities, err := h.store.Search(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (p activityPayload) toActivity() (domain.Activity, error) {
	date, err := time.Parse(time.RFC3339, p.ActivityDate)
	if err != nil {
		return domain.Activity{}, coreerrors.NewValidationError("invalid activity_date: " + err.Error())
	}
	a := domain.Activity{
		ID:             p.ID,
		AccountID:      p.AccountID,
		AssetID:        p.AssetID,
		ActivityType:   domain.ActivityType(p.ActivityType),
		Subtype:        domain.ActivitySubtype(p.Subtype),
		Status:         domain.StatusPosted,
		ActivityDate:   date,
		Currency:       p.Currency,
		Notes:          p.Notes,
		SourceSystem:   p.SourceSystem,
		SourceRecordID: p.SourceRecordID,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Quantity = parseDecimalOrZero(p.Quantity)
	a.UnitPrice = parseDecimalOrZero(p.UnitPrice)
	a.Amount = parseDecimalOrZero(p.Amount)
	a.Fee = parseDecimalOrZero(p.Fee)
	if err := a.Validate(); err != nil {
		return domain.Activity{}, err
	}
	return a, nil
}
