package server

import (
	"net/http"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/flowclassifier"
	"github.com/afadil/wealthfolio-sub005/internal/fx"
	"github.com/afadil/wealthfolio-sub005/internal/income"
	"github.com/afadil/wealthfolio-sub005/internal/performance"
	"github.com/afadil/wealthfolio-sub005/internal/quotestore"
	"github.com/afadil/wealthfolio-sub005/internal/snapshot"
	"github.com/afadil/wealthfolio-sub005/internal/storage"
	"github.com/afadil/wealthfolio-sub005/internal/valuation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PortfolioHandlers serves the per-account read endpoints: daily snapshots,
// valuations, performance (TWR/MWR) and income summaries.
type PortfolioHandlers struct {
	snapshots    *snapshot.Service
	activities   *storage.ActivityStore
	assets       *storage.AssetStore
	quotes       *quotestore.Store
	converter    *fx.Converter
	valuator     *valuation.Calculator
	income       *income.Aggregator
	baseCurrency string
	clock        func() time.Time
	log          zerolog.Logger
}

// NewPortfolioHandlers builds a PortfolioHandlers.
func NewPortfolioHandlers(
	snapshots *snapshot.Service,
	activities *storage.ActivityStore,
	assets *storage.AssetStore,
	quotes *quotestore.Store,
	converter *fx.Converter,
	incomeAgg *income.Aggregator,
	baseCurrency string,
	log zerolog.Logger,
) *PortfolioHandlers {
	return &PortfolioHandlers{
		snapshots:    snapshots,
		activities:   activities,
		assets:       assets,
		quotes:       quotes,
		converter:    converter,
		valuator:     valuation.New(),
		income:       incomeAgg,
		baseCurrency: baseCurrency,
		clock:        time.Now,
		log:          log.With().Str("component", "portfolio_handlers").Logger(),
	}
}

func parseDateRange(r *http.Request) (from, to *time.Time, err error) {
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		t, e := time.Parse("2006-01-02", s)
		if e != nil {
			return nil, nil, coreerrors.NewValidationError("invalid from date")
		}
		from = &t
	}
	if s := q.Get("to"); s != "" {
		t, e := time.Parse("2006-01-02", s)
		if e != nil {
			return nil, nil, coreerrors.NewValidationError("invalid to date")
		}
		to = &t
	}
	return from, to, nil
}

// Snapshots handles GET /api/accounts/{accountID}/snapshots?from=&to=.
func (h *PortfolioHandlers) Snapshots(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snaps, err := h.snapshots.GetDailySnapshots(r.Context(), accountID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// assetLookup returns an AssetLookup backed by the asset catalog, reading
// through once per request rather than per position.
func (h *PortfolioHandlers) assetLookup(r *http.Request) (valuation.AssetLookup, error) {
	assets, err := h.assets.ListActive(r.Context())
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}
	return func(assetID string) (domain.Asset, bool) {
		a, ok := byID[assetID]
		return a, ok
	}, nil
}

// Valuations handles GET /api/accounts/{accountID}/valuations?from=&to=: it
// runs valuation.Calculator.Valuate over each daily snapshot in range using
// that day's quotes and FX rates.
func (h *PortfolioHandlers) Valuations(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snaps, err := h.snapshots.GetDailySnapshots(r.Context(), accountID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	lookup, err := h.assetLookup(r)
	if err != nil {
		writeError(w, err)
		return
	}

	valuations := make([]domain.DailyAccountValuation, 0, len(snaps))
	for _, snap := range snaps {
		quotesOfDay := make(map[string]domain.Quote, len(snap.Positions))
		for assetID := range snap.Positions {
			q, err := h.quotes.LatestQuote(r.Context(), assetID, snap.SnapshotDate)
			if err != nil {
				continue
			}
			quotesOfDay[assetID] = q
		}
		v, err := h.valuator.Valuate(snap, quotesOfDay, h.converter, snap.SnapshotDate, h.baseCurrency, lookup)
		if err != nil {
			writeError(w, err)
			return
		}
		valuations = append(valuations, v)
	}
	writeJSON(w, http.StatusOK, valuations)
}

// performancePayload is the response body for GET .../performance.
type performancePayload struct {
	TWR      string   `json:"twr"`
	TWRNotes []string `json:"twr_notes,omitempty"`
	MWR      string   `json:"mwr,omitempty"`
	MWRFound bool     `json:"mwr_converged"`
}

// Performance handles GET /api/accounts/{accountID}/performance?from=&to=:
// computes TWR over the valuation series and MWR (XIRR) over its external
// flows.
func (h *PortfolioHandlers) Performance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snaps, err := h.snapshots.GetDailySnapshots(r.Context(), accountID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(snaps) == 0 {
		writeJSON(w, http.StatusOK, performancePayload{TWR: "0"})
		return
	}
	lookup, err := h.assetLookup(r)
	if err != nil {
		writeError(w, err)
		return
	}

	series := make(performance.ValuationSeries, 0, len(snaps))
	for _, snap := range snaps {
		quotesOfDay := make(map[string]domain.Quote, len(snap.Positions))
		for assetID := range snap.Positions {
			q, err := h.quotes.LatestQuote(r.Context(), assetID, snap.SnapshotDate)
			if err != nil {
				continue
			}
			quotesOfDay[assetID] = q
		}
		v, err := h.valuator.Valuate(snap, quotesOfDay, h.converter, snap.SnapshotDate, h.baseCurrency, lookup)
		if err != nil {
			writeError(w, err)
			return
		}
		series = append(series, v)
	}

	startDate := series[0].ValuationDate
	activities, err := h.activities.LoadFrom(r.Context(), accountID, startDate)
	if err != nil {
		writeError(w, err)
		return
	}
	flows := performance.ExternalFlowsFromActivities(activities, flowclassifier.ScopeAccount)

	twr, notes := performance.TWR(series, flows)
	last := series[len(series)-1]
	mwr, converged := performance.MWR(flows, last.ValuationDate, last.TotalValue)

	payload := performancePayload{TWR: twr.String(), TWRNotes: notes, MWRFound: converged}
	if converged {
		payload.MWR = mwr.String()
	}
	writeJSON(w, http.StatusOK, payload)
}

// Income handles GET /api/accounts/{accountID}/income?from=: aggregates the
// income-classified activities dated on or after from into the per-period
// summaries. No sales are passed to the aggregator, so realized capital
// gains are not included; to is validated but not applied, and period is
// not read.
func (h *PortfolioHandlers) Income(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	from, _, err := parseDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	start := time.Time{}
	if from != nil {
		start = *from
	}
	activities, err := h.activities.LoadFrom(r.Context(), accountID, start)
	if err != nil {
		writeError(w, err)
		return
	}
	summaries, err := h.income.Aggregate(activities, nil, h.baseCurrency, h.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}
