// Package quotestore stores one quote per (asset_id, day), plus per-asset
// QuoteSyncState tracking, in the plain sql.DB + zerolog repository style
// used throughout this codebase. A later upsert for the same asset and day
// replaces the stored row whatever its source; source does not break ties.
package quotestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Store persists quotes and per-asset sync state.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// New builds a Store over an already-migrated database connection.
func New(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log.With().Str("component", "quotestore").Logger()}
}

// UpsertQuote inserts or replaces a quote for (asset_id, day). When two
// sources disagree for the same day, the most recently ingested row wins,
// which this statement implements via INSERT ... ON CONFLICT DO UPDATE.
func (s *Store) UpsertQuote(ctx context.Context, q domain.Quote) error {
	if err := q.Validate(); err != nil {
		return err
	}
	const stmt = `
		INSERT INTO quotes (asset_id, day, open, high, low, close, adj_close, volume, currency, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(asset_id, day) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, adj_close = excluded.adj_close,
			volume = excluded.volume, currency = excluded.currency,
			source = excluded.source, created_at = excluded.created_at
	`
	_, err := s.db.ExecContext(ctx, stmt,
		q.AssetID, q.Day.Format("2006-01-02"), q.Open.String(), q.High.String(), q.Low.String(),
		q.Close.String(), q.AdjClose.String(), q.Volume.String(), q.Currency, q.Source, q.CreatedAt,
	)
	if err != nil {
		return coreerrors.NewDatabaseError("upsert quote", err)
	}
	return nil
}

// LatestQuote returns the most recent quote on or before asOf for an asset.
func (s *Store) LatestQuote(ctx context.Context, assetID string, asOf time.Time) (domain.Quote, error) {
	const query = `
		SELECT asset_id, day, open, high, low, close, adj_close, volume, currency, source, created_at
		FROM quotes WHERE asset_id = ? AND day <= ?
		ORDER BY day DESC LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query, assetID, asOf.Format("2006-01-02"))
	q, err := scanQuote(row)
	if err == sql.ErrNoRows {
		return domain.Quote{}, coreerrors.NewNotFoundError(fmt.Sprintf("no quote for asset %s on or before %s", assetID, asOf.Format("2006-01-02")))
	}
	if err != nil {
		return domain.Quote{}, coreerrors.NewDatabaseError("query latest quote", err)
	}
	return q, nil
}

// QuotesInRange returns quotes for an asset within [start, end], ascending
// by day.
func (s *Store) QuotesInRange(ctx context.Context, assetID string, start, end time.Time) ([]domain.Quote, error) {
	const query = `
		SELECT asset_id, day, open, high, low, close, adj_close, volume, currency, source, created_at
		FROM quotes WHERE asset_id = ? AND day BETWEEN ? AND ?
		ORDER BY day ASC
	`
	rows, err := s.db.QueryContext(ctx, query, assetID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, coreerrors.NewDatabaseError("query quote range", err)
	}
	defer rows.Close()

	var out []domain.Quote
	for rows.Next() {
		q, err := scanQuoteRows(rows)
		if err != nil {
			return nil, coreerrors.NewDatabaseError("scan quote row", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.NewDatabaseError("iterate quote rows", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row *sql.Row) (domain.Quote, error) {
	return scanGeneric(row)
}

func scanQuoteRows(rows *sql.Rows) (domain.Quote, error) {
	return scanGeneric(rows)
}

func scanGeneric(s scanner) (domain.Quote, error) {
	var (
		q                                             domain.Quote
		day                                           string
		openS, highS, lowS, closeS, adjCloseS, volS   string
	)
	if err := s.Scan(&q.AssetID, &day, &openS, &highS, &lowS, &closeS, &adjCloseS, &volS, &q.Currency, &q.Source, &q.CreatedAt); err != nil {
		return domain.Quote{}, err
	}
	parsedDay, err := time.Parse("2006-01-02", day)
	if err != nil {
		return domain.Quote{}, err
	}
	q.Day = parsedDay
	q.Open, _ = decimal.NewFromString(openS)
	q.High, _ = decimal.NewFromString(highS)
	q.Low, _ = decimal.NewFromString(lowS)
	q.Close, _ = decimal.NewFromString(closeS)
	q.AdjClose, _ = decimal.NewFromString(adjCloseS)
	q.Volume, _ = decimal.NewFromString(volS)
	return q, nil
}

// SyncStateStore persists QuoteSyncState rows.
type SyncStateStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSyncStateStore builds a SyncStateStore over an already-migrated
// connection.
func NewSyncStateStore(db *sql.DB, log zerolog.Logger) *SyncStateStore {
	return &SyncStateStore{db: db, log: log.With().Str("component", "quote_sync_state").Logger()}
}

// Get returns the sync state for an asset, or a zero-value IsActive=true
// state if none has been recorded yet.
func (s *SyncStateStore) Get(ctx context.Context, assetID string) (domain.QuoteSyncState, error) {
	const query = `
		SELECT asset_id, is_active, position_closed_date, last_synced_at, data_source,
		       sync_priority, error_count, last_error, profile_enriched_at
		FROM quote_sync_state WHERE asset_id = ?
	`
	row := s.db.QueryRowContext(ctx, query, assetID)
	var (
		state                                    domain.QuoteSyncState
		positionClosedDate, lastSyncedAt, profAt  sql.NullTime
		lastError                                 sql.NullString
	)
	err := row.Scan(&state.AssetID, &state.IsActive, &positionClosedDate, &lastSyncedAt,
		&state.DataSource, &state.SyncPriority, &state.ErrorCount, &lastError, &profAt)
	if err == sql.ErrNoRows {
		return domain.QuoteSyncState{AssetID: assetID, IsActive: true}, nil
	}
	if err != nil {
		return domain.QuoteSyncState{}, coreerrors.NewDatabaseError("query sync state", err)
	}
	if positionClosedDate.Valid {
		state.PositionClosedDate = &positionClosedDate.Time
	}
	if lastSyncedAt.Valid {
		state.LastSyncedAt = &lastSyncedAt.Time
	}
	if profAt.Valid {
		state.ProfileEnrichedAt = &profAt.Time
	}
	if lastError.Valid {
		state.LastError = lastError.String
	}
	return state, nil
}

// Upsert writes a QuoteSyncState row.
func (s *SyncStateStore) Upsert(ctx context.Context, state domain.QuoteSyncState) error {
	const stmt = `
		INSERT INTO quote_sync_state
			(asset_id, is_active, position_closed_date, last_synced_at, data_source, sync_priority, error_count, last_error, profile_enriched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(asset_id) DO UPDATE SET
			is_active = excluded.is_active,
			position_closed_date = excluded.position_closed_date,
			last_synced_at = excluded.last_synced_at,
			data_source = excluded.data_source,
			sync_priority = excluded.sync_priority,
			error_count = excluded.error_count,
			last_error = excluded.last_error,
			profile_enriched_at = excluded.profile_enriched_at
	`
	_, err := s.db.ExecContext(ctx, stmt,
		state.AssetID, state.IsActive, state.PositionClosedDate, state.LastSyncedAt,
		state.DataSource, state.SyncPriority, state.ErrorCount, nullString(state.LastError), state.ProfileEnrichedAt,
	)
	if err != nil {
		return coreerrors.NewDatabaseError("upsert sync state", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// IncrementalWindow returns the [start, end] window an incremental sync
// should request for this asset: "[last_synced_at - 1 day
// .. min(today, position_closed_date ?? today)]".
func IncrementalWindow(state domain.QuoteSyncState, today time.Time) (start, end time.Time) {
	end = today
	if state.PositionClosedDate != nil && state.PositionClosedDate.Before(today) {
		end = *state.PositionClosedDate
	}
	if state.LastSyncedAt == nil {
		start = end.AddDate(0, 0, -1)
		return start, end
	}
	start = state.LastSyncedAt.AddDate(0, 0, -1)
	return start, end
}
