// Package storage implements SQLite-backed persistence for activities,
// assets, snapshots, exchange rates and settings, following
// internal/quotestore's established conventions (TEXT-encoded decimals,
// context-scoped queries, coreerrors wrapping, plain sql.DB + zerolog
// repositories).
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ActivityStore persists the activity ledger and satisfies
// internal/snapshot.ActivityLoader.
type ActivityStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewActivityStore builds an ActivityStore over an already-migrated connection.
func NewActivityStore(db *sql.DB, log zerolog.Logger) *ActivityStore {
	return &ActivityStore{db: db, log: log.With().Str("component", "activity_store").Logger()}
}

const activityColumns = `id, account_id, asset_id, activity_type, activity_type_override, subtype, status,
	activity_date, settlement_date, quantity, unit_price, amount, fee, currency, fx_rate, notes,
	source_system, source_record_id, idempotency_key, is_user_modified, needs_review`

// Upsert inserts or replaces one activity, keyed by id.
func (s *ActivityStore) Upsert(ctx context.Context, a domain.Activity) error {
	if err := a.Validate(); err != nil {
		return err
	}
	const stmt = `
		INSERT INTO activities (` + activityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id, asset_id = excluded.asset_id,
			activity_type = excluded.activity_type, activity_type_override = excluded.activity_type_override,
			subtype = excluded.subtype, status = excluded.status,
			activity_date = excluded.activity_date, settlement_date = excluded.settlement_date,
			quantity = excluded.quantity, unit_price = excluded.unit_price, amount = excluded.amount,
			fee = excluded.fee, currency = excluded.currency, fx_rate = excluded.fx_rate, notes = excluded.notes,
			source_system = excluded.source_system, source_record_id = excluded.source_record_id,
			idempotency_key = excluded.idempotency_key, is_user_modified = excluded.is_user_modified,
			needs_review = excluded.needs_review
	`
	_, err := s.db.ExecContext(ctx, stmt,
		a.ID, a.AccountID, a.AssetID, string(a.ActivityType), string(a.ActivityTypeOverride), string(a.Subtype), string(a.Status),
		a.ActivityDate.Format(time.RFC3339), nullTimeRFC3339(a.SettlementDate),
		a.Quantity.String(), a.UnitPrice.String(), a.Amount.String(), a.Fee.String(), a.Currency, a.FxRate.String(), a.Notes,
		a.SourceSystem, a.SourceRecordID, a.IdempotencyKey, a.IsUserModified, a.NeedsReview,
	)
	if err != nil {
		return coreerrors.NewDatabaseError("upsert activity", err)
	}
	return nil
}

// BulkUpsert writes a batch of activities within one transaction.
func (s *ActivityStore) BulkUpsert(ctx context.Context, activities []domain.Activity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return coreerrors.NewDatabaseError("begin bulk upsert activities", err)
	}
	for _, a := range activities {
		if err := a.Validate(); err != nil {
			_ = tx.Rollback()
			return err
		}
		const stmt = `
			INSERT INTO activities (` + activityColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				account_id = excluded.account_id, asset_id = excluded.asset_id,
				activity_type = excluded.activity_type, activity_type_override = excluded.activity_type_override,
				subtype = excluded.subtype, status = excluded.status,
				activity_date = excluded.activity_date, settlement_date = excluded.settlement_date,
				quantity = excluded.quantity, unit_price = excluded.unit_price, amount = excluded.amount,
				fee = excluded.fee, currency = excluded.currency, fx_rate = excluded.fx_rate, notes = excluded.notes,
				source_system = excluded.source_system, source_record_id = excluded.source_record_id,
				idempotency_key = excluded.idempotency_key, is_user_modified = excluded.is_user_modified,
				needs_review = excluded.needs_review
		`
		_, err := tx.ExecContext(ctx, stmt,
			a.ID, a.AccountID, a.AssetID, string(a.ActivityType), string(a.ActivityTypeOverride), string(a.Subtype), string(a.Status),
			a.ActivityDate.Format(time.RFC3339), nullTimeRFC3339(a.SettlementDate),
			a.Quantity.String(), a.UnitPrice.String(), a.Amount.String(), a.Fee.String(), a.Currency, a.FxRate.String(), a.Notes,
			a.SourceSystem, a.SourceRecordID, a.IdempotencyKey, a.IsUserModified, a.NeedsReview,
		)
		if err != nil {
			_ = tx.Rollback()
			return coreerrors.NewDatabaseError("bulk upsert activity", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return coreerrors.NewDatabaseError("commit bulk upsert activities", err)
	}
	return nil
}

// Delete removes one activity by id.
func (s *ActivityStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id); err != nil {
		return coreerrors.NewDatabaseError("delete activity", err)
	}
	return nil
}

// Get returns one activity by id.
func (s *ActivityStore) Get(ctx context.Context, id string) (domain.Activity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return domain.Activity{}, coreerrors.NewNotFoundError("activity " + id + " not found")
	}
	if err != nil {
		return domain.Activity{}, coreerrors.NewDatabaseError("query activity", err)
	}
	return a, nil
}

// LoadFrom satisfies internal/snapshot.ActivityLoader: every activity for
// accountID with activity_date >= from, ascending by (activity_date, id).
func (s *ActivityStore) LoadFrom(ctx context.Context, accountID string, from time.Time) ([]domain.Activity, error) {
	const query = `
		SELECT ` + activityColumns + ` FROM activities
		WHERE account_id = ? AND activity_date >= ?
		ORDER BY activity_date ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, accountID, from.Format(time.RFC3339))
	if err != nil {
		return nil, coreerrors.NewDatabaseError("query activities from", err)
	}
	defer rows.Close()
	return scanActivities(rows)
}

// SearchParams narrows Search's result set; zero-value fields are ignored.
type SearchParams struct {
	AccountID string
	AssetID   string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Search lists activities matching the given filters, ascending by
// (activity_date, id), supporting bulk/search HTTP surface.
func (s *ActivityStore) Search(ctx context.Context, p SearchParams) ([]domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE 1=1`
	var args []any
	if p.AccountID != "" {
		query += ` AND account_id = ?`
		args = append(args, p.AccountID)
	}
	if p.AssetID != "" {
		query += ` AND asset_id = ?`
		args = append(args, p.AssetID)
	}
	if p.From != nil {
		query += ` AND activity_date >= ?`
		args = append(args, p.From.Format(time.RFC3339))
	}
	if p.To != nil {
		query += ` AND activity_date <= ?`
		args = append(args, p.To.Format(time.RFC3339))
	}
	query += ` ORDER BY activity_date ASC, id ASC`
	if p.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, p.Limit, p.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, coreerrors.NewDatabaseError("search activities", err)
	}
	defer rows.Close()
	return scanActivities(rows)
}

func scanActivities(rows *sql.Rows) ([]domain.Activity, error) {
	var out []domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, coreerrors.NewDatabaseError("scan activity row", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.NewDatabaseError("iterate activity rows", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (domain.Activity, error) {
	var (
		a                                                 domain.Activity
		activityDate                                      string
		settlementDate                                     sql.NullString
		quantityS, unitPriceS, amountS, feeS, fxRateS       string
	)
	err := row.Scan(
		&a.ID, &a.AccountID, &a.AssetID, &a.ActivityType, &a.ActivityTypeOverride, &a.Subtype, &a.Status,
		&activityDate, &settlementDate, &quantityS, &unitPriceS, &amountS, &feeS, &a.Currency, &fxRateS, &a.Notes,
		&a.SourceSystem, &a.SourceRecordID, &a.IdempotencyKey, &a.IsUserModified, &a.NeedsReview,
	)
	if err != nil {
		return domain.Activity{}, err
	}
	a.ActivityDate, err = time.Parse(time.RFC3339, activityDate)
	if err != nil {
		return domain.Activity{}, err
	}
	if settlementDate.Valid {
		t, err := time.Parse(time.RFC3339, settlementDate.String)
		if err != nil {
			return domain.Activity{}, err
		}
		a.SettlementDate = &t
	}
	a.Quantity, _ = decimal.NewFromString(quantityS)
	a.UnitPrice, _ = decimal.NewFromString(unitPriceS)
	a.Amount, _ = decimal.NewFromString(amountS)
	a.Fee, _ = decimal.NewFromString(feeS)
	a.FxRate, _ = decimal.NewFromString(fxRateS)
	return a, nil
}

func nullTimeRFC3339(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
