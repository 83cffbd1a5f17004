package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/rs/zerolog"
)

// AssetStore persists the asset catalog.
type AssetStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewAssetStore builds an AssetStore over an already-migrated connection.
func NewAssetStore(db *sql.DB, log zerolog.Logger) *AssetStore {
	return &AssetStore{db: db, log: log.With().Str("component", "asset_store").Logger()}
}

const assetColumns = `id, kind, symbol, mic, currency, name, pricing_mode, preferred_provider, provider_overrides, is_active`

// Upsert inserts or replaces one asset, keyed by id.
func (s *AssetStore) Upsert(ctx context.Context, a domain.Asset) error {
	overrides, err := json.Marshal(a.ProviderOverrides)
	if err != nil {
		return coreerrors.NewValidationError("invalid provider overrides: " + err.Error())
	}
	const stmt = `
		INSERT INTO assets (` + assetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind, symbol = excluded.symbol, mic = excluded.mic, currency = excluded.currency,
			name = excluded.name, pricing_mode = excluded.pricing_mode, preferred_provider = excluded.preferred_provider,
			provider_overrides = excluded.provider_overrides, is_active = excluded.is_active
	`
	_, err = s.db.ExecContext(ctx, stmt,
		a.ID, string(a.Kind), a.Symbol, a.MIC, a.Currency, a.Name, string(a.PricingMode), a.PreferredProvider, string(overrides), a.IsActive,
	)
	if err != nil {
		return coreerrors.NewDatabaseError("upsert asset", err)
	}
	return nil
}

// Get returns one asset by id.
func (s *AssetStore) Get(ctx context.Context, id string) (domain.Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return domain.Asset{}, coreerrors.NewNotFoundError("asset " + id + " not found")
	}
	if err != nil {
		return domain.Asset{}, coreerrors.NewDatabaseError("query asset", err)
	}
	return a, nil
}

// ListActive returns every asset with is_active = 1.
func (s *AssetStore) ListActive(ctx context.Context) ([]domain.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE is_active = 1`)
	if err != nil {
		return nil, coreerrors.NewDatabaseError("list active assets", err)
	}
	defer rows.Close()
	var out []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, coreerrors.NewDatabaseError("scan asset row", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.NewDatabaseError("iterate asset rows", err)
	}
	return out, nil
}

// Merge reassigns every activity from `from` to `into`, deletes `from`'s
// quotes and quote sync state, and marks `from` inactive (its catalog
// entry is kept). Snapshot references live
// inside JSON blobs and are rebuilt by a subsequent snapshot.Rebuild,
// not rewritten here.
func (s *AssetStore) Merge(ctx context.Context, from, into string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return coreerrors.NewDatabaseError("begin asset merge", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE activities SET asset_id = ? WHERE asset_id = ?`, into, from); err != nil {
		_ = tx.Rollback()
		return coreerrors.NewDatabaseError("reassign activities on merge", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quotes WHERE asset_id = ?`, from); err != nil {
		_ = tx.Rollback()
		return coreerrors.NewDatabaseError("drop merged asset quotes", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quote_sync_state WHERE asset_id = ?`, from); err != nil {
		_ = tx.Rollback()
		return coreerrors.NewDatabaseError("drop merged asset sync state", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE assets SET is_active = 0 WHERE id = ?`, from); err != nil {
		_ = tx.Rollback()
		return coreerrors.NewDatabaseError("deactivate merged asset", err)
	}
	if err := tx.Commit(); err != nil {
		return coreerrors.NewDatabaseError("commit asset merge", err)
	}
	return nil
}

func scanAsset(row rowScanner) (domain.Asset, error) {
	var (
		a         domain.Asset
		overrides string
	)
	if err := row.Scan(&a.ID, &a.Kind, &a.Symbol, &a.MIC, &a.Currency, &a.Name, &a.PricingMode, &a.PreferredProvider, &overrides, &a.IsActive); err != nil {
		return domain.Asset{}, err
	}
	if overrides != "" {
		if err := json.Unmarshal([]byte(overrides), &a.ProviderOverrides); err != nil {
			return domain.Asset{}, err
		}
	}
	return a, nil
}
