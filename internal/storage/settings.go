package storage

import (
	"context"
	"database/sql"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/rs/zerolog"
)

// SettingsStore persists simple key/value settings and satisfies
// internal/config.SettingsStore so provider credentials and the base
// currency can be managed at runtime instead of only via environment
// variables.
type SettingsStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSettingsStore builds a SettingsStore over an already-migrated connection.
func NewSettingsStore(db *sql.DB, log zerolog.Logger) *SettingsStore {
	return &SettingsStore{db: db, log: log.With().Str("component", "settings_store").Logger()}
}

// Get satisfies internal/config.SettingsStore.
func (s *SettingsStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(context.Background(), `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, coreerrors.NewDatabaseError("query setting", err)
	}
	return value, true, nil
}

// Set writes a setting value.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	const stmt = `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := s.db.ExecContext(ctx, stmt, key, value); err != nil {
		return coreerrors.NewDatabaseError("upsert setting", err)
	}
	return nil
}
