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

// ExchangeRateStore persists FX observations and bootstraps internal/fx's
// in-memory Converter at startup.
type ExchangeRateStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewExchangeRateStore builds an ExchangeRateStore over an already-migrated
// connection.
func NewExchangeRateStore(db *sql.DB, log zerolog.Logger) *ExchangeRateStore {
	return &ExchangeRateStore{db: db, log: log.With().Str("component", "exchange_rate_store").Logger()}
}

// Insert records one observation, keyed by (from, to, day).
func (s *ExchangeRateStore) Insert(ctx context.Context, r domain.ExchangeRate) error {
	if err := r.Validate(); err != nil {
		return err
	}
	const stmt = `
		INSERT INTO exchange_rates (from_currency, to_currency, rate, observed_at, source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(from_currency, to_currency, observed_at) DO UPDATE SET
			rate = excluded.rate, source = excluded.source
	`
	_, err := s.db.ExecContext(ctx, stmt, r.FromCurrency, r.ToCurrency, r.Rate.String(), r.Timestamp.Format("2006-01-02"), r.Source)
	if err != nil {
		return coreerrors.NewDatabaseError("insert exchange rate", err)
	}
	return nil
}

// LoadAll returns every observation on file, the shape internal/fx.Converter
// is seeded with at startup (Converter.Ingest per row).
func (s *ExchangeRateStore) LoadAll(ctx context.Context) ([]domain.ExchangeRate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT from_currency, to_currency, rate, observed_at, source FROM exchange_rates ORDER BY observed_at ASC`)
	if err != nil {
		return nil, coreerrors.NewDatabaseError("load exchange rates", err)
	}
	defer rows.Close()

	var out []domain.ExchangeRate
	for rows.Next() {
		var (
			r        domain.ExchangeRate
			rateS    string
			observed string
		)
		if err := rows.Scan(&r.FromCurrency, &r.ToCurrency, &rateS, &observed, &r.Source); err != nil {
			return nil, coreerrors.NewDatabaseError("scan exchange rate row", err)
		}
		r.Rate, _ = decimal.NewFromString(rateS)
		r.Timestamp, err = time.Parse("2006-01-02", observed)
		if err != nil {
			return nil, coreerrors.NewDatabaseError("parse exchange rate date", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.NewDatabaseError("iterate exchange rate rows", err)
	}
	return out, nil
}
