package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SnapshotStore persists AccountStateSnapshot rows and satisfies
// internal/snapshot.Repository.
type SnapshotStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotStore builds a SnapshotStore over an already-migrated connection.
func NewSnapshotStore(db *sql.DB, log zerolog.Logger) *SnapshotStore {
	return &SnapshotStore{db: db, log: log.With().Str("component", "snapshot_store").Logger()}
}

// snapshotRow mirrors domain.AccountStateSnapshot's persisted shape, using
// plain strings for decimal fields so json.Marshal doesn't have to reason
// about shopspring/decimal's own (numeric) MarshalJSON behavior.
type positionRow struct {
	AccountID      string          `json:"account_id"`
	AssetID        string          `json:"asset_id"`
	Lots           []lotRow        `json:"lots"`
	Quantity       string          `json:"quantity"`
	TotalCostBasis string          `json:"total_cost_basis"`
	AverageCost    string          `json:"average_cost"`
}

type lotRow struct {
	ID               string `json:"id"`
	PositionID       string `json:"position_id"`
	AcquisitionDate  string `json:"acquisition_date"`
	Quantity         string `json:"quantity"`
	CostBasis        string `json:"cost_basis"`
	AcquisitionPrice string `json:"acquisition_price"`
	AcquisitionFees  string `json:"acquisition_fees"`
}

// LatestBefore returns the most recent persisted snapshot strictly before
// date, or (zero, false, nil) if none exists.
func (s *SnapshotStore) LatestBefore(ctx context.Context, accountID string, date time.Time) (domain.AccountStateSnapshot, bool, error) {
	const query = `
		SELECT account_id, snapshot_date, currency, cash_balances, positions, cost_basis, net_contribution, calculated_at, warnings
		FROM account_state_snapshots
		WHERE account_id = ? AND snapshot_date < ?
		ORDER BY snapshot_date DESC LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query, accountID, date.Format("2006-01-02"))
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return domain.AccountStateSnapshot{}, false, nil
	}
	if err != nil {
		return domain.AccountStateSnapshot{}, false, coreerrors.NewDatabaseError("query latest snapshot before", err)
	}
	return snap, true, nil
}

// DeleteFrom removes every persisted snapshot for accountID with
// snapshot_date >= from.
func (s *SnapshotStore) DeleteFrom(ctx context.Context, accountID string, from time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM account_state_snapshots WHERE account_id = ? AND snapshot_date >= ?`,
		accountID, from.Format("2006-01-02"))
	if err != nil {
		return coreerrors.NewDatabaseError("delete snapshots from date", err)
	}
	return nil
}

// SaveBatch persists a chunk of snapshots within one transaction.
func (s *SnapshotStore) SaveBatch(ctx context.Context, snapshots []domain.AccountStateSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return coreerrors.NewDatabaseError("begin save snapshot batch", err)
	}
	const stmt = `
		INSERT INTO account_state_snapshots (account_id, snapshot_date, currency, cash_balances, positions, cost_basis, net_contribution, calculated_at, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, snapshot_date) DO UPDATE SET
			currency = excluded.currency, cash_balances = excluded.cash_balances, positions = excluded.positions,
			cost_basis = excluded.cost_basis, net_contribution = excluded.net_contribution,
			calculated_at = excluded.calculated_at, warnings = excluded.warnings
	`
	for _, snap := range snapshots {
		cash, positions, warnings, err := encodeSnapshot(snap)
		if err != nil {
			_ = tx.Rollback()
			return coreerrors.NewDatabaseError("encode snapshot", err)
		}
		_, err = tx.ExecContext(ctx, stmt,
			snap.AccountID, snap.SnapshotDate.Format("2006-01-02"), snap.Currency, cash, positions,
			snap.CostBasis.String(), snap.NetContribution.String(), snap.CalculatedAt.Format(time.RFC3339), warnings,
		)
		if err != nil {
			_ = tx.Rollback()
			return coreerrors.NewDatabaseError("save snapshot", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return coreerrors.NewDatabaseError("commit save snapshot batch", err)
	}
	return nil
}

// InRange returns persisted snapshots for accountID within [from, to] (nil
// bounds mean unbounded on that side), ascending by snapshot_date.
func (s *SnapshotStore) InRange(ctx context.Context, accountID string, from, to *time.Time) ([]domain.AccountStateSnapshot, error) {
	query := `
		SELECT account_id, snapshot_date, currency, cash_balances, positions, cost_basis, net_contribution, calculated_at, warnings
		FROM account_state_snapshots WHERE account_id = ?
	`
	args := []any{accountID}
	if from != nil {
		query += ` AND snapshot_date >= ?`
		args = append(args, from.Format("2006-01-02"))
	}
	if to != nil {
		query += ` AND snapshot_date <= ?`
		args = append(args, to.Format("2006-01-02"))
	}
	query += ` ORDER BY snapshot_date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, coreerrors.NewDatabaseError("query snapshots in range", err)
	}
	defer rows.Close()

	var out []domain.AccountStateSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, coreerrors.NewDatabaseError("scan snapshot row", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.NewDatabaseError("iterate snapshot rows", err)
	}
	return out, nil
}

func encodeSnapshot(snap domain.AccountStateSnapshot) (cashJSON, positionsJSON, warningsJSON string, err error) {
	cash := make(map[string]string, len(snap.CashBalances))
	for ccy, amt := range snap.CashBalances {
		cash[ccy] = amt.String()
	}
	cashBytes, err := json.Marshal(cash)
	if err != nil {
		return "", "", "", err
	}

	positions := make(map[string]positionRow, len(snap.Positions))
	for assetID, pos := range snap.Positions {
		lots := make([]lotRow, len(pos.Lots))
		for i, l := range pos.Lots {
			lots[i] = lotRow{
				ID:               l.ID,
				PositionID:       l.PositionID,
				AcquisitionDate:  l.AcquisitionDate.Format(time.RFC3339),
				Quantity:         l.Quantity.String(),
				CostBasis:        l.CostBasis.String(),
				AcquisitionPrice: l.AcquisitionPrice.String(),
				AcquisitionFees:  l.AcquisitionFees.String(),
			}
		}
		positions[assetID] = positionRow{
			AccountID:      pos.AccountID,
			AssetID:        pos.AssetID,
			Lots:           lots,
			Quantity:       pos.Quantity.String(),
			TotalCostBasis: pos.TotalCostBasis.String(),
			AverageCost:    pos.AverageCost.String(),
		}
	}
	positionsBytes, err := json.Marshal(positions)
	if err != nil {
		return "", "", "", err
	}

	warningsBytes, err := json.Marshal(snap.Warnings)
	if err != nil {
		return "", "", "", err
	}
	return string(cashBytes), string(positionsBytes), string(warningsBytes), nil
}

func scanSnapshot(row rowScanner) (domain.AccountStateSnapshot, error) {
	var (
		snap                                        domain.AccountStateSnapshot
		snapshotDate, calculatedAt                  string
		cashJSON, positionsJSON, warningsJSON        string
		costBasisS, netContributionS                string
	)
	err := row.Scan(&snap.AccountID, &snapshotDate, &snap.Currency, &cashJSON, &positionsJSON,
		&costBasisS, &netContributionS, &calculatedAt, &warningsJSON)
	if err != nil {
		return domain.AccountStateSnapshot{}, err
	}

	snap.SnapshotDate, err = time.Parse("2006-01-02", snapshotDate)
	if err != nil {
		return domain.AccountStateSnapshot{}, err
	}
	snap.CalculatedAt, err = time.Parse(time.RFC3339, calculatedAt)
	if err != nil {
		return domain.AccountStateSnapshot{}, err
	}
	snap.CostBasis, _ = decimal.NewFromString(costBasisS)
	snap.NetContribution, _ = decimal.NewFromString(netContributionS)

	var cash map[string]string
	if err := json.Unmarshal([]byte(cashJSON), &cash); err != nil {
		return domain.AccountStateSnapshot{}, err
	}
	snap.CashBalances = make(map[string]decimal.Decimal, len(cash))
	for ccy, amtS := range cash {
		snap.CashBalances[ccy], _ = decimal.NewFromString(amtS)
	}

	var positions map[string]positionRow
	if err := json.Unmarshal([]byte(positionsJSON), &positions); err != nil {
		return domain.AccountStateSnapshot{}, err
	}
	snap.Positions = make(map[string]domain.Position, len(positions))
	for assetID, pr := range positions {
		lots := make([]domain.Lot, len(pr.Lots))
		for i, lr := range pr.Lots {
			acqDate, err := time.Parse(time.RFC3339, lr.AcquisitionDate)
			if err != nil {
				return domain.AccountStateSnapshot{}, err
			}
			qty, _ := decimal.NewFromString(lr.Quantity)
			cost, _ := decimal.NewFromString(lr.CostBasis)
			price, _ := decimal.NewFromString(lr.AcquisitionPrice)
			fees, _ := decimal.NewFromString(lr.AcquisitionFees)
			lots[i] = domain.Lot{
				ID:               lr.ID,
				PositionID:       lr.PositionID,
				AcquisitionDate:  acqDate,
				Quantity:         qty,
				CostBasis:        cost,
				AcquisitionPrice: price,
				AcquisitionFees:  fees,
			}
		}
		qty, _ := decimal.NewFromString(pr.Quantity)
		totalCost, _ := decimal.NewFromString(pr.TotalCostBasis)
		avgCost, _ := decimal.NewFromString(pr.AverageCost)
		snap.Positions[assetID] = domain.Position{
			AccountID:      pr.AccountID,
			AssetID:        pr.AssetID,
			Lots:           lots,
			Quantity:       qty,
			TotalCostBasis: totalCost,
			AverageCost:    avgCost,
		}
	}

	if err := json.Unmarshal([]byte(warningsJSON), &snap.Warnings); err != nil {
		return domain.AccountStateSnapshot{}, err
	}
	return snap, nil
}
