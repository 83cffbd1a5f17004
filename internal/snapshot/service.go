// Package snapshot rebuilds an account's daily
// AccountStateSnapshot series from its activity ledger, day by day, via
// internal/holdings. Concurrency style (sync.WaitGroup supervising
// independent per-account workers) mirrors a supervised worker-pool
// scheduler.
package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/holdings"
	"github.com/rs/zerolog"
)

const persistChunkSize = 1000

// Repository is the persistence port the snapshot service depends on.
// Implementations must provide the per-account execution serialization
// Rebuild relies on: within one account, execution is strictly serial.
type Repository interface {
	// LatestBefore returns the most recent persisted snapshot strictly
	// before date, or (zero, false, nil) if none exists.
	LatestBefore(ctx context.Context, accountID string, date time.Time) (domain.AccountStateSnapshot, bool, error)
	// DeleteFrom removes all persisted snapshots for accountID with
	// SnapshotDate >= from.
	DeleteFrom(ctx context.Context, accountID string, from time.Time) error
	// SaveBatch persists a chunk of snapshots (step 5: at most
	// persistChunkSize rows per call).
	SaveBatch(ctx context.Context, snapshots []domain.AccountStateSnapshot) error
	// InRange returns persisted snapshots for accountID within [from, to]
	// (nil bounds mean unbounded on that side).
	InRange(ctx context.Context, accountID string, from, to *time.Time) ([]domain.AccountStateSnapshot, error)
}

// ActivityLoader supplies the activities the rebuild needs, grouped by
// calendar day, for one account starting at a given date.
type ActivityLoader interface {
	// LoadFrom returns every activity for accountID with
	// activity_date >= from, ascending by (activity_date, id).
	LoadFrom(ctx context.Context, accountID string, from time.Time) ([]domain.Activity, error)
}

// Service rebuilds snapshot series and answers range queries.
type Service struct {
	repo    Repository
	loader  ActivityLoader
	calc    *holdings.Calculator
	sink    domain.DomainEventSink
	log     zerolog.Logger
	clock   func() time.Time

	mu       sync.Mutex
	inFlight map[string]*sync.Mutex // per-account serialization locks
}

// New builds a snapshot Service. clock defaults to time.Now when nil, kept
// overridable so rebuild's "or today" carry-forward boundary is testable.
func New(repo Repository, loader ActivityLoader, sink domain.DomainEventSink, log zerolog.Logger, clock func() time.Time) *Service {
	if sink == nil {
		sink = domain.NopEventSink{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:     repo,
		loader:   loader,
		calc:     holdings.New(),
		sink:     sink,
		log:      log.With().Str("component", "snapshot_service").Logger(),
		clock:    clock,
		inFlight: make(map[string]*sync.Mutex),
	}
}

// GetDailySnapshots returns persisted snapshots for accountID within
// [from, to].
func (s *Service) GetDailySnapshots(ctx context.Context, accountID string, from, to *time.Time) ([]domain.AccountStateSnapshot, error) {
	return s.repo.InRange(ctx, accountID, from, to)
}

// Rebuild recomputes snapshots for every account in accountIDs, each from
// fromDate (or the account's own earliest required date when fromDate is
// nil). Rebuilds across different accounts run concurrently; within one
// account, CalculateNextState calls are strictly serial.
func (s *Service) Rebuild(ctx context.Context, accountIDs []string, fromDate *time.Time) error {
	var wg sync.WaitGroup
	errs := make([]error, len(accountIDs))

	for i, accountID := range accountIDs {
		wg.Add(1)
		go func(i int, accountID string) {
			defer wg.Done()
			errs[i] = s.rebuildAccount(ctx, accountID, fromDate)
		}(i, accountID)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	s.sink.Publish(domain.HoldingsChanged{AccountIDs: accountIDs})
	return nil
}

func (s *Service) lockFor(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.inFlight[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.inFlight[accountID] = lock
	}
	return lock
}

func (s *Service) rebuildAccount(ctx context.Context, accountID string, fromDate *time.Time) error {
	lock := s.lockFor(accountID)
	lock.Lock()
	defer lock.Unlock()

	startDate, err := s.resolveStartDate(ctx, accountID, fromDate)
	if err != nil {
		return err
	}

	prev, ok, err := s.repo.LatestBefore(ctx, accountID, startDate)
	if err != nil {
		return err
	}
	currency := ""
	if ok {
		currency = prev.Currency
	}
	if !ok {
		prev = domain.EmptySnapshot(accountID, currency, startDate.AddDate(0, 0, -1))
	}

	if err := s.repo.DeleteFrom(ctx, accountID, startDate); err != nil {
		return err
	}

	activities, err := s.loader.LoadFrom(ctx, accountID, startDate)
	if err != nil {
		return err
	}

	today := truncate(s.clock())
	lastDate := today
	if len(activities) > 0 {
		lastActivityDate := truncate(activities[len(activities)-1].ActivityDate)
		if lastActivityDate.After(lastDate) {
			lastDate = lastActivityDate
		}
	}

	byDay := groupByDay(activities)

	var batch []domain.AccountStateSnapshot
	cur := prev
	for day := startDate; !day.After(lastDate); day = day.AddDate(0, 0, 1) {
		cur = s.calc.CalculateNextState(cur, byDay[day], day)
		batch = append(batch, cur)
		if len(batch) >= persistChunkSize {
			if err := s.repo.SaveBatch(ctx, batch); err != nil {
				return err
			}
			batch = nil
		}
	}
	if len(batch) > 0 {
		if err := s.repo.SaveBatch(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// resolveStartDate implements step 1: from_date if given, else
// the earliest affected activity's date.
func (s *Service) resolveStartDate(ctx context.Context, accountID string, fromDate *time.Time) (time.Time, error) {
	if fromDate != nil {
		return truncate(*fromDate), nil
	}
	activities, err := s.loader.LoadFrom(ctx, accountID, time.Time{})
	if err != nil {
		return time.Time{}, err
	}
	if len(activities) == 0 {
		return time.Time{}, coreerrors.NewValidationError("cannot rebuild account with no activities and no from_date")
	}
	return truncate(activities[0].ActivityDate), nil
}

func groupByDay(activities []domain.Activity) map[time.Time][]domain.Activity {
	out := make(map[time.Time][]domain.Activity)
	for _, a := range activities {
		day := truncate(a.ActivityDate)
		out[day] = append(out[day], a)
	}
	return out
}

func truncate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
