// Package fx models a graph of currency pairs with time-indexed
// rates, nearest-date lookup and BFS path conversion.
//
// The converter is built once per load and treated as effectively
// immutable afterward: rebuilds construct a fresh Converter and
// swap it in behind a read-write lock at the call site, rather than
// mutating a shared instance concurrently.
package fx

import (
	"fmt"
	"sort"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/shopspring/decimal"
)

type pair struct {
	from, to string
}

// observation is one (date, rate) entry in a pair's rate store, kept sorted
// by Date for O(log N) nearest-date lookup via binary search.
type observation struct {
	date time.Time
	rate decimal.Decimal
}

// Converter holds the adjacency map and per-pair rate stores that back
// nearest-date lookup and BFS path conversion.
type Converter struct {
	adjacency map[string][]string   // currency -> neighbors, insertion order preserved
	rates     map[pair][]observation // sorted ascending by date
	adjIndex  map[string]map[string]bool // membership check to avoid duplicate adjacency entries
}

// NewConverter returns an empty converter ready for Ingest calls.
func NewConverter() *Converter {
	return &Converter{
		adjacency: make(map[string][]string),
		rates:     make(map[pair][]observation),
		adjIndex:  make(map[string]map[string]bool),
	}
}

// Ingest records one exchange-rate observation and its inverse: for
// (from, to, date, rate) with from != to and rate > 0, it stores the
// forward rate and the inverse (to, from, date, 1/rate), populating both
// adjacency entries.
func (c *Converter) Ingest(from, to string, date time.Time, rate decimal.Decimal) error {
	if from == to {
		return nil
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return coreerrors.NewValidationError("fx rate must be > 0")
	}
	day := truncate(date)
	c.addAdjacency(from, to)
	c.addAdjacency(to, from)
	c.insertObservation(pair{from, to}, day, rate)
	c.insertObservation(pair{to, from}, day, decimal.NewFromInt(1).Div(rate))
	return nil
}

// IngestExchangeRate is a convenience wrapper over an ExchangeRate record.
func (c *Converter) IngestExchangeRate(r domain.ExchangeRate) error {
	return c.Ingest(r.FromCurrency, r.ToCurrency, r.Timestamp, r.Rate)
}

func truncate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func (c *Converter) addAdjacency(from, to string) {
	if c.adjIndex[from] == nil {
		c.adjIndex[from] = make(map[string]bool)
	}
	if c.adjIndex[from][to] {
		return
	}
	c.adjIndex[from][to] = true
	c.adjacency[from] = append(c.adjacency[from], to)
}

func (c *Converter) insertObservation(p pair, day time.Time, rate decimal.Decimal) {
	obs := c.rates[p]
	idx := sort.Search(len(obs), func(i int) bool { return !obs[i].date.Before(day) })
	if idx < len(obs) && obs[idx].date.Equal(day) {
		obs[idx].rate = rate // re-ingest of the same date replaces the rate
		c.rates[p] = obs
		return
	}
	obs = append(obs, observation{})
	copy(obs[idx+1:], obs[idx:])
	obs[idx] = observation{date: day, rate: rate}
	c.rates[p] = obs
}

// DirectRate implements a nearest-neighbor lookup: find the largest key
// d1 <= date and the smallest key d2 >= date; return the closer one,
// ties going to the past.
func (c *Converter) DirectRate(from, to string, date time.Time) (decimal.Decimal, bool) {
	obs, ok := c.rates[pair{from, to}]
	if !ok || len(obs) == 0 {
		return decimal.Zero, false
	}
	day := truncate(date)

	// idx is the first observation with date >= day.
	idx := sort.Search(len(obs), func(i int) bool { return !obs[i].date.Before(day) })

	var before, after *observation
	if idx < len(obs) && obs[idx].date.Equal(day) {
		return obs[idx].rate, true
	}
	if idx > 0 {
		before = &obs[idx-1]
	}
	if idx < len(obs) {
		after = &obs[idx]
	}

	switch {
	case before == nil && after == nil:
		return decimal.Zero, false
	case before == nil:
		return after.rate, true
	case after == nil:
		return before.rate, true
	default:
		beforeDist := day.Sub(before.date)
		afterDist := after.date.Sub(day)
		if beforeDist <= afterDist {
			return before.rate, true
		}
		return after.rate, true
	}
}

// GetRate is equivalent to Convert with an amount of 1.
func (c *Converter) GetRate(from, to string, date time.Time) (decimal.Decimal, error) {
	return c.Convert(decimal.NewFromInt(1), from, to, date)
}

// Convert performs a BFS over the adjacency graph, following only edges
// with a direct rate resolvable on (or near) the requested date, and
// returns amount multiplied by the accumulated product along the first
// (shortest-hop) path found to `to`. BFS visits neighbors in
// adjacency insertion order so ties are deterministic.
func (c *Converter) Convert(amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	type queued struct {
		currency string
		product  decimal.Decimal
	}
	visited := map[string]bool{from: true}
	queue := []queued{{currency: from, product: decimal.NewFromInt(1)}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, neighbor := range c.adjacency[cur.currency] {
			if visited[neighbor] {
				continue
			}
			rate, ok := c.DirectRate(cur.currency, neighbor, date)
			if !ok {
				continue
			}
			product := cur.product.Mul(rate)
			if neighbor == to {
				return amount.Mul(product), nil
			}
			visited[neighbor] = true
			queue = append(queue, queued{currency: neighbor, product: product})
		}
	}

	return decimal.Zero, coreerrors.NewRateNotFoundError(from, to, date.Format("2006-01-02"))
}

// String is useful for debugging/logging adjacency shape.
func (c *Converter) String() string {
	return fmt.Sprintf("fx.Converter{currencies=%d}", len(c.adjacency))
}
