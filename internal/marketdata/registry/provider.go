// Package registry implements the provider registry that fans a quote
// request out across an ordered, capability-filtered, rate-limited and
// circuit-broken set of market-data providers.
package registry

import (
	"context"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/resolver"
)

// Capabilities describes what a provider can be asked to do, and for what
// instrument kinds, so the registry can filter candidates before trying
// them.
type Capabilities struct {
	InstrumentKinds    []InstrumentKind
	Coverage           []string // optional free-form region/market hints
	SupportsLatest     bool
	SupportsHistorical bool
	SupportsSearch     bool
	SupportsProfile    bool
}

// InstrumentKind mirrors resolver.Instrument's variants for capability
// matching without importing the concrete instrument types.
type InstrumentKind string

const (
	KindEquity InstrumentKind = "EQUITY"
	KindFx     InstrumentKind = "FX"
	KindCrypto InstrumentKind = "CRYPTO"
	KindMetal  InstrumentKind = "METAL"
)

func (c Capabilities) supports(kind InstrumentKind) bool {
	for _, k := range c.InstrumentKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// SearchResult is one hit from a provider's symbol search.
type SearchResult struct {
	Symbol   string
	Name     string
	Currency string
	Kind     InstrumentKind
}

// Profile is the metadata a provider returns for one-time asset enrichment.
type Profile struct {
	Name     string
	Currency string
	Exchange string
	Sector   string
}

// Provider is the port every market-data source implements. Errors must be
// *coreerrors.ProviderError so the registry can classify retry behavior.
type Provider interface {
	ID() string
	Capabilities() Capabilities
	Priority() int

	GetLatestQuote(ctx context.Context, symbol resolver.ResolvedSymbol) (domain.Quote, error)
	GetHistoricalQuotes(ctx context.Context, symbol resolver.ResolvedSymbol, start, end time.Time) ([]domain.Quote, error)
	Search(ctx context.Context, query string) ([]SearchResult, error)
	GetProfile(ctx context.Context, symbol resolver.ResolvedSymbol) (Profile, error)
}
