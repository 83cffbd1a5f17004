package registry

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/ratelimit"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/resolver"
	"github.com/rs/zerolog"
)

const (
	backoffBase   = 500 * time.Millisecond
	backoffFactor = 2
	backoffCap    = 30 * time.Second
	defaultRetries = 3
)

// Registry holds an ordered, capability-described set of providers and
// dispatches requests across them: rank by circuit state and priority,
// rate-limit, try each candidate in turn, and fail over on error.
type Registry struct {
	providers    []Provider
	resolver     *resolver.Chain
	limiter      *ratelimit.Registry
	circuits     map[string]*circuitBreaker
	log          zerolog.Logger
	maxRetries   int
}

// New builds a Registry. failureThreshold/coolOff configure every
// provider's circuit breaker identically; per-provider overrides aren't
// supported.
func New(providers []Provider, chain *resolver.Chain, limiter *ratelimit.Registry, failureThreshold int, coolOff time.Duration, log zerolog.Logger) *Registry {
	circuits := make(map[string]*circuitBreaker, len(providers))
	for _, p := range providers {
		circuits[p.ID()] = newCircuitBreaker(failureThreshold, coolOff)
	}
	return &Registry{
		providers:  providers,
		resolver:   chain,
		limiter:    limiter,
		circuits:   circuits,
		log:        log.With().Str("component", "marketdata_registry").Logger(),
		maxRetries: defaultRetries,
	}
}

// candidates returns providers supporting op/kind, sorted by
// (circuit_closed, priority, id) step 1-2.
func (r *Registry) candidates(kind InstrumentKind, want func(Capabilities) bool) []Provider {
	var out []Provider
	for _, p := range r.providers {
		if !p.Capabilities().supports(kind) {
			continue
		}
		if !want(p.Capabilities()) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := r.circuits[out[i].ID()].IsOpen(), r.circuits[out[j].ID()].IsOpen()
		if ci != cj {
			return !ci // closed (false) sorts before open (true)
		}
		if out[i].Priority() != out[j].Priority() {
			return out[i].Priority() < out[j].Priority()
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

func kindOf(inst resolver.Instrument) InstrumentKind {
	switch inst.(type) {
	case resolver.Equity:
		return KindEquity
	case resolver.Fx:
		return KindFx
	case resolver.Crypto:
		return KindCrypto
	case resolver.Metal:
		return KindMetal
	default:
		return ""
	}
}

// attempt is one (provider, op) invocation used by the shared dispatch
// loop below; op returns the raw result plus whatever validation error (if
// any) the caller's domain-specific check produced.
type attempt func(ctx context.Context, p Provider, symbol resolver.ResolvedSymbol) (any, error)

// dispatch implements per-request algorithm: resolve, rate
// limit, invoke, validate, classify, retry/advance/skip, for one logical
// operation across the candidate list.
func (r *Registry) dispatch(ctx context.Context, providerCtx resolver.QuoteContext, kind InstrumentKind, want func(Capabilities) bool, op attempt) (any, error) {
	candidates := r.candidates(kind, want)
	if len(candidates) == 0 {
		return nil, coreerrors.NewProviderError("", coreerrors.ErrCodeNoProvidersAvailable, "no providers available for request", nil)
	}

	var lastErr error
	for _, p := range candidates {
		circuit := r.circuits[p.ID()]
		if !circuit.Allow() {
			continue
		}

		symbol, err := r.resolver.Resolve(p.ID(), providerCtx)
		if err != nil {
			circuit.RecordFailure()
			lastErr = coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeResolutionFailed, err.Error(), err)
			continue
		}

		result, retryErr := r.invokeWithRetry(ctx, p, circuit, symbol, op)
		if retryErr == nil {
			return result, nil
		}
		lastErr = retryErr

		var perr *coreerrors.ProviderError
		if !coreerrors.AsProviderError(retryErr, &perr) {
			continue // unexpected error shape: advance to next provider
		}
		switch perr.RetryClass() {
		case coreerrors.RetryNextProvider, coreerrors.RetryNever:
			continue
		case coreerrors.RetryCircuitOpen:
			continue
		default:
			continue
		}
	}

	if lastErr != nil {
		return nil, coreerrors.NewProviderError("", coreerrors.ErrCodeAllProvidersFailed, "all providers failed", lastErr)
	}
	return nil, coreerrors.NewProviderError("", coreerrors.ErrCodeAllProvidersFailed, "all providers failed", nil)
}

// invokeWithRetry acquires the rate limiter and invokes op, retrying the
// same provider with exponential backoff while retryClass is WithBackoff,
// step 3.
func (r *Registry) invokeWithRetry(ctx context.Context, p Provider, circuit *circuitBreaker, symbol resolver.ResolvedSymbol, op attempt) (any, error) {
	for attemptNum := 0; ; attemptNum++ {
		if err := r.limiter.Acquire(ctx, p.ID()); err != nil {
			return nil, err
		}

		result, err := op(ctx, p, symbol)
		if err == nil {
			circuit.RecordSuccess()
			return result, nil
		}

		var perr *coreerrors.ProviderError
		if !coreerrors.AsProviderError(err, &perr) {
			circuit.RecordFailure()
			return nil, err
		}

		switch perr.RetryClass() {
		case coreerrors.RetryNever:
			return nil, err
		case coreerrors.RetryWithBackoff:
			circuit.RecordFailure()
			if attemptNum >= r.maxRetries {
				return nil, err
			}
			r.sleepBackoff(ctx, attemptNum)
			continue
		case coreerrors.RetryNextProvider:
			circuit.RecordFailure()
			return nil, err
		case coreerrors.RetryCircuitOpen:
			return nil, err
		default:
			circuit.RecordFailure()
			return nil, err
		}
	}
}

func (r *Registry) sleepBackoff(ctx context.Context, attemptNum int) {
	delay := backoffBase
	for i := 0; i < attemptNum; i++ {
		delay *= backoffFactor
	}
	if delay > backoffCap {
		delay = backoffCap
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	delay = delay/2 + jitter

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// GetLatestQuote dispatches a latest-quote request across capable,
// rate-limited, circuit-closed providers.
func (r *Registry) GetLatestQuote(ctx context.Context, providerCtx resolver.QuoteContext) (domain.Quote, error) {
	kind := kindOf(providerCtx.Instrument)
	result, err := r.dispatch(ctx, providerCtx, kind, func(c Capabilities) bool { return c.SupportsLatest }, func(ctx context.Context, p Provider, symbol resolver.ResolvedSymbol) (any, error) {
		q, err := p.GetLatestQuote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if verr := q.Validate(); verr != nil {
			return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeValidationFailed, verr.Error(), verr)
		}
		return q, nil
	})
	if err != nil {
		return domain.Quote{}, err
	}
	return result.(domain.Quote), nil
}

// GetHistoricalQuotes dispatches a historical-range request, validating
// every returned quote falls within [start, end] (step 3d).
func (r *Registry) GetHistoricalQuotes(ctx context.Context, providerCtx resolver.QuoteContext, start, end time.Time) ([]domain.Quote, error) {
	kind := kindOf(providerCtx.Instrument)
	result, err := r.dispatch(ctx, providerCtx, kind, func(c Capabilities) bool { return c.SupportsHistorical }, func(ctx context.Context, p Provider, symbol resolver.ResolvedSymbol) (any, error) {
		quotes, err := p.GetHistoricalQuotes(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}
		if len(quotes) == 0 {
			return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeNoDataForRange, "no data for range", nil)
		}
		for _, q := range quotes {
			if verr := q.Validate(); verr != nil {
				return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeValidationFailed, verr.Error(), verr)
			}
			if q.Day.Before(start) || q.Day.After(end) {
				return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeNoDataForRange, "quote outside requested range", nil)
			}
		}
		return quotes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Quote), nil
}

// Search dispatches a symbol search across capable providers.
func (r *Registry) Search(ctx context.Context, query string, kind InstrumentKind) ([]SearchResult, error) {
	result, err := r.dispatch(ctx, resolver.QuoteContext{}, kind, func(c Capabilities) bool { return c.SupportsSearch }, func(ctx context.Context, p Provider, _ resolver.ResolvedSymbol) (any, error) {
		return p.Search(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return result.([]SearchResult), nil
}

// GetProfile dispatches a one-time metadata enrichment request.
func (r *Registry) GetProfile(ctx context.Context, providerCtx resolver.QuoteContext) (Profile, error) {
	kind := kindOf(providerCtx.Instrument)
	result, err := r.dispatch(ctx, providerCtx, kind, func(c Capabilities) bool { return c.SupportsProfile }, func(ctx context.Context, p Provider, symbol resolver.ResolvedSymbol) (any, error) {
		return p.GetProfile(ctx, symbol)
	})
	if err != nil {
		return Profile{}, err
	}
	return result.(Profile), nil
}
