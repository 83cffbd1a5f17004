package resolver

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
)

//go:embed registry.json
var registryFS embed.FS

// micEntry is one (mic, provider) row of the static rules registry: the
// ticker suffix a provider expects and the currency that exchange quotes
// in.
type micEntry struct {
	Suffix   string `json:"suffix"`
	Currency string `json:"currency"`
}

// ErrResolutionFailed is returned, wrapped with the provider id, when
// neither resolver in the chain produces a symbol.
var ErrResolutionFailed = coreerrors.NewValidationError("resolution failed")

// ResolutionFailedError names the provider a resolution failed for, per
// `ResolutionFailed { provider }`.
type ResolutionFailedError struct {
	Provider string
}

func (e *ResolutionFailedError) Error() string {
	return fmt.Sprintf("resolution failed for provider %q", e.Provider)
}

func (e *ResolutionFailedError) Unwrap() error { return ErrResolutionFailed }

// Chain resolves instruments to provider-specific symbols by trying an
// override table first, then a static MIC/suffix rules registry. The
// zero value is not usable; construct with NewChain.
type Chain struct {
	rules map[string]map[string]micEntry // provider -> mic -> entry
}

// NewChain loads the embedded MIC registry and returns a ready Chain.
func NewChain() (*Chain, error) {
	raw, err := registryFS.ReadFile("registry.json")
	if err != nil {
		return nil, fmt.Errorf("resolver: read embedded registry: %w", err)
	}
	var rules map[string]map[string]micEntry
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("resolver: parse embedded registry: %w", err)
	}
	return &Chain{rules: rules}, nil
}

// Resolve runs the override resolver then the rules resolver, first hit
// wins.
func (c *Chain) Resolve(providerID string, ctx QuoteContext) (ResolvedSymbol, error) {
	if sym, ok := c.resolveOverride(providerID, ctx); ok {
		return sym, nil
	}
	if sym, ok := c.resolveRules(providerID, ctx); ok {
		return sym, nil
	}
	return ResolvedSymbol{}, &ResolutionFailedError{Provider: providerID}
}

func (c *Chain) resolveOverride(providerID string, ctx QuoteContext) (ResolvedSymbol, bool) {
	if ctx.Overrides == nil {
		return ResolvedSymbol{}, false
	}
	symbol, ok := ctx.Overrides[providerID]
	if !ok || symbol == "" {
		return ResolvedSymbol{}, false
	}
	return ResolvedSymbol{
		Symbol:   symbol,
		Currency: c.currencyHint(providerID, ctx),
		Source:   SourceOverride,
	}, true
}

func (c *Chain) resolveRules(providerID string, ctx QuoteContext) (ResolvedSymbol, bool) {
	switch inst := ctx.Instrument.(type) {
	case Equity:
		if inst.MIC == "" {
			return ResolvedSymbol{}, false
		}
		providerRules, ok := c.rules[providerID]
		if !ok {
			return ResolvedSymbol{}, false
		}
		entry, ok := providerRules[inst.MIC]
		if !ok {
			return ResolvedSymbol{}, false
		}
		return ResolvedSymbol{
			Symbol:   inst.Ticker + entry.Suffix,
			Currency: entry.Currency,
			Source:   SourceRules,
		}, true

	case Fx:
		return ResolvedSymbol{
			Symbol:   fxSymbol(providerID, inst),
			Currency: inst.Quote,
			Source:   SourceRules,
		}, true

	case Crypto:
		return ResolvedSymbol{
			Symbol:   fmt.Sprintf("%s-%s", strings.ToUpper(inst.Base), strings.ToUpper(inst.Quote)),
			Currency: inst.Quote,
			Source:   SourceRules,
		}, true

	case Metal:
		return ResolvedSymbol{
			Symbol:   fmt.Sprintf("%s%s", strings.ToUpper(inst.Symbol), strings.ToUpper(inst.Quote)),
			Currency: inst.Quote,
			Source:   SourceRules,
		}, true

	default:
		return ResolvedSymbol{}, false
	}
}

// fxSymbol formats a currency pair the way each provider family expects,
// defaulting to the Yahoo-family "EURUSD=X" form for anything unrecognized.
func fxSymbol(providerID string, pair Fx) string {
	base := strings.ToUpper(pair.Base)
	quote := strings.ToUpper(pair.Quote)
	switch providerID {
	case "alphavantage":
		return fmt.Sprintf("%s/%s", base, quote)
	default:
		return fmt.Sprintf("%s%s=X", base, quote)
	}
}

// currencyHint picks get_currency's result for an override symbol, where
// the instrument itself carries the answer for Fx/Crypto/Metal and the MIC
// registry is consulted for Equity.
func (c *Chain) currencyHint(providerID string, ctx QuoteContext) string {
	if ctx.CurrencyHint != "" {
		return ctx.CurrencyHint
	}
	switch inst := ctx.Instrument.(type) {
	case Fx:
		return inst.Quote
	case Crypto:
		return inst.Quote
	case Metal:
		return inst.Quote
	case Equity:
		if inst.MIC == "" {
			return ""
		}
		if providerRules, ok := c.rules[providerID]; ok {
			if entry, ok := providerRules[inst.MIC]; ok {
				return entry.Currency
			}
		}
	}
	return ""
}

// GetCurrency exposes the same currency-hint lookup the chain uses
// internally, as a standalone helper callers can use directly.
func (c *Chain) GetCurrency(providerID string, ctx QuoteContext) string {
	return c.currencyHint(providerID, ctx)
}
