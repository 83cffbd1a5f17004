// Package providers holds concrete registry.Provider adapters: each
// wraps an *http.Client plus a zerolog.Logger, decodes JSON into
// provider-shaped response structs, then translates the result into
// domain types.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/registry"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/resolver"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// YahooProvider adapts Yahoo Finance's public chart endpoint to the
// registry.Provider port. It covers equities, FX and crypto, and does not
// support a profile endpoint.
type YahooProvider struct {
	client *http.Client
	log    zerolog.Logger
}

// NewYahooProvider builds a Yahoo adapter with a 30s timeout, matching the
// teacher's yahoo.Client default.
func NewYahooProvider(log zerolog.Logger) *YahooProvider {
	return &YahooProvider{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With().Str("provider", "yahoo").Logger(),
	}
}

func (p *YahooProvider) ID() string { return "yahoo" }

func (p *YahooProvider) Priority() int { return 10 }

func (p *YahooProvider) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		InstrumentKinds:    []registry.InstrumentKind{registry.KindEquity, registry.KindFx, registry.KindCrypto},
		SupportsLatest:     true,
		SupportsHistorical: true,
		SupportsSearch:     true,
		SupportsProfile:    false,
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string  `json:"currency"`
				RegularMarketTime int64 `json:"regularMarketTime"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol string, rangeParam string) (*yahooChartResponse, error) {
	endpoint := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?range=%s&interval=1d", url.PathEscape(symbol), url.QueryEscape(rangeParam))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTransport, "build request", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTimeout, "chart request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeRateLimited, "rate limited by yahoo", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeProviderError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTransport, "read response", err)
	}

	var parsed yahooChartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTransport, "decode response", err)
	}
	if parsed.Chart.Error != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeSymbolNotFound, parsed.Chart.Error.Description, nil)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeNoDataForRange, "empty result set", nil)
	}
	return &parsed, nil
}

// GetLatestQuote fetches the most recent daily bar.
func (p *YahooProvider) GetLatestQuote(ctx context.Context, symbol resolver.ResolvedSymbol) (domain.Quote, error) {
	parsed, err := p.fetchChart(ctx, symbol.Symbol, "5d")
	if err != nil {
		return domain.Quote{}, err
	}
	result := parsed.Chart.Result[0]
	n := len(result.Timestamp)
	if n == 0 || len(result.Indicators.Quote) == 0 {
		return domain.Quote{}, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeNoDataForRange, "no bars returned", nil)
	}
	last := n - 1
	q := result.Indicators.Quote[0]
	return barToQuote(symbol, result.Timestamp[last], q.Open[last], q.High[last], q.Low[last], q.Close[last], q.Volume[last], result.Meta.Currency, p.ID())
}

// GetHistoricalQuotes fetches daily bars in [start, end].
func (p *YahooProvider) GetHistoricalQuotes(ctx context.Context, symbol resolver.ResolvedSymbol, start, end time.Time) ([]domain.Quote, error) {
	rangeParam := yahooRangeFor(start, end)
	parsed, err := p.fetchChart(ctx, symbol.Symbol, rangeParam)
	if err != nil {
		return nil, err
	}
	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeNoDataForRange, "no bars returned", nil)
	}
	q := result.Indicators.Quote[0]

	var quotes []domain.Quote
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) {
			break
		}
		day := time.Unix(ts, 0).UTC()
		if day.Before(start) || day.After(end) {
			continue
		}
		quote, err := barToQuote(symbol, ts, q.Open[i], q.High[i], q.Low[i], q.Close[i], q.Volume[i], result.Meta.Currency, p.ID())
		if err != nil {
			continue // skip malformed bars rather than fail the whole range
		}
		quotes = append(quotes, quote)
	}
	if len(quotes) == 0 {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeNoDataForRange, "no bars in requested range", nil)
	}
	return quotes, nil
}

func barToQuote(symbol resolver.ResolvedSymbol, ts int64, open, high, low, close, volume float64, currency, source string) (domain.Quote, error) {
	ccy := currency
	if ccy == "" {
		ccy = symbol.Currency
	}
	return domain.Quote{
		Day:      time.Unix(ts, 0).UTC(),
		Open:     decimal.NewFromFloat(open),
		High:     decimal.NewFromFloat(high),
		Low:      decimal.NewFromFloat(low),
		Close:    decimal.NewFromFloat(close),
		AdjClose: decimal.NewFromFloat(close),
		Volume:   decimal.NewFromFloat(volume),
		Currency: ccy,
		Source:   source,
	}, nil
}

func yahooRangeFor(start, end time.Time) string {
	span := end.Sub(start)
	switch {
	case span <= 5*24*time.Hour:
		return "5d"
	case span <= 30*24*time.Hour:
		return "1mo"
	case span <= 90*24*time.Hour:
		return "3mo"
	case span <= 365*24*time.Hour:
		return "1y"
	case span <= 5*365*24*time.Hour:
		return "5y"
	default:
		return "max"
	}
}

// Search queries Yahoo's autocomplete endpoint.
func (p *YahooProvider) Search(ctx context.Context, query string) ([]registry.SearchResult, error) {
	endpoint := fmt.Sprintf("https://query1.finance.yahoo.com/v1/finance/search?q=%s", url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTransport, "build search request", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTimeout, "search request failed", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Quotes []struct {
			Symbol     string `json:"symbol"`
			ShortName  string `json:"shortname"`
			Currency   string `json:"currency"`
			QuoteType  string `json:"quoteType"`
		} `json:"quotes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTransport, "decode search response", err)
	}

	results := make([]registry.SearchResult, 0, len(parsed.Quotes))
	for _, q := range parsed.Quotes {
		kind := registry.KindEquity
		if q.QuoteType == "CRYPTOCURRENCY" {
			kind = registry.KindCrypto
		}
		results = append(results, registry.SearchResult{
			Symbol:   q.Symbol,
			Name:     q.ShortName,
			Currency: q.Currency,
			Kind:     kind,
		})
	}
	return results, nil
}

// GetProfile is unsupported by this adapter (: providers declare
// capability flags rather than returning an error for unimplemented ops).
func (p *YahooProvider) GetProfile(ctx context.Context, symbol resolver.ResolvedSymbol) (registry.Profile, error) {
	return registry.Profile{}, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeUnsupportedAssetType, "yahoo adapter does not support profile enrichment", nil)
}
