package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/registry"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/resolver"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AlphaVantageProvider adapts Alpha Vantage's TIME_SERIES_DAILY and
// OVERVIEW endpoints. It is lower priority than Yahoo (used as a fallback)
// but is the only adapter here offering profile enrichment.
type AlphaVantageProvider struct {
	client *http.Client
	apiKey string
	log    zerolog.Logger
}

// NewAlphaVantageProvider builds the adapter. An empty apiKey is valid at
// construction time; requests will fail with a provider error if used.
func NewAlphaVantageProvider(apiKey string, log zerolog.Logger) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		client: &http.Client{Timeout: 30 * time.Second},
		apiKey: apiKey,
		log:    log.With().Str("provider", "alphavantage").Logger(),
	}
}

func (p *AlphaVantageProvider) ID() string { return "alphavantage" }

func (p *AlphaVantageProvider) Priority() int { return 20 }

func (p *AlphaVantageProvider) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		InstrumentKinds:    []registry.InstrumentKind{registry.KindEquity, registry.KindFx},
		SupportsLatest:     true,
		SupportsHistorical: true,
		SupportsSearch:     true,
		SupportsProfile:    true,
	}
}

func (p *AlphaVantageProvider) get(ctx context.Context, params url.Values) ([]byte, error) {
	if p.apiKey == "" {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeProviderError, "no api key configured", nil)
	}
	params.Set("apikey", p.apiKey)
	endpoint := "https://www.alphavantage.co/query?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTransport, "build request", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTimeout, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeRateLimited, "rate limited", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeProviderError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTransport, "read response", err)
	}
	return body, nil
}

type dailySeriesResponse struct {
	MetaData struct {
		Symbol string `json:"2. Symbol"`
	} `json:"Meta Data"`
	Series map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
	Note string `json:"Note"`
	ErrorMessage string `json:"Error Message"`
}

func (p *AlphaVantageProvider) fetchDaily(ctx context.Context, symbol string) (*dailySeriesResponse, error) {
	params := url.Values{"function": {"TIME_SERIES_DAILY"}, "symbol": {symbol}, "outputsize": {"full"}}
	body, err := p.get(ctx, params)
	if err != nil {
		return nil, err
	}
	var parsed dailySeriesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTransport, "decode response", err)
	}
	if parsed.ErrorMessage != "" {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeSymbolNotFound, parsed.ErrorMessage, nil)
	}
	if parsed.Note != "" {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeRateLimited, parsed.Note, nil)
	}
	if len(parsed.Series) == 0 {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeNoDataForRange, "empty time series", nil)
	}
	return &parsed, nil
}

func parseDailyBar(day string, bar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}, currency, source string) (domain.Quote, error) {
	parsedDay, err := time.Parse("2006-01-02", day)
	if err != nil {
		return domain.Quote{}, err
	}
	open, _ := decimal.NewFromString(bar.Open)
	high, _ := decimal.NewFromString(bar.High)
	low, _ := decimal.NewFromString(bar.Low)
	close, _ := decimal.NewFromString(bar.Close)
	volStr, _ := strconv.ParseFloat(bar.Volume, 64)
	return domain.Quote{
		Day:      parsedDay,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		AdjClose: close,
		Volume:   decimal.NewFromFloat(volStr),
		Currency: currency,
		Source:   source,
	}, nil
}

// GetLatestQuote returns the most recent daily bar.
func (p *AlphaVantageProvider) GetLatestQuote(ctx context.Context, symbol resolver.ResolvedSymbol) (domain.Quote, error) {
	parsed, err := p.fetchDaily(ctx, symbol.Symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	var latestDay string
	for day := range parsed.Series {
		if day > latestDay {
			latestDay = day
		}
	}
	return parseDailyBar(latestDay, parsed.Series[latestDay], symbol.Currency, p.ID())
}

// GetHistoricalQuotes returns bars within [start, end].
func (p *AlphaVantageProvider) GetHistoricalQuotes(ctx context.Context, symbol resolver.ResolvedSymbol, start, end time.Time) ([]domain.Quote, error) {
	parsed, err := p.fetchDaily(ctx, symbol.Symbol)
	if err != nil {
		return nil, err
	}
	var quotes []domain.Quote
	for day, bar := range parsed.Series {
		parsedDay, perr := time.Parse("2006-01-02", day)
		if perr != nil || parsedDay.Before(start) || parsedDay.After(end) {
			continue
		}
		q, qerr := parseDailyBar(day, bar, symbol.Currency, p.ID())
		if qerr != nil {
			continue
		}
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeNoDataForRange, "no bars in requested range", nil)
	}
	return quotes, nil
}

// Search queries Alpha Vantage's SYMBOL_SEARCH endpoint.
func (p *AlphaVantageProvider) Search(ctx context.Context, query string) ([]registry.SearchResult, error) {
	params := url.Values{"function": {"SYMBOL_SEARCH"}, "keywords": {query}}
	body, err := p.get(ctx, params)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Matches []struct {
			Symbol   string `json:"1. symbol"`
			Name     string `json:"2. name"`
			Currency string `json:"8. currency"`
		} `json:"bestMatches"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTransport, "decode search response", err)
	}
	results := make([]registry.SearchResult, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		results = append(results, registry.SearchResult{Symbol: m.Symbol, Name: m.Name, Currency: m.Currency, Kind: registry.KindEquity})
	}
	return results, nil
}

// GetProfile fetches the OVERVIEW endpoint for one-time metadata enrichment.
func (p *AlphaVantageProvider) GetProfile(ctx context.Context, symbol resolver.ResolvedSymbol) (registry.Profile, error) {
	params := url.Values{"function": {"OVERVIEW"}, "symbol": {symbol.Symbol}}
	body, err := p.get(ctx, params)
	if err != nil {
		return registry.Profile{}, err
	}
	var parsed struct {
		Name     string `json:"Name"`
		Currency string `json:"Currency"`
		Exchange string `json:"Exchange"`
		Sector   string `json:"Sector"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return registry.Profile{}, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeTransport, "decode overview response", err)
	}
	if parsed.Name == "" {
		return registry.Profile{}, coreerrors.NewProviderError(p.ID(), coreerrors.ErrCodeSymbolNotFound, "empty overview", nil)
	}
	return registry.Profile{Name: parsed.Name, Currency: parsed.Currency, Exchange: parsed.Exchange, Sector: parsed.Sector}, nil
}
