package testing

import (
	"context"
	"sync"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/registry"
	"github.com/afadil/wealthfolio-sub005/internal/marketdata/resolver"
)

// MockProvider is a mutex-protected mock implementation of
// registry.Provider for testing the registry fan-out and quote sync job
// without a network call.
type MockProvider struct {
	mu sync.RWMutex

	id           string
	priority     int
	capabilities registry.Capabilities

	latestQuote domain.Quote
	historical  []domain.Quote
	search      []registry.SearchResult
	profile     registry.Profile
	err         error

	calls int
}

// NewMockProvider creates a mock provider with the given id, priority and
// capabilities. By default every call succeeds and returns zero values;
// use the SetX methods to configure responses.
func NewMockProvider(id string, priority int, caps registry.Capabilities) *MockProvider {
	return &MockProvider{id: id, priority: priority, capabilities: caps}
}

// SetError makes every subsequent call return err.
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetLatestQuote configures the response to GetLatestQuote.
func (m *MockProvider) SetLatestQuote(q domain.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latestQuote = q
}

// SetHistoricalQuotes configures the response to GetHistoricalQuotes.
func (m *MockProvider) SetHistoricalQuotes(qs []domain.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historical = qs
}

// CallCount returns how many provider methods have been invoked so far,
// useful for asserting the registry stopped after the first provider that
// satisfied a request instead of fanning out further.
func (m *MockProvider) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *MockProvider) ID() string                        { return m.id }
func (m *MockProvider) Priority() int                      { return m.priority }
func (m *MockProvider) Capabilities() registry.Capabilities { return m.capabilities }

func (m *MockProvider) GetLatestQuote(_ context.Context, _ resolver.ResolvedSymbol) (domain.Quote, error) {
	m.mu.Lock()
	m.calls++
	err, q := m.err, m.latestQuote
	m.mu.Unlock()
	if err != nil {
		return domain.Quote{}, err
	}
	return q, nil
}

func (m *MockProvider) GetHistoricalQuotes(_ context.Context, _ resolver.ResolvedSymbol, _, _ time.Time) ([]domain.Quote, error) {
	m.mu.Lock()
	m.calls++
	err, qs := m.err, m.historical
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return qs, nil
}

func (m *MockProvider) Search(_ context.Context, _ string) ([]registry.SearchResult, error) {
	m.mu.Lock()
	m.calls++
	err, r := m.err, m.search
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (m *MockProvider) GetProfile(_ context.Context, _ resolver.ResolvedSymbol) (registry.Profile, error) {
	m.mu.Lock()
	m.calls++
	err, p := m.err, m.profile
	m.mu.Unlock()
	if err != nil {
		return registry.Profile{}, err
	}
	return p, nil
}

// MockEventSink records every event published through it, for asserting
// what a service under test published without wiring a real websocket feed.
type MockEventSink struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

// NewMockEventSink creates an empty recording sink.
func NewMockEventSink() *MockEventSink {
	return &MockEventSink{}
}

func (s *MockEventSink) Publish(event domain.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of every event published so far, in order.
func (s *MockEventSink) Events() []domain.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DomainEvent, len(s.events))
	copy(out, s.events)
	return out
}
