package registry

import (
	"sync"
	"time"
)

const (
	defaultFailureThreshold = 5
	defaultCoolOff          = 60 * time.Second
	maxCoolOff              = 30 * time.Minute
)

type circuitState int

const (
	stateClosed circuitState = iota
	stateOpen
	stateHalfOpen
)

// circuitBreaker tracks consecutive non-terminal failures for one provider
// and opens after a threshold: "Open after K consecutive
// non-terminal failures (default 5) for a cool-off (default 60s), then
// half-open one probe request; success closes the circuit, failure
// re-opens and doubles the cool-off up to a cap."
type circuitBreaker struct {
	mu               sync.Mutex
	failureThreshold int
	baseCoolOff      time.Duration

	state           circuitState
	consecutiveFail int
	openedAt        time.Time
	coolOff         time.Duration
	halfOpenInFlight bool
}

func newCircuitBreaker(failureThreshold int, coolOff time.Duration) *circuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = defaultFailureThreshold
	}
	if coolOff <= 0 {
		coolOff = defaultCoolOff
	}
	return &circuitBreaker{
		failureThreshold: failureThreshold,
		baseCoolOff:      coolOff,
		coolOff:          coolOff,
		state:            stateClosed,
	}
}

// Allow reports whether a request may proceed and, if the circuit is open
// but the cool-off has elapsed, transitions it to half-open and admits
// exactly one probe.
func (b *circuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return true
	case stateHalfOpen:
		return false // a probe is already in flight
	case stateOpen:
		if time.Since(b.openedAt) < b.coolOff {
			return false
		}
		b.state = stateHalfOpen
		b.halfOpenInFlight = true
		return true
	}
	return false
}

// IsOpen reports the breaker's current externally-visible state, used by
// the registry's candidate sort (step 2).
func (b *circuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == stateOpen && time.Since(b.openedAt) >= b.coolOff {
		return false // cool-off has elapsed; next Allow() will half-open it
	}
	return b.state == stateOpen
}

// RecordSuccess closes the circuit and resets the cool-off and failure
// counters.
func (b *circuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = stateClosed
	b.consecutiveFail = 0
	b.coolOff = b.baseCoolOff
	b.halfOpenInFlight = false
}

// RecordFailure counts a non-terminal failure. If it was a half-open probe,
// failure re-opens and doubles the cool-off, capped at maxCoolOff. If the
// closed-state failure count reaches the threshold, the circuit opens.
func (b *circuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen {
		b.open(b.coolOff * 2)
		return
	}

	b.consecutiveFail++
	if b.consecutiveFail >= b.failureThreshold {
		b.open(b.coolOff)
	}
}

func (b *circuitBreaker) open(coolOff time.Duration) {
	if coolOff > maxCoolOff {
		coolOff = maxCoolOff
	}
	b.state = stateOpen
	b.openedAt = time.Now()
	b.coolOff = coolOff
	b.consecutiveFail = 0
	b.halfOpenInFlight = false
}
