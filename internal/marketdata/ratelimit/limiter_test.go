package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTryAcquire_RespectsBurst(t *testing.T) {
	reg := NewRegistry(Limits{RequestsPerMinute: 60, Burst: 2}, nil)

	assert.True(t, reg.TryAcquire("yahoo"))
	assert.True(t, reg.TryAcquire("yahoo"))
	assert.False(t, reg.TryAcquire("yahoo"), "third immediate call should exceed burst")
}

func TestBuckets_AreIsolatedPerProvider(t *testing.T) {
	reg := NewRegistry(Limits{RequestsPerMinute: 60, Burst: 1}, nil)

	assert.True(t, reg.TryAcquire("yahoo"))
	assert.False(t, reg.TryAcquire("yahoo"))
	assert.True(t, reg.TryAcquire("alphavantage"), "a different provider's bucket must not be exhausted")
}

func TestOverrides_ApplyPerProvider(t *testing.T) {
	reg := NewRegistry(
		Limits{RequestsPerMinute: 60, Burst: 1},
		map[string]Limits{"alphavantage": {RequestsPerMinute: 60, Burst: 5}},
	)

	for i := 0; i < 5; i++ {
		assert.True(t, reg.TryAcquire("alphavantage"))
	}
	assert.False(t, reg.TryAcquire("alphavantage"))
}

func TestAcquire_ContextCancellationUnblocks(t *testing.T) {
	reg := NewRegistry(Limits{RequestsPerMinute: 1, Burst: 1}, nil)
	assert.True(t, reg.TryAcquire("yahoo")) // drain the single token

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := reg.Acquire(ctx, "yahoo")
	assert.Error(t, err)
}

func TestReserve_ZeroWhenTokenAvailable(t *testing.T) {
	reg := NewRegistry(Limits{RequestsPerMinute: 60, Burst: 3}, nil)
	assert.Equal(t, time.Duration(0), reg.Reserve("yahoo"))
}

func TestLimits_OrDefaultFillsZeroValues(t *testing.T) {
	l := Limits{}.orDefault()
	assert.Equal(t, DefaultRequestsPerMinute, l.RequestsPerMinute)
	assert.Equal(t, DefaultBurst, l.Burst)
}
