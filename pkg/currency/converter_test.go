package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateFallsBackWhenUnconfigured(t *testing.T) {
	c := NewConverter("", time.Hour, 105.0)
	rate, _ := c.Rate(context.Background())
	assert.Equal(t, 105.0, rate)
}

func TestRateFetchesAndCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"rate": 110.5}`))
	}))
	defer srv.Close()

	c := NewConverter(srv.URL, time.Hour, 105.0)
	rate, at := c.Rate(context.Background())
	assert.Equal(t, 110.5, rate)
	assert.WithinDuration(t, time.Now(), at, time.Second)

	// Second call within the TTL is served from cache.
	rate, _ = c.Rate(context.Background())
	assert.Equal(t, 110.5, rate)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRateServesStaleCacheOverFallback(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"rate": 120}`))
	}))
	defer srv.Close()

	c := NewConverter(srv.URL, time.Nanosecond, 105.0)
	rate, _ := c.Rate(context.Background())
	require.Equal(t, 120.0, rate)

	// The source goes down after the TTL lapses; the stale rate wins over
	// the static fallback.
	fail.Store(true)
	time.Sleep(time.Millisecond)
	rate, _ = c.Rate(context.Background())
	assert.Equal(t, 120.0, rate)
}

func TestConvert(t *testing.T) {
	c := NewConverter("", time.Hour, 105.0)
	estimate, rate, _ := c.Convert(context.Background(), 540)
	assert.Equal(t, 105.0, rate)
	assert.Equal(t, int64(56700), estimate)
}
