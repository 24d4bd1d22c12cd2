package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Converter supplies the JPY -> IDR rate used for informational foreign
// currency estimates on international payouts. The rate comes from an
// external source and is cached for a TTL; when the source is unreachable or
// unconfigured the static fallback rate is served instead.
type Converter struct {
	url      string
	ttl      time.Duration
	fallback float64
	client   *http.Client

	mu        sync.Mutex
	rate      float64
	fetchedAt time.Time
}

func NewConverter(url string, ttl time.Duration, fallback float64) *Converter {
	return &Converter{
		url:      url,
		ttl:      ttl,
		fallback: fallback,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Rate returns the JPY -> IDR rate and the time it was fetched. Estimates
// built from it are informational only; the rate may go stale before an
// actual transfer happens.
func (c *Converter) Rate(ctx context.Context) (float64, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rate > 0 && time.Since(c.fetchedAt) < c.ttl {
		return c.rate, c.fetchedAt
	}
	if c.url != "" {
		if rate, err := c.fetch(ctx); err == nil && rate > 0 {
			c.rate = rate
			c.fetchedAt = time.Now()
			return c.rate, c.fetchedAt
		}
	}
	if c.rate > 0 {
		// Keep serving the stale cached rate over the static fallback.
		return c.rate, c.fetchedAt
	}
	return c.fallback, time.Now()
}

// Convert returns the IDR estimate for a JPY amount along with the rate used.
func (c *Converter) Convert(ctx context.Context, amountJPY int64) (int64, float64, time.Time) {
	rate, at := c.Rate(ctx)
	return int64(float64(amountJPY) * rate), rate, at
}

type rateResponse struct {
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Converter) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate source returned %d", resp.StatusCode)
	}
	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return body.Rate, nil
}
