package market

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Snapshot is one observation of the market. Zero fields mean "never
// observed"; a snapshot is never partially reset once populated.
type Snapshot struct {
	BitcoinPriceUSD float64   `json:"bitcoin_price_usd"`
	USDCOPRate      float64   `json:"usd_cop_rate"`
	LastUpdated     time.Time `json:"last_updated"`
}

// Valid reports whether both fields hold observed, usable values.
func (s Snapshot) Valid() bool {
	return s.BitcoinPriceUSD > 0 && s.USDCOPRate > 0
}

// Cache holds the latest market snapshot. One writer (the poll loop),
// many readers; writes replace the whole snapshot atomically so readers
// never see a half-updated pair.
type Cache struct {
	current atomic.Pointer[Snapshot]
}

func NewCache() *Cache {
	c := &Cache{}
	c.current.Store(&Snapshot{})
	return c
}

// Snapshot returns the most recent snapshot.
func (c *Cache) Snapshot() Snapshot {
	return *c.current.Load()
}

// Update merges a new observation into the cache. A zero price or rate
// is treated as a failed fetch for that field and the previous value is
// retained; the cache never reverts to zero once a valid value has been
// observed.
func (c *Cache) Update(priceUSD, usdCopRate float64, now time.Time) Snapshot {
	prev := c.current.Load()
	next := &Snapshot{
		BitcoinPriceUSD: priceUSD,
		USDCOPRate:      usdCopRate,
		LastUpdated:     now,
	}
	if next.BitcoinPriceUSD == 0 {
		next.BitcoinPriceUSD = prev.BitcoinPriceUSD
	}
	if next.USDCOPRate == 0 {
		next.USDCOPRate = prev.USDCOPRate
	}
	c.current.Store(next)
	return *next
}

// Poller refreshes a Cache from a Provider on a fixed interval.
type Poller struct {
	provider Provider
	cache    *Cache
	interval time.Duration
}

func NewPoller(provider Provider, cache *Cache, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{provider: provider, cache: cache, interval: interval}
}

// Run polls until ctx is cancelled. It fetches once immediately so the
// cache is warm before the first tick.
func (p *Poller) Run(ctx context.Context) error {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Market poller stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll performs one refresh. Fetch failures map to zero values so the
// cache's stale-value policy applies per field.
func (p *Poller) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	price, err := p.provider.CurrentPrice(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Bitcoin price fetch failed, keeping last value", "error", err)
		price = 0
	}
	rate, err := p.provider.CurrentRate(ctx)
	if err != nil {
		slog.WarnContext(ctx, "USD/COP rate fetch failed, keeping last value", "error", err)
		rate = 0
	}

	snap := p.cache.Update(price, rate, time.Now())
	slog.DebugContext(ctx, "Market data refreshed",
		"bitcoin_price_usd", snap.BitcoinPriceUSD,
		"usd_cop_rate", snap.USDCOPRate)
}
