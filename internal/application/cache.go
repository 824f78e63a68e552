package application

import (
	"math"
	"sync"
	"time"

	"carbonprice-service/internal/domain"
)

// rollingCapacity bounds the per-instrument price history kept for the
// 24h-change computation. Oldest entries are evicted first.
const rollingCapacity = 100

type cacheEntry struct {
	quote     domain.Quote
	fetchedAt time.Time
}

// QuoteCache holds the last successfully fetched quote per instrument plus a
// bounded rolling price history. It is the only shared mutable state in the
// pipeline; every read-modify-write goes through the mutex.
type QuoteCache struct {
	mu           sync.Mutex
	entries      map[domain.Instrument]cacheEntry
	rolling      map[domain.Instrument][]float64
	lastBySource map[string]time.Time
}

func NewQuoteCache() *QuoteCache {
	return &QuoteCache{
		entries:      make(map[domain.Instrument]cacheEntry),
		rolling:      make(map[domain.Instrument][]float64),
		lastBySource: make(map[string]time.Time),
	}
}

// Store records a fresh quote: pushes its price into the rolling history,
// stamps the 24h change unless the source already supplied one, replaces the
// last-known quote and returns the finalized quote. Cache-window reads serve
// exactly what Store returned.
func (c *QuoteCache) Store(q domain.Quote, fetchedAt time.Time) domain.Quote {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := append(c.rolling[q.Instrument], q.Price)
	if len(h) > rollingCapacity {
		h = h[len(h)-rollingCapacity:]
	}
	c.rolling[q.Instrument] = h
	if q.Change24h == nil {
		q.Change24h = c.change24hLocked(q.Instrument)
	}
	c.entries[q.Instrument] = cacheEntry{quote: q, fetchedAt: fetchedAt}
	c.lastBySource[q.Source] = fetchedAt
	return q
}

// Get returns the last quote for the instrument and when it was fetched.
func (c *QuoteCache) Get(inst domain.Instrument) (domain.Quote, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[inst]
	return e.quote, e.fetchedAt, ok
}

// Change24h derives the signed percentage move from the rolling history.
// Returns nil when fewer than two prices have been observed.
func (c *QuoteCache) Change24h(inst domain.Instrument) *float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.change24hLocked(inst)
}

func (c *QuoteCache) change24hLocked(inst domain.Instrument) *float64 {
	h := c.rolling[inst]
	if len(h) < 2 {
		return nil
	}
	current := h[len(h)-1]
	old := h[0]
	if len(h) >= 24 {
		old = h[len(h)-24]
	}
	if old == 0 {
		return nil
	}
	change := math.Round((current-old)/old*100*100) / 100
	return &change
}

// HistoryLen reports the current rolling history length for an instrument.
func (c *QuoteCache) HistoryLen(inst domain.Instrument) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rolling[inst])
}

// LastUpdates returns a snapshot of the last successful fetch time per source.
func (c *QuoteCache) LastUpdates() map[string]time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]time.Time, len(c.lastBySource))
	for src, at := range c.lastBySource {
		out[src] = at
	}
	return out
}
