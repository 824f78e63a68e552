package application

import (
	"context"

	"carbonprice-service/internal/domain"

	"go.uber.org/zap"
)

// Chain tries the configured fetchers in priority order and stops at the
// first success. When every source fails it degrades to the last cached
// quote, re-stamped as SourceCached; a cold cache yields ErrNoQuote.
type Chain struct {
	fetchers []SourceFetcher
	cache    *QuoteCache
	clock    Clock
	log      *zap.Logger
}

func NewChain(fetchers []SourceFetcher, cache *QuoteCache, clock Clock, log *zap.Logger) *Chain {
	if clock == nil {
		clock = realClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{fetchers: fetchers, cache: cache, clock: clock, log: log}
}

// Fetch runs the fallback chain for the primary instrument. On success the
// finalized quote is stored in the cache; the 24h change comes from the
// source when it reports one and from the rolling history otherwise.
func (c *Chain) Fetch(ctx context.Context) (domain.Quote, error) {
	for _, f := range c.fetchers {
		q, err := f.Fetch(ctx)
		if err != nil {
			c.log.Debug("source_failed", zap.String("source", f.Name()), zap.Error(err))
			continue
		}
		q.Instrument = domain.InstrumentEUA
		q.Source = f.Name()
		if q.Currency == "" {
			q.Currency = "EUR"
		}
		q = c.cache.Store(q, c.clock.Now())
		c.log.Info("price_fetched",
			zap.Float64("price", q.Price),
			zap.String("source", q.Source),
		)
		return q, nil
	}

	if cached, _, ok := c.cache.Get(domain.InstrumentEUA); ok {
		c.log.Warn("all_sources_failed_using_cache")
		cached.Source = domain.SourceCached
		return cached, nil
	}
	return domain.Quote{}, ErrNoQuote
}
