package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carbonprice-service/internal/domain"

	"go.uber.org/zap"
)

const (
	defaultCacheDuration = 120 * time.Second
	minCacheDuration     = 60 * time.Second
	maxCacheDuration     = 600 * time.Second

	defaultHistoryLimit = 1000
	defaultHistorySpan  = 5 * 365 * 24 * time.Hour
	maxHistorySpan      = 10 * 365 * 24 * time.Hour

	// fallbackEUAReference seeds the CEA derivation when no EUA quote has
	// ever been observed.
	fallbackEUAReference = 75.0

	refreshGuardKey = "refresh:eua"
)

// PriceService owns the quote cache and coordinates the fallback chain, the
// derived CEA instrument, the durable history store and the admin-tunable
// cache window.
type PriceService struct {
	chain   *Chain
	cache   *QuoteCache
	history HistoryRepo
	deriver CEADeriver
	guard   RefreshGuard
	clock   Clock
	log     *zap.Logger

	mu             sync.RWMutex
	cacheDuration  time.Duration
	updateInterval time.Duration
}

type Option func(*PriceService)

func WithClock(c Clock) Option { return func(s *PriceService) { s.clock = c } }

func WithCacheDuration(d time.Duration) Option {
	return func(s *PriceService) { s.cacheDuration = d }
}

func WithUpdateInterval(d time.Duration) Option {
	return func(s *PriceService) { s.updateInterval = d }
}

func NewPriceService(chain *Chain, cache *QuoteCache, history HistoryRepo, deriver CEADeriver, guard RefreshGuard, log *zap.Logger, opts ...Option) *PriceService {
	s := &PriceService{
		chain:          chain,
		cache:          cache,
		history:        history,
		deriver:        deriver,
		guard:          guard,
		cacheDuration:  defaultCacheDuration,
		updateInterval: time.Minute,
	}
	if s.guard == nil {
		s.guard = NoopRefreshGuard{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s.log = log
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	return s
}

// CacheDuration returns the current cache window.
func (s *PriceService) CacheDuration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cacheDuration
}

// SetCacheDuration adjusts the cache window; the admin API allows 60-600s.
func (s *PriceService) SetCacheDuration(d time.Duration) error {
	if d < minCacheDuration || d > maxCacheDuration {
		return fmt.Errorf("%w: cache duration must be between 60 and 600 seconds", ErrBadRequest)
	}
	s.mu.Lock()
	s.cacheDuration = d
	s.mu.Unlock()
	return nil
}

// UpdateInterval returns the scheduler polling interval.
func (s *PriceService) UpdateInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateInterval
}

// GetEUAPrice serves the primary instrument. Within the cache window the
// stored quote is returned as-is with no network calls; otherwise the
// fallback chain runs and repopulates the cache.
func (s *PriceService) GetEUAPrice(ctx context.Context) (domain.Quote, error) {
	if q, fetchedAt, ok := s.cache.Get(domain.InstrumentEUA); ok {
		if s.clock.Now().Sub(fetchedAt) < s.CacheDuration() {
			return q, nil
		}
	}
	return s.chain.Fetch(ctx)
}

// RefreshEUAPrice bypasses the cache window. The guard coalesces concurrent
// force-refreshes: a caller that loses the reservation gets the cached-or-
// fresh read path instead of issuing a second scrape burst.
func (s *PriceService) RefreshEUAPrice(ctx context.Context) (domain.Quote, error) {
	ok, err := s.guard.TryReserve(ctx, refreshGuardKey)
	if err != nil {
		s.log.Warn("refresh_guard_unavailable", zap.Error(err))
		ok = true
	}
	if !ok {
		s.log.Info("refresh_coalesced")
		return s.GetEUAPrice(ctx)
	}
	return s.chain.Fetch(ctx)
}

// GetCEAPrice serves the derived secondary instrument. The derivation uses
// the EUA price currently in the cache, even when stale; staleness propagates
// into the derived quote deliberately.
func (s *PriceService) GetCEAPrice(ctx context.Context) (domain.Quote, error) {
	if q, fetchedAt, ok := s.cache.Get(domain.InstrumentCEA); ok {
		if s.clock.Now().Sub(fetchedAt) < s.CacheDuration() {
			return q, nil
		}
	}

	reference := fallbackEUAReference
	if eua, _, ok := s.cache.Get(domain.InstrumentEUA); ok {
		reference = eua.Price
	} else if eua, err := s.GetEUAPrice(ctx); err == nil {
		reference = eua.Price
	}

	now := s.clock.Now()
	return s.cache.Store(s.deriver.Derive(reference, now), now), nil
}

// ScheduledRefresh is the scheduler tick body: run the chain unconditionally
// and persist the quote when a live source produced it. Cached-fallback
// results are not appended; the history table only records real observations.
func (s *PriceService) ScheduledRefresh(ctx context.Context) error {
	q, err := s.chain.Fetch(ctx)
	if err != nil {
		return err
	}
	if q.Source == domain.SourceCached || s.history == nil {
		return nil
	}
	return s.history.Append(ctx, domain.HistoryRecord{
		Price:     q.Price,
		Currency:  q.Currency,
		Source:    q.Source,
		Timestamp: q.Timestamp,
		Change24h: q.Change24h,
	})
}

// HistoryQuery selects a slice of the durable price history.
type HistoryQuery struct {
	Start  time.Time
	End    time.Time
	Source string
	Limit  int
}

// GetPriceHistory validates the range and reads the durable store.
func (s *PriceService) GetPriceHistory(ctx context.Context, q HistoryQuery) ([]domain.HistoryRecord, HistoryQuery, error) {
	start, end, err := NormalizeRange(q.Start, q.End, s.clock.Now())
	if err != nil {
		return nil, q, err
	}
	q.Start, q.End = start, end
	if q.Limit <= 0 {
		q.Limit = defaultHistoryLimit
	}
	if s.history == nil {
		return nil, q, ErrNotFound
	}
	recs, err := s.history.List(ctx, q.Start, q.End, q.Source, q.Limit)
	if err != nil {
		return nil, q, err
	}
	return recs, q, nil
}

// NormalizeRange applies the default 5-year window and enforces ordering and
// the 10-year span maximum.
func NormalizeRange(start, end, now time.Time) (time.Time, time.Time, error) {
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = end.Add(-defaultHistorySpan)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	if end.Sub(start) > maxHistorySpan {
		return time.Time{}, time.Time{}, ErrRangeTooLarge
	}
	return start, end, nil
}

// PipelineStatus is the admin introspection snapshot.
type PipelineStatus struct {
	PollingInterval time.Duration
	CacheDuration   time.Duration
	LastUpdates     map[string]time.Time
	LastQuotes      map[domain.Instrument]domain.Quote
}

func (s *PriceService) Status() PipelineStatus {
	st := PipelineStatus{
		PollingInterval: s.UpdateInterval(),
		CacheDuration:   s.CacheDuration(),
		LastUpdates:     s.cache.LastUpdates(),
		LastQuotes:      make(map[domain.Instrument]domain.Quote),
	}
	for _, inst := range []domain.Instrument{domain.InstrumentEUA, domain.InstrumentCEA} {
		if q, _, ok := s.cache.Get(inst); ok {
			st.LastQuotes[inst] = q
		}
	}
	return st
}
