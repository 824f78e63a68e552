package httpserver

import (
	"context"
	"sync"
	"time"

	"carbonprice-service/internal/application"
	"carbonprice-service/internal/domain"
	"carbonprice-service/internal/infrastructure/fetch"
)

// Test doubles shared by the handler tests. Kept in a non-test file so other
// packages can assemble an in-memory service for their own tests.

type fakeFetcher struct {
	name  string
	price float64
	err   error

	mu    sync.Mutex
	calls int
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(context.Context) (domain.Quote, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	return domain.Quote{
		Price:     f.price,
		Currency:  "EUR",
		Timestamp: time.Now().UTC(),
	}, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHistoryRepo struct {
	mu   sync.Mutex
	recs []domain.HistoryRecord
	err  error
}

func (f *fakeHistoryRepo) Append(_ context.Context, rec domain.HistoryRecord) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = int64(len(f.recs) + 1)
	rec.InsertedAt = time.Now().UTC()
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeHistoryRepo) List(_ context.Context, from, to time.Time, source string, limit int) ([]domain.HistoryRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.HistoryRecord, 0, len(f.recs))
	for _, r := range f.recs {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		if source != "" && r.Source != source {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeSeries struct {
	err error
}

func (f fakeSeries) EUAHistory(start, end time.Time) ([]domain.PricePoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.PricePoint{
		{Date: start, Price: 75.0, Currency: "EUR"},
		{Date: end, Price: 76.5, Currency: "EUR"},
	}, nil
}

func (f fakeSeries) CEAHistory(start, end time.Time, eua []domain.PricePoint) ([]domain.PricePoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.PricePoint, 0, len(eua))
	for _, p := range eua {
		out = append(out, domain.PricePoint{Date: p.Date, Price: p.Price * 0.6, Currency: "EUR"})
	}
	return out, nil
}

// NewInMemoryService assembles a service over fakes: one configurable primary
// fetcher, the synthetic terminator, and an in-memory history store.
func NewInMemoryService(primary *fakeFetcher, opts ...application.Option) (*application.PriceService, *fakeHistoryRepo) {
	cache := application.NewQuoteCache()
	fetchers := []application.SourceFetcher{}
	if primary != nil {
		fetchers = append(fetchers, primary)
	}
	fetchers = append(fetchers, fetch.NewSynthetic())
	chain := application.NewChain(fetchers, cache, nil, nil)
	hist := &fakeHistoryRepo{}
	svc := application.NewPriceService(chain, cache, hist, fetch.NewSynthetic(), nil, nil, opts...)
	return svc, hist
}
