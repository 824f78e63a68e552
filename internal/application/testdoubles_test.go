package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"carbonprice-service/internal/domain"
)

var ErrSourceDown = errors.New("source down")

type fakeFetcher struct {
	name   string
	price  float64
	change *float64
	err    error
	calls  int
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(context.Context) (domain.Quote, error) {
	f.calls++
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	return domain.Quote{Price: f.price, Currency: "EUR", Change24h: f.change, Timestamp: time.Now().UTC()}, nil
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
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeHistoryRepo) List(_ context.Context, from, to time.Time, source string, limit int) ([]domain.HistoryRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.HistoryRecord
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

func (f *fakeHistoryRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

type fakeDeriver struct {
	out domain.Quote
}

func (f fakeDeriver) Derive(euaPrice float64, at time.Time) domain.Quote {
	q := f.out
	if q.Price == 0 {
		q.Price = euaPrice * 0.6
	}
	q.Instrument = domain.InstrumentCEA
	q.Timestamp = at
	return q
}

type fakeGuard struct {
	reserve bool
	err     error
	calls   int
}

func (f *fakeGuard) TryReserve(context.Context, string) (bool, error) {
	f.calls++
	return f.reserve, f.err
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
