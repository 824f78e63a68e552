package application

import (
	"testing"
	"time"

	"carbonprice-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func storeN(c *QuoteCache, inst domain.Instrument, prices ...float64) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range prices {
		c.Store(domain.Quote{Instrument: inst, Price: p, Source: "test"}, at.Add(time.Duration(i)*time.Minute))
	}
}

func Test_Cache_StoreAndGet(t *testing.T) {
	t.Parallel()
	c := NewQuoteCache()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	_, _, ok := c.Get(domain.InstrumentEUA)
	require.False(t, ok)

	c.Store(domain.Quote{Instrument: domain.InstrumentEUA, Price: 80, Source: "s1"}, at)
	q, fetchedAt, ok := c.Get(domain.InstrumentEUA)
	require.True(t, ok)
	require.Equal(t, 80.0, q.Price)
	require.Equal(t, at, fetchedAt)
}

func Test_Cache_StoreStampsChange24h(t *testing.T) {
	t.Parallel()
	c := NewQuoteCache()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	first := c.Store(domain.Quote{Instrument: domain.InstrumentEUA, Price: 80, Source: "s1"}, at)
	require.Nil(t, first.Change24h)

	second := c.Store(domain.Quote{Instrument: domain.InstrumentEUA, Price: 88, Source: "s1"}, at.Add(time.Minute))
	require.NotNil(t, second.Change24h)
	require.Equal(t, 10.0, *second.Change24h)

	// The cached entry carries the same finalized quote.
	got, _, ok := c.Get(domain.InstrumentEUA)
	require.True(t, ok)
	require.Equal(t, second, got)
}

func Test_Cache_StoreKeepsSourceChange24h(t *testing.T) {
	t.Parallel()
	c := NewQuoteCache()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	storeN(c, domain.InstrumentEUA, 80, 88)

	supplied := 3.25
	q := c.Store(domain.Quote{Instrument: domain.InstrumentEUA, Price: 90, Source: "s1", Change24h: &supplied}, at)
	require.Equal(t, 3.25, *q.Change24h)

	got, _, ok := c.Get(domain.InstrumentEUA)
	require.True(t, ok)
	require.Equal(t, 3.25, *got.Change24h)
}

func Test_Cache_RollingHistoryBounded(t *testing.T) {
	t.Parallel()
	c := NewQuoteCache()
	prices := make([]float64, 0, 150)
	for i := 0; i < 150; i++ {
		prices = append(prices, float64(i))
	}
	storeN(c, domain.InstrumentEUA, prices...)

	require.Equal(t, 100, c.HistoryLen(domain.InstrumentEUA))

	// After eviction the oldest retained price is 50, and with >=24 entries
	// the change baseline is the 24th-from-last price, 126.
	got := c.Change24h(domain.InstrumentEUA)
	require.NotNil(t, got)
	want := (149.0 - 126.0) / 126.0 * 100
	require.InDelta(t, want, *got, 0.01)
}

func Test_Cache_Change24h_NeedsTwoPrices(t *testing.T) {
	t.Parallel()
	c := NewQuoteCache()
	require.Nil(t, c.Change24h(domain.InstrumentEUA))

	storeN(c, domain.InstrumentEUA, 80)
	require.Nil(t, c.Change24h(domain.InstrumentEUA))

	storeN(c, domain.InstrumentEUA, 88)
	got := c.Change24h(domain.InstrumentEUA)
	require.NotNil(t, got)
	require.Equal(t, 10.0, *got)
}

func Test_Cache_Change24h_ShortHistoryUsesOldest(t *testing.T) {
	t.Parallel()
	c := NewQuoteCache()
	storeN(c, domain.InstrumentEUA, 100, 90, 95, 110)

	got := c.Change24h(domain.InstrumentEUA)
	require.NotNil(t, got)
	require.Equal(t, 10.0, *got)
}

func Test_Cache_Change24h_PerInstrument(t *testing.T) {
	t.Parallel()
	c := NewQuoteCache()
	storeN(c, domain.InstrumentEUA, 100, 110)
	storeN(c, domain.InstrumentCEA, 40, 38)

	eua := c.Change24h(domain.InstrumentEUA)
	cea := c.Change24h(domain.InstrumentCEA)
	require.NotNil(t, eua)
	require.NotNil(t, cea)
	require.Equal(t, 10.0, *eua)
	require.Equal(t, -5.0, *cea)
}

func Test_Cache_LastUpdates(t *testing.T) {
	t.Parallel()
	c := NewQuoteCache()
	at1 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	at2 := at1.Add(time.Minute)

	c.Store(domain.Quote{Instrument: domain.InstrumentEUA, Price: 80, Source: "s1"}, at1)
	c.Store(domain.Quote{Instrument: domain.InstrumentEUA, Price: 81, Source: "s2"}, at2)

	updates := c.LastUpdates()
	require.Equal(t, at1, updates["s1"])
	require.Equal(t, at2, updates["s2"])

	// Snapshot, not a live view.
	updates["s1"] = at2
	require.Equal(t, at1, c.LastUpdates()["s1"])
}
