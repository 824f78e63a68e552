package application

import (
	"context"
	"testing"

	"carbonprice-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func Test_Chain_FirstSourceWins(t *testing.T) {
	t.Parallel()
	primary := &fakeFetcher{name: "primary", price: 80}
	secondary := &fakeFetcher{name: "secondary", price: 70}
	cache := NewQuoteCache()
	chain := NewChain([]SourceFetcher{primary, secondary}, cache, nil, nil)

	q, err := chain.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 80.0, q.Price)
	require.Equal(t, "primary", q.Source)
	require.Equal(t, domain.InstrumentEUA, q.Instrument)
	require.Equal(t, 1, primary.calls)
	require.Zero(t, secondary.calls)
}

func Test_Chain_FallsThroughOnFailure(t *testing.T) {
	t.Parallel()
	primary := &fakeFetcher{name: "primary", err: ErrSourceDown}
	secondary := &fakeFetcher{name: "secondary", price: 70}
	chain := NewChain([]SourceFetcher{primary, secondary}, NewQuoteCache(), nil, nil)

	q, err := chain.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 70.0, q.Price)
	require.Equal(t, "secondary", q.Source)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, secondary.calls)
}

func Test_Chain_AllFailed_ServesCached(t *testing.T) {
	t.Parallel()
	flaky := &fakeFetcher{name: "flaky", price: 80}
	cache := NewQuoteCache()
	chain := NewChain([]SourceFetcher{flaky}, cache, nil, nil)

	_, err := chain.Fetch(context.Background())
	require.NoError(t, err)

	flaky.err = ErrSourceDown
	q, err := chain.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 80.0, q.Price)
	require.Equal(t, domain.SourceCached, q.Source)
}

func Test_Chain_KeepsSourceReportedChange24h(t *testing.T) {
	t.Parallel()
	reported := -2.4
	src := &fakeFetcher{name: "src", price: 80, change: &reported}
	cache := NewQuoteCache()
	chain := NewChain([]SourceFetcher{src}, cache, nil, nil)

	// Sources like AlphaVantage report their own 24h change; the rolling
	// history only fills in when the source stayed silent.
	q, err := chain.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, -2.4, *q.Change24h)

	cached, _, ok := cache.Get(domain.InstrumentEUA)
	require.True(t, ok)
	require.Equal(t, -2.4, *cached.Change24h)
}

func Test_Chain_ColdCache_NoQuote(t *testing.T) {
	t.Parallel()
	down := &fakeFetcher{name: "down", err: ErrSourceDown}
	chain := NewChain([]SourceFetcher{down}, NewQuoteCache(), nil, nil)

	_, err := chain.Fetch(context.Background())
	require.ErrorIs(t, err, ErrNoQuote)
}

func Test_Chain_DefaultsCurrency(t *testing.T) {
	t.Parallel()
	bare := &bareFetcher{}
	chain := NewChain([]SourceFetcher{bare}, NewQuoteCache(), nil, nil)

	q, err := chain.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "EUR", q.Currency)
}

type bareFetcher struct{}

func (bareFetcher) Name() string { return "bare" }

func (bareFetcher) Fetch(context.Context) (domain.Quote, error) {
	return domain.Quote{Price: 75}, nil
}
