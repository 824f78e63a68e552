package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testAlphaVantage(url string) *AlphaVantage {
	return &AlphaVantage{
		APIKey:  "test-key",
		BaseURL: url,
		Client:  &http.Client{Timeout: time.Second},
		Retry:   retryPolicy{attempts: 2, initial: time.Millisecond},
		clock:   func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func Test_AlphaVantage_NoKey(t *testing.T) {
	t.Parallel()
	f := testAlphaVantage("http://127.0.0.1:0")
	f.APIKey = ""
	_, err := f.Fetch(context.Background())
	require.ErrorIs(t, err, errNoAPIKey)
}

func Test_AlphaVantage_Fetch(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		require.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(`{"Global Quote": {"01. symbol": "EUA", "05. price": "79.4300", "10. change percent": "1.25%"}}`))
	}))
	defer ts.Close()

	q, err := testAlphaVantage(ts.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 79.43, q.Price)
	require.NotNil(t, q.Change24h)
	require.Equal(t, 1.25, *q.Change24h)
}

func Test_AlphaVantage_RateLimitAborts(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	}))
	defer ts.Close()

	_, err := testAlphaVantage(ts.URL).Fetch(context.Background())
	require.ErrorIs(t, err, errRateLimited)
	// The rate-limit note aborts without trying further symbols or retries.
	require.Equal(t, int32(1), hits.Load())
}

func Test_AlphaVantage_TriesNextSymbol(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("symbol") == "EUA" {
			w.Write([]byte(`{"Global Quote": {}}`))
			return
		}
		w.Write([]byte(`{"Global Quote": {"05. price": "81.00"}}`))
	}))
	defer ts.Close()

	q, err := testAlphaVantage(ts.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 81.0, q.Price)
	require.Equal(t, int32(2), hits.Load())
}

func Test_AlphaVantage_NoData(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"Global Quote": {}}`))
	}))
	defer ts.Close()

	f := testAlphaVantage(ts.URL)
	_, err := f.Fetch(context.Background())
	require.ErrorIs(t, err, errNoData)
	// One pass over every symbol spelling, no retry.
	require.Equal(t, int32(len(f.Symbols())), hits.Load())
}

func Test_AlphaVantage_OutOfBandRejected(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"Global Quote": {"05. price": "4200.00"}}`))
	}))
	defer ts.Close()

	_, err := testAlphaVantage(ts.URL).Fetch(context.Background())
	require.ErrorIs(t, err, errNoData)
}
