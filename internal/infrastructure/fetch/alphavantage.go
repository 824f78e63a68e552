package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carbonprice-service/internal/application"
	"carbonprice-service/internal/domain"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// alphaVantageBand is deliberately wide: the API may serve historical EU ETS
// quotes well outside the current spot range.
var alphaVantageBand = priceBand{min: 5, max: 150}

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

var (
	errNoAPIKey    = errors.New("no API key configured")
	errRateLimited = errors.New("rate limited")
	errNoData      = errors.New("no quote data for any symbol")
)

// Candidate symbol spellings for the EU allowance contract; the API's
// coverage of carbon markets is inconsistent across listings.
var alphaVantageSymbols = []string{"EUA", "EUA1", "EUA.XFRA"}

// AlphaVantage queries the keyed GLOBAL_QUOTE endpoint. Disabled entirely
// when no credential is configured. A rate-limit note in the response aborts
// the whole attempt without consuming a retry; the free tier allows five
// calls per minute, enforced client-side as well.
type AlphaVantage struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
	Retry   retryPolicy

	clock func() time.Time
}

var _ application.SourceFetcher = (*AlphaVantage)(nil)

func NewAlphaVantage(apiKey string, timeout time.Duration) *AlphaVantage {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AlphaVantage{
		APIKey:  apiKey,
		BaseURL: alphaVantageBaseURL,
		Client:  &http.Client{Timeout: timeout},
		Limiter: rate.NewLimiter(rate.Limit(5.0/60.0), 1),
		Retry:   retryPolicy{attempts: 2, initial: time.Second},
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

func (f *AlphaVantage) Name() string { return domain.SourceAlphaVantage }

type alphaVantageResp struct {
	GlobalQuote  map[string]string `json:"Global Quote"`
	Note         string            `json:"Note"`
	ErrorMessage string            `json:"Error Message"`
}

func (f *AlphaVantage) Fetch(ctx context.Context) (domain.Quote, error) {
	if f.APIKey == "" {
		return domain.Quote{}, errNoAPIKey
	}

	var out domain.Quote
	op := func() error {
		for _, symbol := range f.Symbols() {
			q, err := f.fetchSymbol(ctx, symbol)
			if err == nil {
				out = q
				return nil
			}
			if errors.Is(err, errRateLimited) {
				return backoff.Permanent(err)
			}
			// try the next symbol spelling
		}
		return backoff.Permanent(errNoData)
	}
	if err := f.Retry.run(ctx, op); err != nil {
		return domain.Quote{}, err
	}
	return out, nil
}

func (f *AlphaVantage) Symbols() []string { return alphaVantageSymbols }

func (f *AlphaVantage) fetchSymbol(ctx context.Context, symbol string) (domain.Quote, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return domain.Quote{}, err
		}
	}

	u, err := url.Parse(f.BaseURL)
	if err != nil {
		return domain.Quote{}, err
	}
	q := u.Query()
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", f.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Quote{}, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return domain.Quote{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body alphaVantageResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Quote{}, err
	}
	if strings.Contains(body.Note, "API call frequency") || strings.Contains(body.Note, "Thank you for using Alpha Vantage") {
		return domain.Quote{}, errRateLimited
	}
	if body.ErrorMessage != "" {
		return domain.Quote{}, fmt.Errorf("api error for %s: %s", symbol, body.ErrorMessage)
	}

	priceStr := body.GlobalQuote["05. price"]
	if priceStr == "" {
		priceStr = body.GlobalQuote["price"]
	}
	if priceStr == "" {
		return domain.Quote{}, errNoData
	}
	price, err := parsePrice(priceStr)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("invalid price %q: %w", priceStr, err)
	}
	if !alphaVantageBand.contains(price) {
		return domain.Quote{}, fmt.Errorf("%w: %.2f outside [%g, %g]", errNoPrice, price, alphaVantageBand.min, alphaVantageBand.max)
	}

	quote := domain.Quote{
		Instrument: domain.InstrumentEUA,
		Price:      round2(price),
		Currency:   "EUR",
		Timestamp:  f.clock(),
	}
	changeStr := body.GlobalQuote["10. change percent"]
	if changeStr == "" {
		changeStr = body.GlobalQuote["change_percent"]
	}
	if changeStr != "" && changeStr != "0%" {
		if c, err := parsePrice(strings.TrimSuffix(changeStr, "%")); err == nil {
			quote.Change24h = &c
		}
	}
	return quote, nil
}
