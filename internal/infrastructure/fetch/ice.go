package fetch

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"carbonprice-service/internal/application"
	"carbonprice-service/internal/domain"

	"github.com/cenkalti/backoff/v4"
)

// iceBand is the EUA spot range the exchange pages are expected to show;
// anything outside it is a mis-parse.
var iceBand = priceBand{min: 70, max: 85}

var iceURLs = []string{
	"https://www.theice.com/products/35496611/EUA-Futures",
	"https://www.theice.com/marketdata/reports/142",
}

// Spot-price indicators, ordered by specificity. First in-band match wins.
var iceSpotPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)spot["']?\s*[:=]\s*([\d,]+\.?\d{0,3})`),
	regexp.MustCompile(`(?i)cash["']?\s*[:=]\s*([\d,]+\.?\d{0,3})`),
	regexp.MustCompile(`(?i)current["']?\s*[:=]\s*([\d,]+\.?\d{0,3})`),
	regexp.MustCompile(`(?i)([\d,]+\.\d{1,3})\s*spot`),
	regexp.MustCompile(`(?i)lastPrice["']?\s*[:=]\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`€\s*([\d,]+\.\d{2})`),
	regexp.MustCompile(`([\d,]+\.\d{2})\s*EUR`),
}

// ICE scrapes the primary exchange's public pages for the EUA spot price.
type ICE struct {
	Client *http.Client
	URLs   []string
	Retry  retryPolicy

	clock func() time.Time
}

var _ application.SourceFetcher = (*ICE)(nil)

func NewICE(timeout time.Duration) *ICE {
	return &ICE{
		Client: newScrapeClient(timeout),
		URLs:   iceURLs,
		Retry:  retryPolicy{attempts: 2, initial: time.Second},
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

func (f *ICE) Name() string { return domain.SourceICE }

func (f *ICE) Fetch(ctx context.Context) (domain.Quote, error) {
	var out domain.Quote
	op := func() error {
		var lastErr error
		for _, url := range f.URLs {
			doc, err := getDocument(ctx, f.Client, url)
			if err != nil {
				lastErr = err
				continue
			}
			price, ok := firstInBand(doc.Text(), iceSpotPatterns, iceBand)
			if !ok {
				lastErr = errNoPrice
				continue
			}
			out = domain.Quote{
				Instrument: domain.InstrumentEUA,
				Price:      price,
				Currency:   "EUR",
				Timestamp:  f.clock(),
			}
			return nil
		}
		if lastErr == errNoPrice {
			// A parsed page with no in-band price will not improve on retry.
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}
	if err := f.Retry.run(ctx, op); err != nil {
		return domain.Quote{}, err
	}
	return out, nil
}
