package fetch

import (
	"context"
	"net/http"
	"time"

	"carbonprice-service/internal/application"
	"carbonprice-service/internal/domain"
)

const investingURL = "https://www.investing.com/commodities/carbon-emissions"

// Investing scrapes the carbon-emissions instrument page on investing.com.
// The last price sits in a data-test attribute, with class-based fallbacks.
type Investing struct {
	Client *http.Client
	URL    string

	clock func() time.Time
}

var _ application.SourceFetcher = (*Investing)(nil)

func NewInvesting(timeout time.Duration) *Investing {
	return &Investing{
		Client: newScrapeClient(timeout),
		URL:    investingURL,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

func (f *Investing) Name() string { return domain.SourceInvesting }

func (f *Investing) Fetch(ctx context.Context) (domain.Quote, error) {
	doc, err := getDocument(ctx, f.Client, f.URL)
	if err != nil {
		return domain.Quote{}, err
	}

	for _, sel := range []string{
		`span[data-test="instrument-price-last"]`,
		`span[class*="price"]`,
		`span[class*="last"]`,
		`div[id*="last_last"]`,
	} {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		p, err := parsePrice(el.Text())
		if err != nil {
			continue
		}
		if iceBand.contains(p) {
			return domain.Quote{
				Instrument: domain.InstrumentEUA,
				Price:      round2(p),
				Currency:   "EUR",
				Timestamp:  f.clock(),
			}, nil
		}
	}
	return domain.Quote{}, errNoPrice
}
