package fetch

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"carbonprice-service/internal/application"
	"carbonprice-service/internal/domain"
	"carbonprice-service/internal/infrastructure/httpx"
)

const oilPriceBaseURL = "https://api.oilpriceapi.com/v1/prices/latest"

// OilPrice queries OilPriceAPI's EU carbon allowance feed. Skipped entirely
// when no credential is configured.
type OilPrice struct {
	APIKey  string
	BaseURL string
	Client  *httpx.Client

	clock func() time.Time
}

var _ application.SourceFetcher = (*OilPrice)(nil)

func NewOilPrice(apiKey string) *OilPrice {
	return &OilPrice{
		APIKey:  apiKey,
		BaseURL: oilPriceBaseURL,
		Client: &httpx.Client{
			HTTP:       &http.Client{Timeout: 5 * time.Second},
			AuthScheme: "Token",
			Token:      apiKey,
		},
		clock: func() time.Time { return time.Now().UTC() },
	}
}

func (f *OilPrice) Name() string { return domain.SourceOilPriceAPI }

type oilPriceResp struct {
	Data struct {
		Price     float64  `json:"price"`
		Change24h *float64 `json:"change_24h"`
		Timestamp string   `json:"timestamp"`
	} `json:"data"`
}

func (f *OilPrice) Fetch(ctx context.Context) (domain.Quote, error) {
	if f.APIKey == "" {
		return domain.Quote{}, errNoAPIKey
	}

	u, err := url.Parse(f.BaseURL)
	if err != nil {
		return domain.Quote{}, err
	}
	q := u.Query()
	q.Set("commodity", "eu-carbon-allowances")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Quote{}, err
	}
	var body oilPriceResp
	if err := f.Client.DoJSON(ctx, req, &body); err != nil {
		return domain.Quote{}, err
	}
	if !alphaVantageBand.contains(body.Data.Price) {
		return domain.Quote{}, errNoPrice
	}

	ts := f.clock()
	if body.Data.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, body.Data.Timestamp); err == nil {
			ts = parsed.UTC()
		}
	}
	return domain.Quote{
		Instrument: domain.InstrumentEUA,
		Price:      round2(body.Data.Price),
		Currency:   "EUR",
		Timestamp:  ts,
		Change24h:  body.Data.Change24h,
	}, nil
}
