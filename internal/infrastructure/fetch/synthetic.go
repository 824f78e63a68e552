package fetch

import (
	"context"
	"math"
	"math/rand"
	"time"

	"carbonprice-service/internal/application"
	"carbonprice-service/internal/domain"
)

var (
	syntheticEUABand = priceBand{min: 70, max: 85}
	syntheticCEABand = priceBand{min: 20, max: 60}
)

const (
	syntheticEUAMid      = 77.5
	syntheticIntradayAmp = 2.0
	syntheticJitterAmp   = 1.5

	// CEA trades at a 30-50% discount to the EUA; 40% mean with ±10%
	// time-varying spread.
	ceaBaseDiscount      = 0.40
	ceaDiscountVariation = 0.10
)

// Synthetic is the last-resort source: it never fails. The price is a
// deterministic function of the current minute (same value for repeated
// calls within a minute) plus a small intraday sinusoid, clamped to the
// plausible band. It also derives the CEA instrument from an EUA reference.
type Synthetic struct {
	// Now is injectable so tests can freeze time.
	Now func() time.Time
}

var _ application.SourceFetcher = (*Synthetic)(nil)
var _ application.CEADeriver = (*Synthetic)(nil)

func NewSynthetic() *Synthetic {
	return &Synthetic{Now: func() time.Time { return time.Now().UTC() }}
}

func (s *Synthetic) Name() string { return domain.SourceSynthetic }

func (s *Synthetic) Fetch(_ context.Context) (domain.Quote, error) {
	now := s.Now()
	minuteOfDay := now.Hour()*60 + now.Minute()

	rng := rand.New(rand.NewSource(int64(minuteOfDay)))
	intraday := syntheticIntradayAmp * math.Sin(2*math.Pi*float64(minuteOfDay)/1440)
	jitter := (rng.Float64()*2 - 1) * syntheticJitterAmp
	price := syntheticEUABand.clamp(syntheticEUAMid + intraday + jitter)

	return domain.Quote{
		Instrument: domain.InstrumentEUA,
		Price:      round2(price),
		Currency:   "EUR",
		Timestamp:  now,
	}, nil
}

// Derive computes the CEA quote as a time-varying discount off the EUA
// reference price. The discount stays within [30%, 50%] before clamping the
// result to the CEA band.
func (s *Synthetic) Derive(euaPrice float64, at time.Time) domain.Quote {
	if euaPrice <= 0 {
		euaPrice = 75.0
	}
	seed := int64((at.Hour()*60 + at.Minute()) % 1000)
	rng := rand.New(rand.NewSource(seed))
	variation := (rng.Float64()*2 - 1) * ceaDiscountVariation

	price := euaPrice * (1 - ceaBaseDiscount) * (1 + variation)
	price = syntheticCEABand.clamp(price)

	return domain.Quote{
		Instrument: domain.InstrumentCEA,
		Price:      round2(price),
		Currency:   "EUR",
		Source:     domain.SourceSynthetic,
		Timestamp:  at,
	}
}
