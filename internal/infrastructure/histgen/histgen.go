// Package histgen produces daily historical price series for the charting
// endpoints. Real EU ETS history is not freely redistributable, so the
// series is generated from known yearly market ranges with deterministic
// per-day noise, and cached on disk between requests.
package histgen

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"carbonprice-service/internal/domain"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Collector struct {
	dir string
	log *zap.Logger

	mu sync.Mutex
}

func New(dir string, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{dir: dir, log: log}
}

// EUAHistory returns one EUA price point per day in [start, end]. Previously
// generated days are loaded from the data directory so the series stays
// stable across restarts; the per-day noise is seeded from the date, so even
// a cold cache regenerates identical values.
func (c *Collector) EUAHistory(start, end time.Time) ([]domain.PricePoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing := c.loadFile(euaFileName)
	dirty := false

	var out []domain.PricePoint
	for day := dateOnly(start); !day.After(dateOnly(end)); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		p, ok := existing[key]
		if !ok {
			p = domain.PricePoint{Date: day, Price: euaPriceFor(day), Currency: "EUR"}
			existing[key] = p
			dirty = true
		}
		out = append(out, p)
	}
	if dirty {
		c.saveFile(euaFileName, existing)
	}
	return out, nil
}

// CEAHistory derives the CEA series from EUA points with a year-dependent
// discount. When the caller already holds the EUA series for the range it is
// passed in to avoid regenerating it.
func (c *Collector) CEAHistory(start, end time.Time, eua []domain.PricePoint) ([]domain.PricePoint, error) {
	if eua == nil {
		var err error
		eua, err = c.EUAHistory(start, end)
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing := c.loadFile(ceaFileName)
	dirty := false

	var out []domain.PricePoint
	for _, e := range eua {
		key := e.Date.Format(dateLayout)
		p, ok := existing[key]
		if !ok {
			p = domain.PricePoint{Date: e.Date, Price: ceaPriceFor(e.Date, e.Price), Currency: "EUR"}
			existing[key] = p
			dirty = true
		}
		out = append(out, p)
	}
	if dirty {
		c.saveFile(ceaFileName, existing)
	}
	return out, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// euaPriceFor models the published yearly EUA ranges: ~28 EUR around the
// 2020 COVID crash, the 2022-2023 energy-crisis peak near 100, settling to
// 70-85 from 2025 on. Weekly and seasonal sinusoids plus bounded per-day
// noise sit on top of the yearly trend.
func euaPriceFor(day time.Time) float64 {
	year := day.Year()
	progress := yearProgress(day)

	var trend float64
	switch {
	case year < 2020:
		trend = 15 + float64(year-2015)*2
	case year == 2020:
		trend = 25 + progress*5
	case year == 2021:
		trend = 50 + progress*10
	case year == 2022:
		trend = 70 + progress*20
	case year == 2023:
		trend = 80 + progress*20
	case year == 2024:
		trend = 60 + progress*20
	default:
		trend = 70 + progress*15
	}

	rng := rand.New(rand.NewSource(day.Unix()))
	volatility := (rng.Float64()*2 - 1) * 0.03
	weekly := math.Sin(float64(day.Weekday())*2*math.Pi/7) * 0.5
	seasonal := math.Sin(float64(day.Month()-1)*2*math.Pi/12) * 2

	price := trend*(1+volatility) + weekly + seasonal
	lo, hi := euaBoundsFor(year)
	return round2(math.Max(lo, math.Min(hi, price)))
}

func euaBoundsFor(year int) (float64, float64) {
	switch {
	case year < 2020:
		return 5, 30
	case year == 2020:
		return 20, 35
	case year == 2021:
		return 45, 65
	case year == 2022:
		return 65, 95
	case year == 2023:
		return 75, 105
	case year == 2024:
		return 55, 85
	default:
		return 65, 90
	}
}

// ceaPriceFor applies the historical CEA-to-EUA discount: deeper before the
// Chinese market matured (45%), narrowing through 2021-2023 (35%), settling
// around 40%.
func ceaPriceFor(day time.Time, euaPrice float64) float64 {
	year := day.Year()
	var base, spread float64
	switch {
	case year < 2021:
		base, spread = 0.45, 0.05
	case year <= 2023:
		base, spread = 0.35, 0.05
	default:
		base, spread = 0.40, 0.05
	}

	rng := rand.New(rand.NewSource(day.Unix() + 1))
	discount := base + (rng.Float64()*2-1)*spread

	price := euaPrice * (1 - discount)
	return round2(math.Max(15, math.Min(60, price)))
}

func yearProgress(day time.Time) float64 {
	start := time.Date(day.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(day.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
	return float64(day.Sub(start)) / float64(end.Sub(start))
}

func round2(p float64) float64 { return math.Round(p*100) / 100 }
