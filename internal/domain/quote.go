package domain

import "time"

// Source names attached to quotes, matching what the upstream pages call themselves.
const (
	SourceICE           = "ICE (Intercontinental Exchange)"
	SourceCarbonCredits = "CarbonCredits.com"
	SourceInvesting     = "Investing.com"
	SourceAlphaVantage  = "Alpha Vantage API"
	SourceOilPriceAPI   = "OilPriceAPI"
	SourceSynthetic     = "Synthetic"
	// SourceCached marks a quote served from the last-known-good cache after
	// every live source failed.
	SourceCached = "Cached"
)

// Quote is one observed allowance price.
type Quote struct {
	Instrument Instrument
	Price      float64
	Currency   string
	Source     string
	Timestamp  time.Time
	// Change24h is a signed percentage; nil when there is not enough
	// rolling history to compute it.
	Change24h *float64
}
