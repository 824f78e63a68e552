package domain

// Instrument identifies a tradeable carbon allowance contract.
type Instrument string

const (
	// InstrumentEUA is the EU ETS allowance spot contract, quoted in EUR.
	InstrumentEUA Instrument = "EUA"
	// InstrumentCEA is the Chinese ETS allowance, derived from the EUA price.
	InstrumentCEA Instrument = "CEA"
)
