package domain

import (
	"encoding/json"
	"time"
)

// HistoryRecord is one durable row of the append-only price history table.
type HistoryRecord struct {
	ID         int64
	Price      float64
	Currency   string
	Source     string
	Timestamp  time.Time
	Change24h  *float64
	InsertedAt time.Time
}

// PricePoint is one day of a historical price series. It serializes with a
// plain YYYY-MM-DD date rather than a full timestamp.
type PricePoint struct {
	Date     time.Time
	Price    float64
	Currency string
}

type pricePointJSON struct {
	Date     string  `json:"date"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricePointJSON{
		Date:     p.Date.Format("2006-01-02"),
		Price:    p.Price,
		Currency: p.Currency,
	})
}

func (p *PricePoint) UnmarshalJSON(b []byte) error {
	var v pricePointJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	d, err := time.Parse("2006-01-02", v.Date)
	if err != nil {
		return err
	}
	p.Date, p.Price, p.Currency = d, v.Price, v.Currency
	return nil
}
