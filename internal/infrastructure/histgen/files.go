package histgen

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"carbonprice-service/internal/domain"

	"go.uber.org/zap"
)

const (
	euaFileName = "historical_eua.json"
	ceaFileName = "historical_cea.json"
)

type fileEntry struct {
	Date     string  `json:"date"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// loadFile reads a cached series into a by-date map. Missing or corrupt
// files simply mean an empty cache; generation is deterministic anyway.
func (c *Collector) loadFile(name string) map[string]domain.PricePoint {
	out := make(map[string]domain.PricePoint)
	if c.dir == "" {
		return out
	}
	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		return out
	}
	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.log.Warn("historical_cache_corrupt", zap.String("file", name), zap.Error(err))
		return out
	}
	for _, e := range entries {
		d, err := time.Parse(dateLayout, e.Date)
		if err != nil {
			continue
		}
		out[e.Date] = domain.PricePoint{Date: d, Price: e.Price, Currency: e.Currency}
	}
	return out
}

// saveFile persists the series cache; failures are logged and the request
// proceeds with the in-memory data.
func (c *Collector) saveFile(name string, points map[string]domain.PricePoint) {
	if c.dir == "" {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.log.Warn("historical_cache_mkdir_failed", zap.Error(err))
		return
	}

	entries := make([]fileEntry, 0, len(points))
	for key, p := range points {
		entries = append(entries, fileEntry{Date: key, Price: p.Price, Currency: p.Currency})
	}
	// ISO dates sort lexicographically.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		c.log.Warn("historical_cache_encode_failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(filepath.Join(c.dir, name), data, 0o644); err != nil {
		c.log.Warn("historical_cache_write_failed", zap.String("file", name), zap.Error(err))
	}
}
