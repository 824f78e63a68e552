package fetch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var errNoPrice = errors.New("no price found in band")

// priceBand is the plausible range a source accepts; values outside it are
// treated as parse failures, never returned.
type priceBand struct {
	min, max float64
}

func (b priceBand) contains(p float64) bool { return p >= b.min && p <= b.max }

func (b priceBand) clamp(p float64) float64 {
	return math.Max(b.min, math.Min(b.max, p))
}

// firstInBand scans the ordered pattern list over page text and returns the
// first captured number inside the band.
func firstInBand(text string, patterns []*regexp.Regexp, band priceBand) (float64, bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			for _, group := range m[1:] {
				if group == "" {
					continue
				}
				p, err := parsePrice(group)
				if err != nil {
					continue
				}
				if band.contains(p) {
					return round2(p), true
				}
			}
		}
	}
	return 0, false
}

func parsePrice(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
}

func round2(p float64) float64 { return math.Round(p*100) / 100 }

// newScrapeClient mimics a browser session; several upstream pages refuse
// requests that look like a bare HTTP library.
func newScrapeClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: browserHeaders{base: http.DefaultTransport},
	}
}

type browserHeaders struct {
	base http.RoundTripper
}

func (t browserHeaders) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.google.com/")
	return t.base.RoundTrip(req)
}

// getDocument GETs a page and parses it for both structural queries and
// whole-text pattern matching.
func getDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, url)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}
