package fetch

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"carbonprice-service/internal/application"
	"carbonprice-service/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// carbonCreditsBand is wider than the exchange band: the page mixes current,
// historical and forecast prices.
var carbonCreditsBand = priceBand{min: 50, max: 100}

const carbonCreditsURL = "https://carboncredits.com/carbon-prices-today/"

var euaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)EUA[:\s]+([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)EU\s+ETS[:\s]+([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)European\s+Union\s+Allowance[:\s]+([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)€\s*([\d,]+\.\d{2})\s*(?:EUR|€)?\s*(?:EUA|EU\s+ETS)`),
	regexp.MustCompile(`(?i)(?:EUA|EU\s+ETS)[:\s]*€\s*([\d,]+\.\d{2})`),
}

var euaLabelRe = regexp.MustCompile(`(?i)EUA|EU\s+ETS|European\s+Union`)
var priceClassRe = regexp.MustCompile(`(?i)price|eua|ets|carbon`)
var anyEURPriceRe = regexp.MustCompile(`€\s*([\d,]+\.\d{2})|([\d,]+\.\d{2})\s*EUR`)
var bareNumberRe = regexp.MustCompile(`([\d,]+\.\d{2})`)

// CarbonCredits scrapes carboncredits.com, which lists the EUA alongside
// other carbon benchmarks. Extraction strategies run in order: labelled text
// patterns, price tables, labelled elements, then any in-band EUR price.
type CarbonCredits struct {
	Client *http.Client
	URL    string

	clock func() time.Time
}

var _ application.SourceFetcher = (*CarbonCredits)(nil)

func NewCarbonCredits(timeout time.Duration) *CarbonCredits {
	return &CarbonCredits{
		Client: newScrapeClient(timeout),
		URL:    carbonCreditsURL,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

func (f *CarbonCredits) Name() string { return domain.SourceCarbonCredits }

func (f *CarbonCredits) Fetch(ctx context.Context) (domain.Quote, error) {
	doc, err := getDocument(ctx, f.Client, f.URL)
	if err != nil {
		return domain.Quote{}, err
	}

	text := doc.Text()
	price, ok := firstInBand(text, euaPatterns, carbonCreditsBand)
	if !ok {
		price, ok = f.priceFromTables(doc)
	}
	if !ok {
		price, ok = f.priceFromElements(doc)
	}
	if !ok {
		price, ok = firstInBand(text, []*regexp.Regexp{anyEURPriceRe}, carbonCreditsBand)
	}
	if !ok {
		return domain.Quote{}, errNoPrice
	}
	return domain.Quote{
		Instrument: domain.InstrumentEUA,
		Price:      price,
		Currency:   "EUR",
		Timestamp:  f.clock(),
	}, nil
}

// priceFromTables looks for a row mentioning the EUA and takes the first
// in-band number from its neighbouring cells.
func (f *CarbonCredits) priceFromTables(doc *goquery.Document) (float64, bool) {
	var price float64
	var found bool
	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		labelled := false
		cells.Each(func(_ int, cell *goquery.Selection) {
			if euaLabelRe.MatchString(cell.Text()) {
				labelled = true
			}
		})
		if !labelled {
			return true
		}
		cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			if p, ok := firstInBand(cell.Text(), []*regexp.Regexp{bareNumberRe}, carbonCreditsBand); ok {
				price, found = p, true
				return false
			}
			return true
		})
		return !found
	})
	return price, found
}

// priceFromElements scans elements whose class hints at price content.
func (f *CarbonCredits) priceFromElements(doc *goquery.Document) (float64, bool) {
	var price float64
	var found bool
	doc.Find("div, span, p").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		class, _ := el.Attr("class")
		if !priceClassRe.MatchString(class) {
			return true
		}
		text := el.Text()
		if !euaLabelRe.MatchString(text) {
			return true
		}
		if p, ok := firstInBand(text, []*regexp.Regexp{bareNumberRe}, carbonCreditsBand); ok {
			price, found = p, true
			return false
		}
		return true
	})
	return price, found
}
