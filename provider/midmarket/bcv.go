package midmarket

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/provider/currencies"
	"github.com/sig-0/remitrates/storage/types"
)

const BCVURL = "https://www.bcv.org.ve/"

var errInvalidRate = errors.New("invalid rate")

// bcvSections maps the BCV website currency section IDs
// to the currency they quote against VES
var bcvSections = map[string]string{
	currencies.USD: "dolar",
	currencies.EUR: "euro",
	currencies.CNY: "yuan",
	currencies.TRY: "lira",
	currencies.RUB: "rublo",
}

// BCVRates are the official rates published by the central bank of Venezuela
type BCVRates struct {
	EffectiveDate time.Time
	Rates         map[string]decimal.Decimal // base currency -> VES
}

// BCV scrapes the official VES rates from the BCV website
type BCV struct {
	client *http.Client
	url    string
}

// NewBCV creates a new instance of the BCV website source
func NewBCV(url string, timeout time.Duration) *BCV {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // BCV serves an incomplete chain
	}

	return &BCV{
		client: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		url: url,
	}
}

// Rate returns the official rate of base in VES.
// Only VES targets are published
func (s *BCV) Rate(ctx context.Context, base, target string) (decimal.Decimal, error) {
	base = types.NormalizeCode(base)

	if types.NormalizeCode(target) != currencies.VES {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedPair, Pair(base, target))
	}

	if _, ok := bcvSections[base]; !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedPair, Pair(base, target))
	}

	rates, err := s.Fetch(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	rate, ok := rates.Rates[base]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate for %s not published", base)
	}

	return rate, nil
}

// Fetch scrapes every published rate, along with their effective date
func (s *BCV) Fetch(ctx context.Context) (*BCVRates, error) {
	// Prepare the request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("unable to create new GET request: %w", err)
	}

	// Execute the request
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	// Construct document for parsing
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to construct query doc: %w", err)
	}

	out := &BCVRates{
		EffectiveDate: time.Now().UTC(),
		Rates:         make(map[string]decimal.Decimal, len(bcvSections)),
	}

	if effective := parseEffectiveDate(doc); effective != nil {
		out.EffectiveDate = *effective
	}

	for currency, id := range bcvSections {
		rate, err := sectionRate(doc, id)
		if err != nil {
			// Sections come and go, only the USD one is mandatory
			continue
		}

		out.Rates[currency] = rate
	}

	if _, ok := out.Rates[currencies.USD]; !ok {
		return nil, fmt.Errorf("%w: missing USD section", errInvalidRate)
	}

	return out, nil
}

// sectionRate extracts the rate from a currency section of the page
func sectionRate(doc *goquery.Document, id string) (decimal.Decimal, error) {
	sel := doc.Find("#" + id)

	if sel.Length() == 0 {
		return decimal.Zero, fmt.Errorf("missing element #%s", id)
	}

	txt := sel.Find(".col-sm-6.col-xs-6.centrado").First().Text()
	if strings.TrimSpace(txt) == "" {
		txt = sel.Find(".centrado").First().Text()
	}

	v, err := parseBCVNumber(txt)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse rate value for %s: %w", id, err)
	}

	return v.Round(4), nil
}

// parseBCVNumber parses the rate number from the BCV website
func parseBCVNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errInvalidRate
	}

	// BCV uses comma as decimal separator and dots for thousands:
	// "1.234,56" -> "1234.56"
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse rate %q: %w", s, err)
	}

	if !d.IsPositive() {
		return decimal.Zero, errInvalidRate
	}

	return d, nil
}

// parseEffectiveDate parses the "Fecha Valor" date on the BCV website
func parseEffectiveDate(doc *goquery.Document) *time.Time {
	// Best source: the machine-readable datetime
	sel := doc.Find(`span.date-display-single[property="dc:date"]`).First()
	if sel.Length() == 0 {
		sel = doc.Find("span.date-display-single").First()
	}

	if sel.Length() == 0 {
		return nil
	}

	if content, ok := sel.Attr("content"); ok && strings.TrimSpace(content) != "" {
		// Example: "2026-01-13T00:00:00-04:00"
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(content)); err == nil {
			u := t.UTC()

			return &u
		}
	}

	// Fallback: parse the rendered Spanish text
	txt := strings.TrimSpace(sel.Text())
	if txt == "" {
		return nil
	}

	t, err := parseBCVDate(txt)
	if err != nil {
		return nil
	}

	return &t
}

var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// parseBCVDate parses a rendered date, ie. "Martes, 13 Enero 2026".
// The day of the week is ignored
func parseBCVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); i != -1 {
		s = strings.TrimSpace(s[i+1:])
	}

	parts := strings.Fields(s)
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("date format is invalid %q", s)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse effective date day: %w", err)
	}

	month, ok := spanishMonths[strings.ToLower(parts[1])]
	if !ok {
		return time.Time{}, fmt.Errorf("month is invalid %q", parts[1])
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse effective date year: %w", err)
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}
