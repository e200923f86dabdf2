package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bkaradeniz/marketscan/internal/htmltable"
	"github.com/bkaradeniz/marketscan/pkg/models"
	"github.com/bkaradeniz/marketscan/pkg/utils"
)

const defaultScreenerBaseURL = "https://finviz.com"

// screenerMarkers discriminate the real results grid from decoy tables.
// Navigation bars and filter banners occasionally contain one of these in
// passing, but only the data grid's header carries both.
var screenerMarkers = []string{"Ticker", "Price"}

// screenerColumns is the expected column order of the overview results grid.
var screenerColumns = []string{
	"No.", "Ticker", "Company", "Sector", "Industry", "Country",
	"Market Cap", "P/E", "Price", "Change", "Volume",
}

// ScreenerPageSize is the fixed number of rows per results page.
const ScreenerPageSize = 20

// Query describes a screener scan: which exchange to restrict to and any
// additional raw filter codes the site understands (valuation, profitability,
// technical selections).
type Query struct {
	Exchange string   // e.g. "nasd", "nyse"; empty for all
	Filters  []string // raw filter codes appended to the query, e.g. "fa_pe_u20"
}

// Screener scrapes the paginated screener results grid.
type Screener struct {
	// BaseURL is overridable for tests.
	BaseURL string

	limiter *Throttle
}

// NewScreener creates a screener source with a conservative request rate.
func NewScreener() *Screener {
	return &Screener{
		BaseURL: defaultScreenerBaseURL,
		limiter: NewThrottle(SourceLimit{Burst: 1, Every: time.Second}), // conservative: 1 req/s
	}
}

// Name returns the data source name.
func (s *Screener) Name() string { return "Screener" }

// FetchPage fetches and parses one results page at the given row offset.
// ErrNotFound means the page has no results grid, the normal end of a
// paginated run, distinct from transport failures.
func (s *Screener) FetchPage(ctx context.Context, q Query, offset int) ([]models.Instrument, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, _, err := doGet(ctx, s.pageURL(q, offset), map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return nil, fmt.Errorf("screener page offset %d: %w", offset, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse screener HTML: %w", err)
	}

	tbl, ok := htmltable.Locate(doc, screenerMarkers...)
	if !ok {
		return nil, ErrNotFound
	}

	var instruments []models.Instrument
	for _, rec := range htmltable.ParseRecords(tbl, screenerColumns) {
		ticker := utils.NormalizeTicker(rec["Ticker"])
		if ticker == "" {
			continue // malformed row, drop it, keep the batch
		}
		instruments = append(instruments, models.Instrument{
			Ticker:    ticker,
			Name:      rec["Company"],
			Sector:    rec["Sector"],
			Industry:  rec["Industry"],
			Country:   rec["Country"],
			MarketCap: parseMarketCap(rec["Market Cap"]),
			PE:        rec.Field("P/E"),
			Price:     rec.Field("Price"),
			ChangePct: rec.Field("Change"),
			Volume:    rec.Field("Volume"),
		})
	}

	return instruments, nil
}

// pageURL builds the overview-view URL for a row offset. The site numbers
// rows from 1, so offset 0 is r=1, offset 20 is r=21, and so on.
func (s *Screener) pageURL(q Query, offset int) string {
	v := url.Values{}
	v.Set("v", "111")
	v.Set("r", fmt.Sprint(offset+1))

	filters := q.Filters
	if q.Exchange != "" {
		filters = append([]string{"exch_" + strings.ToLower(q.Exchange)}, filters...)
	}
	if len(filters) > 0 {
		v.Set("f", strings.Join(filters, ","))
	}

	return s.BaseURL + "/screener.ashx?" + v.Encode()
}

// parseMarketCap handles the grid's abbreviated market cap notation
// ("2.95T", "412.5B", "900M").
func parseMarketCap(s string) models.Float {
	s = strings.TrimSpace(s)
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "T"):
		s, mult = strings.TrimSuffix(s, "T"), 1e12
	case strings.HasSuffix(s, "B"):
		s, mult = strings.TrimSuffix(s, "B"), 1e9
	case strings.HasSuffix(s, "M"):
		s, mult = strings.TrimSuffix(s, "M"), 1e6
	case strings.HasSuffix(s, "K"):
		s, mult = strings.TrimSuffix(s, "K"), 1e3
	}

	v := htmltable.CleanNumber(s)
	if !v.Valid {
		return models.Undefined()
	}
	return models.F(v.Value * mult)
}
