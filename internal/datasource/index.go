package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bkaradeniz/marketscan/internal/htmltable"
	"github.com/bkaradeniz/marketscan/pkg/models"
	"github.com/bkaradeniz/marketscan/pkg/utils"
)

const (
	defaultIndexBaseURL  = "https://en.wikipedia.org"
	sp500ConstituentPath = "/wiki/List_of_S%26P_500_companies"
)

// indexMarkers identify the constituents table among the article's many
// tables (infoboxes, navboxes, the selected-changes table).
var indexMarkers = []string{"Symbol", "Security"}

var indexColumns = []string{"Symbol", "Security", "GICS Sector", "GICS Sub-Industry"}

// FallbackConstituents is the emergency list used when the constituents page
// cannot be fetched or parsed. Deliberately short: it keeps a scan usable,
// not representative.
var FallbackConstituents = []models.Instrument{
	{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Information Technology"},
	{Ticker: "MSFT", Name: "Microsoft", Sector: "Information Technology"},
	{Ticker: "GOOGL", Name: "Alphabet Inc. (Class A)", Sector: "Communication Services"},
	{Ticker: "AMZN", Name: "Amazon", Sector: "Consumer Discretionary"},
	{Ticker: "NVDA", Name: "Nvidia", Sector: "Information Technology"},
	{Ticker: "TSLA", Name: "Tesla, Inc.", Sector: "Consumer Discretionary"},
}

// Index fetches index constituent lists.
type Index struct {
	// BaseURL is overridable for tests.
	BaseURL string

	cache   *Cache
	limiter *Throttle
}

// NewIndex creates an index constituents source. Constituents change rarely;
// the long TTL spares the upstream page.
func NewIndex() *Index {
	return &Index{
		BaseURL: defaultIndexBaseURL,
		cache:   NewCache(24 * time.Hour),
		limiter: NewThrottle(SourceLimit{Burst: 1, Every: time.Second}),
	}
}

// Name returns the data source name.
func (x *Index) Name() string { return "Index Constituents" }

// GetSP500 returns the current S&P 500 constituents. Tickers are converted to
// Yahoo notation (BRK.B -> BRK-B) so downstream fetches work unchanged.
// Callers are expected to fall back to FallbackConstituents on error.
func (x *Index) GetSP500(ctx context.Context) ([]models.Instrument, error) {
	cacheKey := "index:sp500"
	if cached, ok := x.cache.Get(cacheKey); ok {
		return cached.([]models.Instrument), nil
	}

	if err := x.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, _, err := doGet(ctx, x.BaseURL+sp500ConstituentPath, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return nil, fmt.Errorf("constituents page: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse constituents HTML: %w", err)
	}

	tbl, ok := htmltable.Locate(doc, indexMarkers...)
	if !ok {
		return nil, fmt.Errorf("constituents table: %w", ErrNotFound)
	}

	var list []models.Instrument
	for _, rec := range htmltable.ParseRecords(tbl, indexColumns) {
		ticker := utils.ToYahooSymbol(rec["Symbol"])
		if ticker == "" {
			continue
		}
		list = append(list, models.Instrument{
			Ticker:   ticker,
			Name:     rec["Security"],
			Sector:   rec["GICS Sector"],
			Industry: rec["GICS Sub-Industry"],
		})
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("constituents table: %w", ErrNotFound)
	}

	x.cache.Set(cacheKey, list)
	return list, nil
}
