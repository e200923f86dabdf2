package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bkaradeniz/marketscan/internal/htmltable"
	"github.com/bkaradeniz/marketscan/pkg/models"
	"github.com/bkaradeniz/marketscan/pkg/utils"
)

const defaultFundamentalsBaseURL = "https://stockanalysis.com"

// statementMarker identifies a financial statement table: its header row is
// the period row, anchored by the fiscal-year label.
const statementMarker = "Fiscal Year"

// Fundamentals scrapes per-company financial statement pages into ordered
// label/value snapshots. Line-item labels are kept verbatim, in document
// order, so the fuzzy resolver's first-match semantics are reproducible.
type Fundamentals struct {
	// BaseURL is overridable for tests.
	BaseURL string

	cache   *Cache
	limiter *Throttle
}

// NewFundamentals creates a fundamentals source.
func NewFundamentals() *Fundamentals {
	return &Fundamentals{
		BaseURL: defaultFundamentalsBaseURL,
		cache:   NewCache(time.Hour),
		limiter: NewThrottle(SourceLimit{Burst: 1, Every: time.Second}),
	}
}

// Name returns the data source name.
func (f *Fundamentals) Name() string { return "Fundamentals" }

// statementPages maps statement types to their page paths.
var statementPages = []struct {
	typ  models.StatementType
	path string
}{
	{models.StatementIncome, "financials"},
	{models.StatementBalance, "financials/balance-sheet"},
	{models.StatementCashFlow, "financials/cash-flow"},
}

// GetStatements fetches the three statement pages for a ticker. A missing or
// unparsable statement leaves its slot nil; only a failure to fetch all three
// is reported as an error. Results are cached for an hour; statement data
// changes quarterly, and the pages are the most expensive fetches we do.
func (f *Fundamentals) GetStatements(ctx context.Context, ticker string) (*models.Statements, error) {
	symbol := utils.NormalizeTicker(ticker)

	cacheKey := "fund:stmt:" + symbol
	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached.(*models.Statements), nil
	}

	st := &models.Statements{}
	var lastErr error
	found := 0

	for _, page := range statementPages {
		snap, err := f.fetchStatement(ctx, symbol, page.typ, page.path)
		if err != nil {
			lastErr = err
			continue
		}
		if snap == nil {
			continue
		}
		found++
		switch page.typ {
		case models.StatementIncome:
			st.Income = snap
		case models.StatementBalance:
			st.Balance = snap
		case models.StatementCashFlow:
			st.CashFlow = snap
		}
	}

	if found == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("fundamentals %s: %w", symbol, lastErr)
		}
		return nil, fmt.Errorf("fundamentals %s: %w", symbol, ErrNotFound)
	}

	f.cache.Set(cacheKey, st)
	return st, nil
}

// fetchStatement downloads one statement page and extracts the latest period
// into an ordered snapshot. nil, nil means the page had no statement table.
func (f *Fundamentals) fetchStatement(ctx context.Context, symbol string, typ models.StatementType, path string) (*models.StatementSnapshot, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/stocks/%s/%s/", f.BaseURL, strings.ToLower(symbol), path)
	body, _, err := doGet(ctx, url, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse statement HTML: %w", err)
	}

	tbl, ok := htmltable.Locate(doc, statementMarker)
	if !ok {
		return nil, nil
	}

	return parseStatement(tbl, typ), nil
}

// parseStatement reads the located statement table: the first data column is
// the most recent period, row labels are the first cell. Rows whose value
// cell is missing are kept with an undefined value: the resolver still needs
// the label for ordering, and absence must not become zero.
func parseStatement(tbl *goquery.Selection, typ models.StatementType) *models.StatementSnapshot {
	snap := &models.StatementSnapshot{Type: typ}

	tbl.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if i == 0 {
			// Period row; the first data column names the latest period.
			if cells.Length() > 1 {
				snap.Period = strings.TrimSpace(cells.Eq(1).Text())
			}
			return
		}
		if cells.Length() == 0 {
			return
		}
		label := strings.TrimSpace(cells.Eq(0).Text())
		if label == "" {
			return
		}
		value := models.Undefined()
		if cells.Length() > 1 {
			value = htmltable.CleanNumber(cells.Eq(1).Text())
		}
		snap.Add(label, value)
	})

	if len(snap.Items) == 0 {
		return nil
	}
	return snap
}
