package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bkaradeniz/marketscan/internal/datasource"
	"github.com/bkaradeniz/marketscan/pkg/models"
)

const quoteJSON = `{"quoteSummary":{"result":[{
  "price":{"symbol":"AAPL","shortName":"Apple Inc.","regularMarketPrice":{"raw":232.5},"marketCap":{"raw":3450000000000}},
  "summaryDetail":{"trailingPE":{"raw":34.12}},
  "defaultKeyStatistics":{"enterpriseValue":{"raw":3500000000000},"enterpriseToEbitda":{"raw":26.4}},
  "financialData":{"ebitda":{"raw":132000000000},"freeCashflow":{"raw":99000000000},"targetMeanPrice":{"raw":250.0}},
  "assetProfile":{"sector":"Technology","industry":"Consumer Electronics"}
}],"error":null}}`

const newsRSS = `<?xml version="1.0"?><rss version="2.0"><channel>
<title>Headlines</title>
<item><title>Apple beats estimates</title><link>https://example.com/a</link><pubDate>Mon, 25 Aug 2025 12:00:00 GMT</pubDate></item>
<item><title>New product event set</title><link>https://example.com/b</link><pubDate>Sun, 24 Aug 2025 09:00:00 GMT</pubDate></item>
</channel></rss>`

const balancePage = `<html><body><table>
<tr><th>Fiscal Year</th><th>FY 2025</th></tr>
<tr><td>Cash &amp; Equivalents</td><td>100</td></tr>
<tr><td>Total Debt</td><td>200</td></tr>
</table></body></html>`

const incomePage = `<html><body><table>
<tr><th>Fiscal Year</th><th>FY 2025</th></tr>
<tr><td>EBITDA</td><td>110</td></tr>
</table></body></html>`

const cashFlowPage = `<html><body><table>
<tr><th>Fiscal Year</th><th>FY 2025</th></tr>
<tr><td>Operating Cash Flow</td><td>118</td></tr>
<tr><td>Capital Expenditures</td><td>-9</td></tr>
</table></body></html>`

// chartJSON builds a v8 chart payload of n daily bars with closes 1..n.
func chartJSON(n int) string {
	ts := make([]string, n)
	closes := make([]string, n)
	for i := 0; i < n; i++ {
		ts[i] = strconv.FormatInt(1600000000+int64(i)*86400, 10)
		closes[i] = strconv.Itoa(i + 1)
	}
	series := strings.Join(closes, ",")
	return fmt.Sprintf(`{"chart":{"result":[{
	  "timestamp":[%s],
	  "indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}
	}],"error":null}}`,
		strings.Join(ts, ","), series, series, series, series, series)
}

func screenerPage(rows string) string {
	return `<html><body><table>
<tr><th>No.</th><th>Ticker</th><th>Company</th><th>Sector</th><th>Industry</th><th>Country</th><th>Market Cap</th><th>P/E</th><th>Price</th><th>Change</th><th>Volume</th></tr>
` + rows + `
</table></body></html>`
}

// detailServer serves every upstream the engine talks to from one mux.
func detailServer(t *testing.T, withStatements, withHistory bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasPrefix(path, "/v10/finance/quoteSummary/"):
			fmt.Fprint(w, quoteJSON)
		case strings.HasPrefix(path, "/v8/finance/chart/"):
			if !withHistory {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, chartJSON(250))
		case strings.HasSuffix(path, "/balance-sheet/"):
			serveStatement(w, r, withStatements, balancePage)
		case strings.HasSuffix(path, "/cash-flow/"):
			serveStatement(w, r, withStatements, cashFlowPage)
		case strings.HasSuffix(path, "/financials/"):
			serveStatement(w, r, withStatements, incomePage)
		case strings.HasPrefix(path, "/rss/"):
			fmt.Fprint(w, newsRSS)
		default:
			http.NotFound(w, r)
		}
	}))
}

func serveStatement(w http.ResponseWriter, r *http.Request, enabled bool, page string) {
	if !enabled {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, page)
}

func newTestEngine(url string) *Engine {
	e := NewEngine()
	e.screener.BaseURL = url
	e.index.BaseURL = url
	e.yahoo.BaseURL = url
	e.fundamentals.BaseURL = url
	e.news.BaseURL = url
	return e
}

func TestScanAppliesFilters(t *testing.T) {
	page := screenerPage(`
<tr><td>1</td><td>AAPL</td><td>Apple Inc.</td><td>Technology</td><td>Consumer Electronics</td><td>USA</td><td>3450.00B</td><td>34.12</td><td>232.50</td><td>1.2%</td><td>51,234,000</td></tr>
<tr><td>2</td><td>XOM</td><td>Exxon Mobil</td><td>Energy</td><td>Oil &amp; Gas</td><td>USA</td><td>480.00B</td><td>13.90</td><td>118.20</td><td>-0.4%</td><td>14,800,000</td></tr>`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("r") == "1" {
			fmt.Fprint(w, page)
			return
		}
		fmt.Fprint(w, "<html><body><p>no results</p></body></html>")
	}))
	defer srv.Close()

	e := newTestEngine(srv.URL)
	res, err := e.Scan(context.Background(), ScanRequest{
		Pages:  3,
		Sector: "Energy",
		Delay:  time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Truncated {
		t.Errorf("run should end cleanly, got truncation: %v", res.Err)
	}
	if res.PagesFetched != 1 {
		t.Errorf("PagesFetched = %d, want 1", res.PagesFetched)
	}
	if len(res.Instruments) != 1 || res.Instruments[0].Ticker != "XOM" {
		t.Errorf("sector filter result = %+v", res.Instruments)
	}
}

func TestScanReportsProgress(t *testing.T) {
	page := screenerPage(`
<tr><td>1</td><td>AAPL</td><td>Apple Inc.</td><td>Technology</td><td>Consumer Electronics</td><td>USA</td><td>3450.00B</td><td>34.12</td><td>232.50</td><td>1.2%</td><td>51,234,000</td></tr>`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	var calls []string
	e := newTestEngine(srv.URL)
	_, err := e.Scan(context.Background(), ScanRequest{
		Pages: 2,
		Delay: time.Millisecond,
		Progress: func(done, total int) {
			calls = append(calls, fmt.Sprintf("%d/%d", done, total))
		},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(calls) != 2 || calls[0] != "1/2" || calls[1] != "2/2" {
		t.Errorf("progress calls = %v", calls)
	}
}

func TestDetailFullAnalysis(t *testing.T) {
	srv := detailServer(t, true, true)
	defer srv.Close()

	e := newTestEngine(srv.URL)
	res, err := e.Detail(context.Background(), "aapl", "1y")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}

	if res.Ticker != "AAPL" {
		t.Errorf("ticker = %q", res.Ticker)
	}
	if res.Quote == nil || res.Quote.Name != "Apple Inc." {
		t.Fatalf("quote = %+v", res.Quote)
	}
	if res.Indicators == nil || res.Indicators.Len() != 250 {
		t.Fatalf("indicators missing or misaligned: %+v", res.Indicators)
	}
	if len(res.Headlines) != 2 {
		t.Errorf("headlines = %d, want 2", len(res.Headlines))
	}

	// The vendor ratio of 26.4 wins the fallback chain and lands expensive.
	if res.Metrics.EVProvenance != models.ProvenanceDirect {
		t.Errorf("EV provenance = %q, want direct", res.Metrics.EVProvenance)
	}
	if res.Bucket != models.BucketExpensive {
		t.Errorf("bucket = %q, want expensive", res.Bucket)
	}
	if res.Cash != models.CashPositive {
		t.Errorf("cash = %q, want positive", res.Cash)
	}

	// Quote price 232.5 sits well above the 200-day average of the rising
	// fixture series, so the trend reads up and the table lands on
	// momentum-overvalued.
	if !res.TrendUp {
		t.Error("trend should be up")
	}
	if res.Verdict == nil || res.Verdict.Code != models.VerdictMomentumOvervalued {
		t.Errorf("verdict = %+v, want momentum-overvalued", res.Verdict)
	}

	up := res.TargetUpside
	if !up.Valid || up.Value < 7.5 || up.Value > 7.6 {
		t.Errorf("target upside = %v, want ~7.53", up)
	}
}

func TestDetailWithoutHistorySkipsVerdict(t *testing.T) {
	srv := detailServer(t, true, false)
	defer srv.Close()

	e := newTestEngine(srv.URL)
	res, err := e.Detail(context.Background(), "AAPL", "1y")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if res.Indicators != nil || res.Verdict != nil {
		t.Errorf("no history must mean no indicators and no verdict: %+v", res)
	}
	if len(res.Warnings) == 0 {
		t.Error("the failed history fetch should be recorded as a warning")
	}
	// Fundamentals still classify.
	if res.Bucket != models.BucketExpensive {
		t.Errorf("bucket = %q, want expensive", res.Bucket)
	}
}

func TestDetailAllSourcesDownFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	e := newTestEngine(srv.URL)
	if _, err := e.Detail(context.Background(), "AAPL", "1y"); err == nil {
		t.Fatal("expected error when quote and history both fail")
	}
}

func TestDetailRejectsEmptyTicker(t *testing.T) {
	e := NewEngine()
	if _, err := e.Detail(context.Background(), "  ", "1y"); err == nil {
		t.Fatal("expected error for empty ticker")
	}
}

func TestDeriveMetricsMemoized(t *testing.T) {
	e := newTestEngine("http://unused.invalid")

	quote := &models.Quote{EVToEBITDA: models.F(26.4)}
	first := e.deriveMetrics("AAPL", quote, nil)
	if first.EVProvenance != models.ProvenanceDirect {
		t.Fatalf("provenance = %q", first.EVProvenance)
	}

	// A second derivation with different inputs must come from the cache.
	second := e.deriveMetrics("AAPL", &models.Quote{EVToEBITDA: models.F(5)}, nil)
	if second.EVToEBITDA.Value != 26.4 {
		t.Errorf("expected memoized metrics, got %+v", second)
	}
}

func TestDeriveMetricsDoesNotMemoizeFailures(t *testing.T) {
	e := newTestEngine("http://unused.invalid")

	// Nothing to derive from: upstream fetches failed, so quote and
	// statements are both absent.
	first := e.deriveMetrics("AAPL", nil, nil)
	if first.EVProvenance != models.ProvenanceUnavailable {
		t.Fatalf("provenance = %q", first.EVProvenance)
	}

	// Once the sources recover, the next derivation must see the real
	// inputs instead of a pinned failure.
	second := e.deriveMetrics("AAPL", &models.Quote{EVToEBITDA: models.F(26.4)}, nil)
	if second.EVProvenance != models.ProvenanceDirect || second.EVToEBITDA.Value != 26.4 {
		t.Errorf("expected fresh derivation after recovery, got %+v", second)
	}
}

func TestUniverseFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	e := newTestEngine(srv.URL)
	constituents, err := e.Universe(context.Background())
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if len(constituents) == 0 {
		t.Error("fallback constituent list should not be empty")
	}
	if got := datasource.FallbackConstituents[0].Ticker; constituents[0].Ticker != got {
		t.Errorf("expected fallback list, got %+v", constituents[0])
	}
}
