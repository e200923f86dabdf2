// Package analyzer orchestrates the data sources and analysis engines behind
// the two top-level operations: a paginated market scan and a per-instrument
// deep dive.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bkaradeniz/marketscan/internal/analysis/fundamental"
	"github.com/bkaradeniz/marketscan/internal/analysis/technical"
	"github.com/bkaradeniz/marketscan/internal/analysis/verdict"
	"github.com/bkaradeniz/marketscan/internal/datasource"
	"github.com/bkaradeniz/marketscan/internal/scan"
	"github.com/bkaradeniz/marketscan/pkg/models"
	"github.com/bkaradeniz/marketscan/pkg/utils"
)

// MetricsTTL bounds how long derived metrics are memoized per ticker.
const MetricsTTL = 30 * time.Minute

// DefaultScanDelay is the politeness pause between screener page fetches.
const DefaultScanDelay = 500 * time.Millisecond

// Engine wires the data sources to the analysis packages. The metrics cache
// is the only mutable shared state; it is safe for concurrent use.
type Engine struct {
	screener     *datasource.Screener
	index        *datasource.Index
	yahoo        *datasource.Yahoo
	fundamentals *datasource.Fundamentals
	news         *datasource.News

	metrics *datasource.Cache
}

// NewEngine creates an engine with all default sources.
func NewEngine() *Engine {
	return &Engine{
		screener:     datasource.NewScreener(),
		index:        datasource.NewIndex(),
		yahoo:        datasource.NewYahoo(),
		fundamentals: datasource.NewFundamentals(),
		news:         datasource.NewNews(),
		metrics:      datasource.NewCache(MetricsTTL),
	}
}

// WithMetricsTTL swaps the metric memo cache for one with the given lifetime.
// Call before first use; typically fed from configuration.
func (e *Engine) WithMetricsTTL(ttl time.Duration) *Engine {
	e.metrics = datasource.NewCache(ttl)
	return e
}

// Screener returns the screener grid source for direct access.
func (e *Engine) Screener() *datasource.Screener { return e.screener }

// Yahoo returns the quote and history source for direct access.
func (e *Engine) Yahoo() *datasource.Yahoo { return e.yahoo }

// Fundamentals returns the statement page source for direct access.
func (e *Engine) Fundamentals() *datasource.Fundamentals { return e.fundamentals }

// News returns the headline source for direct access.
func (e *Engine) News() *datasource.News { return e.news }

// ScanRequest describes one market scan.
type ScanRequest struct {
	Exchange string   `json:"exchange,omitempty"`
	Signals  []string `json:"signals,omitempty"` // raw screener filter codes
	Pages    int      `json:"pages,omitempty"`

	// Post-scan filters.
	Sector   string  `json:"sector,omitempty"`
	MaxPE    float64 `json:"max_pe,omitempty"`
	MinPrice float64 `json:"min_price,omitempty"`

	// Delay overrides the politeness pause between pages when positive.
	Delay time.Duration `json:"-"`

	// Progress receives cumulative page counts as the scan advances.
	Progress func(done, total int) `json:"-"`
}

// Scan pages through the screener grid, deduplicates the rows and applies the
// post-scan filters. A truncated run is not an error: the result carries what
// was gathered and why it stopped.
func (e *Engine) Scan(ctx context.Context, req ScanRequest) (*scan.Result, error) {
	pages := req.Pages
	if pages <= 0 {
		pages = 1
	}
	delay := req.Delay
	if delay <= 0 {
		delay = DefaultScanDelay
	}

	q := datasource.Query{Exchange: req.Exchange, Filters: req.Signals}
	p := &scan.Paginator{
		Fetcher: scan.PageFetcherFunc(func(ctx context.Context, offset int) ([]models.Instrument, error) {
			return e.screener.FetchPage(ctx, q, offset)
		}),
		PageSize: datasource.ScreenerPageSize,
		MaxPages: pages,
		Delay:    delay,
		Progress: req.Progress,
	}

	res := p.Run(ctx)
	if res.Truncated {
		log.Printf("analyzer: scan truncated after %d pages: %v", res.PagesFetched, res.Err)
	}

	res.Instruments = scan.Filters{
		Sector:   req.Sector,
		MaxPE:    req.MaxPE,
		MinPrice: req.MinPrice,
	}.Apply(res.Instruments)
	return res, nil
}

// Universe returns the S&P 500 constituent list, falling back to a small
// static set when the source is unreachable.
func (e *Engine) Universe(ctx context.Context) ([]models.Instrument, error) {
	constituents, err := e.index.GetSP500(ctx)
	if err != nil {
		log.Printf("analyzer: constituent fetch failed, using fallback list: %v", err)
		return datasource.FallbackConstituents, nil
	}
	return constituents, nil
}

// DetailResult is the full per-instrument analysis.
type DetailResult struct {
	Ticker     string                `json:"ticker"`
	Quote      *models.Quote         `json:"quote,omitempty"`
	Statements *models.Statements    `json:"-"`
	History    []models.OHLCV        `json:"history,omitempty"`
	Indicators *models.IndicatorSet  `json:"indicators,omitempty"`
	Metrics    models.DerivedMetrics `json:"metrics"`
	Headlines  []models.Headline     `json:"headlines,omitempty"`

	TrendUp      bool                   `json:"trend_up"`
	Bucket       models.ValuationBucket `json:"bucket"`
	Cash         models.CashFlowState   `json:"cash"`
	TargetUpside models.Float           `json:"target_upside"`

	// Verdict is nil when price history was unavailable; classifying without
	// a trend reading would be noise.
	Verdict *models.Verdict `json:"verdict,omitempty"`

	// Warnings lists the sources that failed without sinking the analysis.
	Warnings []string `json:"warnings,omitempty"`
}

// Detail runs the per-instrument deep dive: quote, statements, price history
// and headlines are fetched concurrently, then the derivation, indicator and
// verdict engines run over whatever arrived. Missing fundamentals degrade to
// an unknown valuation bucket; only losing both the quote and the history is
// fatal.
func (e *Engine) Detail(ctx context.Context, ticker, window string) (*DetailResult, error) {
	symbol := utils.NormalizeTicker(ticker)
	if symbol == "" {
		return nil, fmt.Errorf("analyzer: empty ticker")
	}

	to := time.Now()
	from, err := utils.ParseWindow(window, to)
	if err != nil {
		return nil, err
	}

	res := &DetailResult{Ticker: symbol}

	var mu sync.Mutex
	warn := func(source string, err error) {
		mu.Lock()
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", source, err))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		quote, err := e.yahoo.GetQuote(gctx, symbol)
		if err != nil {
			warn("quote", err)
			return nil
		}
		mu.Lock()
		res.Quote = quote
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		stmts, err := e.fundamentals.GetStatements(gctx, symbol)
		if err != nil {
			warn("statements", err)
			return nil
		}
		mu.Lock()
		res.Statements = stmts
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		history, err := e.yahoo.GetHistory(gctx, symbol, from, to)
		if err != nil {
			warn("history", err)
			return nil
		}
		mu.Lock()
		res.History = history
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		headlines, err := e.news.GetHeadlines(gctx, symbol, 10)
		if err != nil {
			warn("news", err)
			return nil
		}
		mu.Lock()
		res.Headlines = headlines
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if res.Quote == nil && len(res.History) == 0 {
		return nil, fmt.Errorf("analyzer: no data for %s: %s", symbol, errors.Join(warningErrs(res.Warnings)...))
	}

	res.Metrics = e.deriveMetrics(symbol, res.Quote, res.Statements)
	res.Bucket = verdict.BucketOf(res.Metrics.EVToEBITDA)
	res.Cash = verdict.CashStateOf(res.Metrics.FreeCashFlow)
	if res.Quote != nil {
		res.TargetUpside = res.Quote.TargetUpside()
	} else {
		res.TargetUpside = models.Undefined()
	}

	if len(res.History) > 0 {
		set, err := technical.Compute(res.History)
		if err != nil {
			return nil, err
		}
		res.Indicators = set

		_, sma200, _, _, _ := set.Latest()
		price := lastClose(res.History)
		if res.Quote != nil && res.Quote.Price.Valid {
			price = res.Quote.Price.Value
		}
		res.TrendUp = sma200.Valid && price > sma200.Value
		v := verdict.Classify(res.TrendUp, res.Bucket, res.Cash)
		res.Verdict = &v
	}

	return res, nil
}

// deriveMetrics memoizes the fallback-chain derivation per ticker. Concurrent
// duplicate derivations for the same key are wasteful but not unsafe; the
// first write wins for readers that follow.
func (e *Engine) deriveMetrics(symbol string, quote *models.Quote, stmts *models.Statements) models.DerivedMetrics {
	key := "metrics:" + symbol
	if cached, ok := e.metrics.Get(key); ok {
		return cached.(models.DerivedMetrics)
	}

	in := fundamental.MetricInputs{Statements: stmts}
	if quote != nil {
		in.DirectEVToEBITDA = quote.EVToEBITDA
		in.EnterpriseValue = quote.EnterpriseValue
		in.EBITDA = quote.EBITDA
		in.MarketCap = quote.MarketCap
		in.DirectFreeCashFlow = quote.FreeCashFlow
	}

	m := fundamental.DeriveMetrics(in)
	// A fully unavailable result usually means the upstream fetches failed
	// rather than the data not existing. Memoizing it would pin the failure
	// for the whole TTL, so only real derivations are cached.
	if m.EVProvenance != models.ProvenanceUnavailable || m.FCFProvenance != models.ProvenanceUnavailable {
		e.metrics.Set(key, m)
	}
	return m
}

func lastClose(history []models.OHLCV) float64 {
	if len(history) == 0 {
		return 0
	}
	return history[len(history)-1].Close
}

func warningErrs(warnings []string) []error {
	out := make([]error, len(warnings))
	for i, w := range warnings {
		out[i] = errors.New(w)
	}
	return out
}
