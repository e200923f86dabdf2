package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bkaradeniz/marketscan/pkg/models"
	"github.com/bkaradeniz/marketscan/pkg/utils"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo fetches quotes and OHLCV history from the Yahoo Finance API.
type Yahoo struct {
	// BaseURL is overridable for tests.
	BaseURL string

	cache   *Cache
	limiter *Throttle
}

// NewYahoo creates a Yahoo Finance data source.
func NewYahoo() *Yahoo {
	return &Yahoo{
		BaseURL: defaultYahooBaseURL,
		cache:   NewCache(5 * time.Minute),
		limiter: NewThrottle(SourceLimit{Burst: 5, Every: time.Second}), // 5 req/s
	}
}

// Name returns the data source name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance API types ---

// yVal is Yahoo's {raw, fmt} value wrapper. A nil *yVal means the field was
// absent from the response, which must stay distinct from a raw value of 0.
type yVal struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

func optional(v *yVal) models.Float {
	if v == nil {
		return models.Undefined()
	}
	return models.F(v.Raw)
}

type ySummaryResponse struct {
	QuoteSummary struct {
		Result []ySummaryResult `json:"result"`
		Error  *yError          `json:"error"`
	} `json:"quoteSummary"`
}

type ySummaryResult struct {
	Price *struct {
		Symbol             string `json:"symbol"`
		ShortName          string `json:"shortName"`
		LongName           string `json:"longName"`
		RegularMarketPrice *yVal  `json:"regularMarketPrice"`
		MarketCap          *yVal  `json:"marketCap"`
	} `json:"price"`
	SummaryDetail *struct {
		TrailingPE    *yVal `json:"trailingPE"`
		ForwardPE     *yVal `json:"forwardPE"`
		DividendYield *yVal `json:"dividendYield"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics *struct {
		EnterpriseValue    *yVal `json:"enterpriseValue"`
		EnterpriseToEbitda *yVal `json:"enterpriseToEbitda"`
	} `json:"defaultKeyStatistics"`
	FinancialData *struct {
		Ebitda          *yVal `json:"ebitda"`
		FreeCashflow    *yVal `json:"freeCashflow"`
		ReturnOnEquity  *yVal `json:"returnOnEquity"`
		TargetMeanPrice *yVal `json:"targetMeanPrice"`
	} `json:"financialData"`
	AssetProfile *struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
	} `json:"assetProfile"`
}

type yChartResponse struct {
	Chart struct {
		Result []yChartResult `json:"result"`
		Error  *yError        `json:"error"`
	} `json:"chart"`
}

type yChartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []yOHLCV `json:"quote"`
	} `json:"indicators"`
}

type yOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// GetQuote returns an extended quote assembled from the quoteSummary modules.
// Absent vendor fields stay undefined in the result.
func (y *Yahoo) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	symbol := utils.ToYahooSymbol(ticker)

	cacheKey := "quote:" + symbol
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(*models.Quote), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"%s/v10/finance/quoteSummary/%s?modules=price,summaryDetail,defaultKeyStatistics,financialData,assetProfile",
		y.BaseURL, symbol)
	body, _, err := doGet(ctx, url, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp ySummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo quote: %w", err)
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo API error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("quote %s: %w", ticker, ErrNotFound)
	}

	r := resp.QuoteSummary.Result[0]
	quote := &models.Quote{Ticker: utils.FromYahooSymbol(symbol)}

	if p := r.Price; p != nil {
		quote.Name = coalesce(p.LongName, p.ShortName)
		quote.Price = optional(p.RegularMarketPrice)
		quote.MarketCap = optional(p.MarketCap)
	}
	if d := r.SummaryDetail; d != nil {
		quote.TrailingPE = optional(d.TrailingPE)
		quote.ForwardPE = optional(d.ForwardPE)
		if dy := optional(d.DividendYield); dy.Valid {
			quote.DividendYield = models.F(dy.Value * 100) // ratio to percent
		}
	}
	if k := r.DefaultKeyStatistics; k != nil {
		quote.EnterpriseValue = optional(k.EnterpriseValue)
		quote.EVToEBITDA = optional(k.EnterpriseToEbitda)
	}
	if f := r.FinancialData; f != nil {
		quote.EBITDA = optional(f.Ebitda)
		quote.FreeCashFlow = optional(f.FreeCashflow)
		quote.TargetMeanPrice = optional(f.TargetMeanPrice)
		if roe := optional(f.ReturnOnEquity); roe.Valid {
			quote.ROE = models.F(roe.Value * 100)
		}
	}
	if a := r.AssetProfile; a != nil {
		quote.Sector = a.Sector
	}

	y.cache.Set(cacheKey, quote)
	return quote, nil
}

// GetHistory returns daily OHLCV candles between from and to, oldest first.
// Bars with a missing close (holidays, partial data) are dropped.
func (y *Yahoo) GetHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.OHLCV, error) {
	symbol := utils.ToYahooSymbol(ticker)

	cacheKey := fmt.Sprintf("chart:%s:%d:%d", symbol, from.Unix(), to.Unix())
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.([]models.OHLCV), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		y.BaseURL, symbol, from.Unix(), to.Unix())
	body, _, err := doGet(ctx, url, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo chart: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo API error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("history %s: %w", ticker, ErrNotFound)
	}

	candles := parseChartCandles(resp.Chart.Result[0])
	if len(candles) == 0 {
		return nil, fmt.Errorf("history %s: %w", ticker, ErrNotFound)
	}

	y.cache.Set(cacheKey, candles)
	return candles, nil
}

// parseChartCandles converts a chart result into OHLCV bars, skipping entries
// with no close price.
func parseChartCandles(r yChartResult) []models.OHLCV {
	if len(r.Timestamp) == 0 || len(r.Indicators.Quote) == 0 {
		return nil
	}

	q := r.Indicators.Quote[0]
	candles := make([]models.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		c := models.OHLCV{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			c.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			c.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			c.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			c.Volume = *q.Volume[i]
		}
		candles = append(candles, c)
	}

	return candles
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
