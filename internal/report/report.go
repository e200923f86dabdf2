package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/bkaradeniz/marketscan/internal/analyzer"
	"github.com/bkaradeniz/marketscan/pkg/models"
)

// ReportData is the flattened view handed to the HTML template.
type ReportData struct {
	Ticker      string
	Name        string
	GeneratedAt string

	Price        string
	MarketCap    string
	TrailingPE   string
	TargetUpside string

	EVToEBITDA    string
	EVProvenance  string
	FreeCashFlow  string
	FCFProvenance string
	Bucket        string
	Cash          string

	SMA50        string
	SMA200       string
	Oscillator14 string
	Volatility30 string
	Drawdown     string

	VerdictCode      string
	VerdictRationale string
	VerdictClass     string

	PriceChartSVG    template.HTML
	DrawdownChartSVG template.HTML

	Headlines []HeadlineRow
	Warnings  []string
}

// HeadlineRow is one news item in the report.
type HeadlineRow struct {
	Title       string
	Link        string
	PublishedAt string
}

// GenerateHTML renders the deep dive as a standalone HTML page.
func GenerateHTML(res *analyzer.DetailResult) (string, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("report template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildReportData(res)); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// GenerateText renders a plain-text summary of the deep dive.
func GenerateText(res *analyzer.DetailResult) string {
	d := buildReportData(res)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s — %s (%s)\n", d.Ticker, d.Name, d.GeneratedAt)
	fmt.Fprintf(&sb, "Price %s  MarketCap %s  P/E %s  Target upside %s%%\n",
		d.Price, d.MarketCap, d.TrailingPE, d.TargetUpside)
	fmt.Fprintf(&sb, "EV/EBITDA %s (%s)  FCF %s (%s)  bucket=%s cash=%s\n",
		d.EVToEBITDA, d.EVProvenance, d.FreeCashFlow, d.FCFProvenance, d.Bucket, d.Cash)
	fmt.Fprintf(&sb, "SMA50 %s  SMA200 %s  Osc14 %s  Vol30 %s%%  DD %s%%\n",
		d.SMA50, d.SMA200, d.Oscillator14, d.Volatility30, d.Drawdown)
	if d.VerdictCode != "" {
		fmt.Fprintf(&sb, "Verdict: %s — %s\n", d.VerdictCode, d.VerdictRationale)
	} else {
		sb.WriteString("Verdict: unavailable\n")
	}
	for _, h := range d.Headlines {
		fmt.Fprintf(&sb, "  * %s\n", h.Title)
	}
	for _, w := range d.Warnings {
		fmt.Fprintf(&sb, "  ! %s\n", w)
	}
	return sb.String()
}

func buildReportData(res *analyzer.DetailResult) ReportData {
	d := ReportData{
		Ticker:      res.Ticker,
		GeneratedAt: time.Now().Format("2006-01-02 15:04 MST"),

		EVToEBITDA:    res.Metrics.EVToEBITDA.String(),
		EVProvenance:  string(res.Metrics.EVProvenance),
		FreeCashFlow:  res.Metrics.FreeCashFlow.String(),
		FCFProvenance: string(res.Metrics.FCFProvenance),
		Bucket:        string(res.Bucket),
		Cash:          string(res.Cash),
		TargetUpside:  res.TargetUpside.String(),

		Price:        models.Undefined().String(),
		MarketCap:    models.Undefined().String(),
		TrailingPE:   models.Undefined().String(),
		SMA50:        models.Undefined().String(),
		SMA200:       models.Undefined().String(),
		Oscillator14: models.Undefined().String(),
		Volatility30: models.Undefined().String(),
		Drawdown:     models.Undefined().String(),

		Warnings: res.Warnings,
	}

	if res.Quote != nil {
		d.Name = res.Quote.Name
		d.Price = res.Quote.Price.String()
		d.MarketCap = res.Quote.MarketCap.String()
		d.TrailingPE = res.Quote.TrailingPE.String()
	}

	if res.Indicators != nil {
		sma50, sma200, osc, vol, dd := res.Indicators.Latest()
		d.SMA50 = sma50.String()
		d.SMA200 = sma200.String()
		d.Oscillator14 = osc.String()
		d.Volatility30 = vol.String()
		d.Drawdown = dd.String()

		overlays := map[string][]models.Float{
			"SMA 50":  res.Indicators.SMA50,
			"SMA 200": res.Indicators.SMA200,
		}
		cfg := DefaultChartConfig()
		cfg.Title = res.Ticker + " Price"
		d.PriceChartSVG = template.HTML(CandlestickChart(res.History, overlays, cfg))

		ddCfg := DefaultChartConfig()
		ddCfg.Height = 200
		ddCfg.MarginBottom = 25
		d.DrawdownChartSVG = template.HTML(DrawdownChart(res.Indicators.Drawdown, ddCfg))
	}

	if res.Verdict != nil {
		d.VerdictCode = string(res.Verdict.Code)
		d.VerdictRationale = res.Verdict.Rationale
		d.VerdictClass = verdictClass(res.Verdict.Code)
	}

	for _, h := range res.Headlines {
		row := HeadlineRow{Title: h.Title, Link: h.Link}
		if !h.PublishedAt.IsZero() {
			row.PublishedAt = h.PublishedAt.Format("02 Jan 2006")
		}
		d.Headlines = append(d.Headlines, row)
	}

	return d
}

// verdictClass maps a verdict to a CSS class for the badge color.
func verdictClass(code models.VerdictCode) string {
	switch code {
	case models.VerdictStrongBuyCandidate, models.VerdictValueInvestment:
		return "positive"
	case models.VerdictQualityTrend, models.VerdictSpeculativeTrend, models.VerdictNeutralWatch:
		return "neutral"
	default:
		return "negative"
	}
}
