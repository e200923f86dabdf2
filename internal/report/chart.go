// Package report renders an analysis deep dive as a standalone HTML page
// with inline SVG charts. Pure Go, no rendering dependencies.
package report

import (
	"fmt"
	"strings"

	"github.com/bkaradeniz/marketscan/pkg/models"
)

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	Title        string
	BgColor      string
	GridColor    string
	TextColor    string
	FontSize     int
}

// DefaultChartConfig returns sane rendering defaults.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    30,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e0e0e0",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// CandlestickChart generates an SVG candlestick chart from OHLCV data with
// optional overlay lines. Overlay slices must be aligned 1:1 with the bars;
// undefined positions leave gaps instead of plotting zero.
func CandlestickChart(bars []models.OHLCV, overlays map[string][]models.Float, cfg ChartConfig) string {
	if len(bars) == 0 {
		return emptySVG(cfg, "No data available")
	}

	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = "Price Chart"
	}

	px, py, pw, ph := cfg.plotArea()

	minPrice, maxPrice := bars[0].Low, bars[0].High
	for _, b := range bars {
		if b.Low < minPrice {
			minPrice = b.Low
		}
		if b.High > maxPrice {
			maxPrice = b.High
		}
	}
	// 5% padding keeps wicks off the frame.
	priceRange := maxPrice - minPrice
	if priceRange < 0.01 {
		priceRange = 1
	}
	minPrice -= priceRange * 0.05
	maxPrice += priceRange * 0.05
	priceRange = maxPrice - minPrice

	var maxVol int64
	for _, b := range bars {
		if b.Volume > maxVol {
			maxVol = b.Volume
		}
	}

	n := len(bars)
	candleWidth := float64(pw) / float64(n)
	if candleWidth > 12 {
		candleWidth = 12
	}
	bodyWidth := candleWidth * 0.7
	volHeight := float64(ph) * 0.2 // bottom 20% for volume

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// Price grid and labels.
	gridLines := 6
	for i := 0; i <= gridLines; i++ {
		price := minPrice + priceRange*float64(i)/float64(gridLines)
		y := py + ph - int(volHeight) - int(float64(ph-int(volHeight))*float64(i)/float64(gridLines))
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%.2f</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, price))
	}

	priceToY := func(p float64) int {
		ratio := (p - minPrice) / priceRange
		return py + ph - int(volHeight) - int(ratio*float64(ph-int(volHeight)))
	}
	barX := func(i int) float64 {
		return float64(px) + float64(i)*float64(pw)/float64(n) + float64(pw)/float64(n)/2
	}

	// Volume bars.
	if maxVol > 0 {
		for i, b := range bars {
			vRatio := float64(b.Volume) / float64(maxVol)
			vh := vRatio * volHeight
			color := "#c8e6c9"
			if b.Close < b.Open {
				color = "#ffcdd2"
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" opacity="0.6"/>`,
				barX(i)-bodyWidth/2, float64(py+ph)-vh, bodyWidth, vh, color))
		}
	}

	// Candles.
	for i, b := range bars {
		cx := barX(i)
		color := "#26a69a"
		if b.Close < b.Open {
			color = "#ef5350"
		}

		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="%s" stroke-width="1"/>`,
			cx, priceToY(b.High), cx, priceToY(b.Low), color))

		openY := priceToY(b.Open)
		closeY := priceToY(b.Close)
		bodyTop, bodyH := openY, closeY-openY
		if bodyH < 0 {
			bodyTop, bodyH = closeY, -bodyH
		}
		if bodyH < 1 {
			bodyH = 1
		}
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%d" width="%.1f" height="%d" fill="%s"/>`,
			cx-bodyWidth/2, bodyTop, bodyWidth, bodyH, color))
	}

	// Overlay lines with gaps at undefined positions.
	colors := []string{"#ff9800", "#2196f3", "#9c27b0", "#4caf50"}
	colorIdx := 0
	for _, name := range sortedOverlayNames(overlays) {
		values := overlays[name]
		if len(values) != n {
			continue
		}
		color := colors[colorIdx%len(colors)]
		colorIdx++

		var pathParts []string
		pen := "M"
		for i, v := range values {
			if !v.Valid {
				pen = "M" // lift the pen over the undefined gap
				continue
			}
			pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%d", pen, barX(i), priceToY(v.Value)))
			pen = "L"
		}
		if len(pathParts) > 1 {
			sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="1.5" opacity="0.8"/>`,
				strings.Join(pathParts, " "), color))
			ly := py + 15 + colorIdx*16
			sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
				px+10, ly, px+30, ly, color))
			sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
				px+35, ly+4, cfg.TextColor, escapeXML(name)))
		}
	}

	// X-axis date labels.
	labelInterval := n / 6
	if labelInterval < 1 {
		labelInterval = 1
	}
	for i := 0; i < n; i += labelInterval {
		cx := barX(i)
		label := bars[i].Timestamp.Format("02 Jan")
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle" transform="rotate(-45,%.1f,%d)">%s</text>`,
			cx, py+ph+15, cfg.FontSize-1, cfg.TextColor, cx, py+ph+15, label))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// DrawdownChart renders the drawdown series as a filled area below zero.
func DrawdownChart(drawdown []models.Float, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
		cfg.Height = 200
		cfg.MarginBottom = 25
	}
	if cfg.Title == "" {
		cfg.Title = "Drawdown"
	}

	n := len(drawdown)
	if n == 0 {
		return emptySVG(cfg, "No data available")
	}

	minDD := 0.0
	for _, v := range drawdown {
		if v.Valid && v.Value < minDD {
			minDD = v.Value
		}
	}
	if minDD > -1 {
		minDD = -1 // keep a visible scale for flat series
	}

	px, py, pw, ph := cfg.plotArea()
	ddToY := func(v float64) int {
		return py + int(v/minDD*float64(ph))
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// Zero line and floor label.
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s"/>`,
		px, py, px+pw, py, cfg.GridColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">0%%</text>`,
		px-5, py+4, cfg.FontSize, cfg.TextColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%.1f%%</text>`,
		px-5, py+ph+4, cfg.FontSize, cfg.TextColor, minDD))

	var pathParts []string
	pen := "M"
	for i, v := range drawdown {
		if !v.Valid {
			pen = "M"
			continue
		}
		x := float64(px) + float64(i)*float64(pw)/float64(n)
		pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%d", pen, x, ddToY(v.Value)))
		pen = "L"
	}
	if len(pathParts) > 1 {
		sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="#ef5350" stroke-width="1.5"/>`,
			strings.Join(pathParts, " ")))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func sortedOverlayNames(overlays map[string][]models.Float) []string {
	names := make([]string, 0, len(overlays))
	for name := range overlays {
		names = append(names, name)
	}
	// Insertion sort; overlay counts are tiny.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	return fmt.Sprintf(`%s<rect x="0" y="0" width="%d" height="%d" fill="%s"/><text x="%d" y="%d" font-size="13" fill="%s" text-anchor="middle">%s</text></svg>`,
		svgHeader(cfg), cfg.Width, cfg.Height, cfg.BgColor, cfg.Width/2, cfg.Height/2, cfg.TextColor, escapeXML(msg))
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}
