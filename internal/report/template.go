package report

// reportTemplate is the standalone HTML page. The SVG charts are injected
// pre-rendered; everything else goes through html/template escaping.
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Ticker}} — marketscan report</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 900px; color: #222; }
  h1 { margin-bottom: 0; }
  .sub { color: #777; margin-top: 0.2rem; }
  table { border-collapse: collapse; margin: 1rem 0; }
  th, td { text-align: left; padding: 0.35rem 1rem 0.35rem 0; }
  th { color: #777; font-weight: normal; }
  .badge { display: inline-block; padding: 0.3rem 0.8rem; border-radius: 4px; color: #fff; font-weight: bold; }
  .badge.positive { background: #2e7d32; }
  .badge.neutral  { background: #616161; }
  .badge.negative { background: #c62828; }
  .rationale { color: #555; margin-top: 0.4rem; }
  .warning { color: #b26a00; }
  ul.headlines { padding-left: 1.2rem; }
  footer { color: #aaa; font-size: 0.8rem; margin-top: 2rem; }
</style>
</head>
<body>
<h1>{{.Ticker}}{{if .Name}} — {{.Name}}{{end}}</h1>
<p class="sub">Generated {{.GeneratedAt}}</p>

{{if .VerdictCode}}
<p><span class="badge {{.VerdictClass}}">{{.VerdictCode}}</span></p>
<p class="rationale">{{.VerdictRationale}}</p>
{{else}}
<p><span class="badge neutral">no verdict</span></p>
<p class="rationale">Price history was unavailable; no trend reading.</p>
{{end}}

<h2>Snapshot</h2>
<table>
<tr><th>Price</th><td>{{.Price}}</td><th>Market cap</th><td>{{.MarketCap}}</td></tr>
<tr><th>Trailing P/E</th><td>{{.TrailingPE}}</td><th>Analyst target upside</th><td>{{.TargetUpside}}%</td></tr>
</table>

<h2>Valuation</h2>
<table>
<tr><th>EV/EBITDA</th><td>{{.EVToEBITDA}}</td><th>source</th><td>{{.EVProvenance}}</td></tr>
<tr><th>Free cash flow</th><td>{{.FreeCashFlow}}</td><th>source</th><td>{{.FCFProvenance}}</td></tr>
<tr><th>Bucket</th><td>{{.Bucket}}</td><th>Cash flow</th><td>{{.Cash}}</td></tr>
</table>

<h2>Technicals</h2>
<table>
<tr><th>SMA 50</th><td>{{.SMA50}}</td><th>SMA 200</th><td>{{.SMA200}}</td></tr>
<tr><th>Oscillator (14)</th><td>{{.Oscillator14}}</td><th>Volatility (30, ann.)</th><td>{{.Volatility30}}%</td></tr>
<tr><th>Drawdown</th><td>{{.Drawdown}}%</td><td></td><td></td></tr>
</table>

{{if .PriceChartSVG}}
<h2>Charts</h2>
{{.PriceChartSVG}}
{{.DrawdownChartSVG}}
{{end}}

{{if .Headlines}}
<h2>Headlines</h2>
<ul class="headlines">
{{range .Headlines}}<li><a href="{{.Link}}">{{.Title}}</a>{{if .PublishedAt}} <small>({{.PublishedAt}})</small>{{end}}</li>
{{end}}</ul>
{{end}}

{{if .Warnings}}
<h2>Warnings</h2>
{{range .Warnings}}<p class="warning">{{.}}</p>
{{end}}
{{end}}

<footer>marketscan — descriptive classification, not investment advice.</footer>
</body>
</html>
`
