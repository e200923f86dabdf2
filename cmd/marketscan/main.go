// marketscan is a market screener and valuation scanner.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bkaradeniz/marketscan/api"
	"github.com/bkaradeniz/marketscan/internal/analyzer"
	"github.com/bkaradeniz/marketscan/internal/config"
	"github.com/bkaradeniz/marketscan/internal/report"
	"github.com/bkaradeniz/marketscan/internal/scan"
	"github.com/bkaradeniz/marketscan/pkg/models"
	"github.com/bkaradeniz/marketscan/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "marketscan",
	Short: "marketscan — stock screener scans and valuation verdicts",
	Long: `marketscan pages through a stock screener, aggregates the results into a
deduplicated instrument set, and runs a per-instrument deep dive combining
statement-derived valuation metrics, technical indicators and a rule-based
verdict.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(universeCmd)
	rootCmd.AddCommand(serveCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("marketscan %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Scan Command ---

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a paginated screener scan",
	Long: `Page through the screener results grid, deduplicate the rows and print
the aggregate as a table.

Examples:
  marketscan scan --pages 5
  marketscan scan --exchange nasd --signal cap_largeover
  marketscan scan --sector Energy --max-pe 15`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pages, _ := cmd.Flags().GetInt("pages")
		exchange, _ := cmd.Flags().GetString("exchange")
		signals, _ := cmd.Flags().GetStringSlice("signal")
		sector, _ := cmd.Flags().GetString("sector")
		maxPE, _ := cmd.Flags().GetFloat64("max-pe")
		minPrice, _ := cmd.Flags().GetFloat64("min-price")

		if pages <= 0 {
			pages = cfg.Scan.Pages
		}
		if exchange == "" {
			exchange = cfg.Scan.Exchange
		}

		engine := newEngine()
		res, err := engine.Scan(cmd.Context(), analyzer.ScanRequest{
			Exchange: exchange,
			Signals:  signals,
			Pages:    pages,
			Sector:   sector,
			MaxPE:    maxPE,
			MinPrice: minPrice,
			Delay:    time.Duration(cfg.Scan.DelayMs) * time.Millisecond,
			Progress: func(done, total int) {
				fmt.Printf("\r🔍 Scanning... page %d/%d", done, total)
			},
		})
		if err != nil {
			return err
		}
		fmt.Println()

		printInstruments(res.Instruments)

		fmt.Printf("\n%d instruments across %d pages", len(res.Instruments), res.PagesFetched)
		if sectors := scan.Sectors(res.Instruments); len(sectors) > 0 {
			fmt.Printf(" — sectors: %s", strings.Join(sectors, ", "))
		}
		fmt.Println()
		if res.Truncated {
			fmt.Printf("⚠️  Scan truncated early: %v\n", res.Err)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().Int("pages", 0, "number of pages to fetch (default from config)")
	scanCmd.Flags().String("exchange", "", "exchange filter code, e.g. nasd, nyse")
	scanCmd.Flags().StringSlice("signal", nil, "raw screener filter codes")
	scanCmd.Flags().String("sector", "", "keep only this sector")
	scanCmd.Flags().Float64("max-pe", 0, "drop rows at or above this P/E (0 disables)")
	scanCmd.Flags().Float64("min-price", 0, "drop rows below this price (0 disables)")
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Run the full deep dive on one instrument",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		window, _ := cmd.Flags().GetString("window")
		if window == "" {
			window = cfg.Analysis.HistoryWindow
		}

		fmt.Printf("🔍 Analyzing %s (window %s)\n\n", ticker, window)

		engine := newEngine()
		res, err := engine.Detail(cmd.Context(), ticker, window)
		if err != nil {
			return err
		}

		printDetail(res)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("window", "", `history window, e.g. "1y", "6mo", "90d"`)
}

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report [ticker]",
	Short: "Generate an HTML research report for one instrument",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		window, _ := cmd.Flags().GetString("window")
		out, _ := cmd.Flags().GetString("out")
		if window == "" {
			window = cfg.Analysis.HistoryWindow
		}
		if out == "" {
			out = strings.ToLower(ticker) + "-report.html"
		}

		engine := newEngine()
		res, err := engine.Detail(cmd.Context(), ticker, window)
		if err != nil {
			return err
		}

		html, err := report.GenerateHTML(res)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("📄 Report written to %s\n", out)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("window", "", `history window, e.g. "1y", "6mo", "90d"`)
	reportCmd.Flags().String("out", "", "output file (default <ticker>-report.html)")
}

// --- Universe Command ---

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "List S&P 500 constituents",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := newEngine()
		constituents, err := engine.Universe(cmd.Context())
		if err != nil {
			return err
		}
		printInstruments(constituents)
		fmt.Printf("\n%d constituents\n", len(constituents))
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting marketscan API server on %s\n", addr)
		return api.NewServer(cfg).ListenAndServe(addr)
	},
}

// --- Output helpers ---

func newEngine() *analyzer.Engine {
	return analyzer.NewEngine().WithMetricsTTL(time.Duration(cfg.Analysis.MetricsCacheTTL) * time.Second)
}

func printInstruments(instruments []models.Instrument) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tCOMPANY\tSECTOR\tPRICE\tP/E\tCHANGE")
	for _, inst := range instruments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			inst.Ticker, inst.Name, inst.Sector,
			inst.Price.String(), inst.PE.String(), inst.ChangePct.String())
	}
	w.Flush()
}

func printDetail(res *analyzer.DetailResult) {
	if res.Quote != nil {
		fmt.Printf("%s — %s\n", res.Quote.Ticker, res.Quote.Name)
		fmt.Printf("  Price:          %s\n", res.Quote.Price.String())
		fmt.Printf("  Market Cap:     %s\n", res.Quote.MarketCap.String())
		fmt.Printf("  Trailing P/E:   %s\n", res.Quote.TrailingPE.String())
		fmt.Printf("  Target Upside:  %s%%\n", res.TargetUpside.String())
	}

	fmt.Printf("\nValuation\n")
	fmt.Printf("  EV/EBITDA:      %s (%s)\n", res.Metrics.EVToEBITDA.String(), res.Metrics.EVProvenance)
	fmt.Printf("  Free Cash Flow: %s (%s)\n", res.Metrics.FreeCashFlow.String(), res.Metrics.FCFProvenance)
	fmt.Printf("  Bucket:         %s, cash flow %s\n", res.Bucket, res.Cash)

	if res.Indicators != nil {
		sma50, sma200, osc, vol, dd := res.Indicators.Latest()
		fmt.Printf("\nTechnicals (%d bars)\n", res.Indicators.Len())
		fmt.Printf("  SMA 50:         %s\n", sma50.String())
		fmt.Printf("  SMA 200:        %s\n", sma200.String())
		fmt.Printf("  Oscillator 14:  %s\n", osc.String())
		fmt.Printf("  Volatility 30:  %s%%\n", vol.String())
		fmt.Printf("  Drawdown:       %s%%\n", dd.String())
	}

	if res.Verdict != nil {
		fmt.Printf("\n📋 Verdict: %s\n", res.Verdict.Code)
		fmt.Printf("   %s\n", res.Verdict.Rationale)
	} else {
		fmt.Printf("\n📋 Verdict: unavailable (no price history)\n")
	}

	if len(res.Headlines) > 0 {
		fmt.Printf("\nHeadlines\n")
		for _, h := range res.Headlines {
			fmt.Printf("  • %s\n", h.Title)
		}
	}

	for _, warning := range res.Warnings {
		fmt.Printf("\n⚠️  %s\n", warning)
	}
}
