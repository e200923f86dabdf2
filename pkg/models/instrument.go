package models

// Instrument represents one tradeable instrument row recovered from a
// screener results grid. Numeric columns frequently hold "-" or blank cells,
// so they are optional Floats rather than raw float64s.
type Instrument struct {
	Ticker    string `json:"ticker"`   // primary identifier, e.g. "AAPL"
	Name      string `json:"name"`     // e.g. "Apple Inc."
	Sector    string `json:"sector"`   // e.g. "Technology"
	Industry  string `json:"industry"` // e.g. "Consumer Electronics"
	Country   string `json:"country,omitempty"`
	MarketCap Float  `json:"market_cap"`
	Price     Float  `json:"price"`
	PE        Float  `json:"pe"`         // trailing P/E as listed by the screener
	ChangePct Float  `json:"change_pct"` // day change percentage
	Volume    Float  `json:"volume"`
}

// Quote represents a point-in-time snapshot for a single instrument,
// richer than a screener row. Fields the vendor omits stay undefined.
type Quote struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	Sector          string `json:"sector,omitempty"`
	Price           Float  `json:"price"`
	MarketCap       Float  `json:"market_cap"`
	TrailingPE      Float  `json:"trailing_pe"`
	ForwardPE       Float  `json:"forward_pe"`
	EVToEBITDA      Float  `json:"ev_to_ebitda"`     // pre-computed ratio when the vendor supplies one
	EnterpriseValue Float  `json:"enterprise_value"` // pre-computed EV when supplied
	EBITDA          Float  `json:"ebitda"`
	FreeCashFlow    Float  `json:"free_cash_flow"` // vendor-supplied FCF, fallback for the derivation engine
	TargetMeanPrice Float  `json:"target_mean_price"`
	DividendYield   Float  `json:"dividend_yield"`
	ROE             Float  `json:"roe"`
}

// TargetUpside returns the percent distance from price to the analyst mean
// target, undefined when either input is missing.
func (q *Quote) TargetUpside() Float {
	if !q.Price.Positive() || !q.TargetMeanPrice.Positive() {
		return Undefined()
	}
	return F((q.TargetMeanPrice.Value - q.Price.Value) / q.Price.Value * 100)
}
