package models

// StatementType identifies which financial statement a snapshot came from.
type StatementType string

const (
	StatementIncome   StatementType = "income"
	StatementBalance  StatementType = "balance"
	StatementCashFlow StatementType = "cashflow"
)

// LineItem is one labeled value in a financial statement. Labels are free-form
// and vary by vendor ("Total Debt" vs "TotalDebt" vs "Long Term Debt"); the
// fuzzy resolver matches them by keyword rather than exact name.
type LineItem struct {
	Label string `json:"label"`
	Value Float  `json:"value"`
}

// StatementSnapshot is one reporting period of a financial statement.
// Items preserve source document order so that keyword resolution is
// deterministic: the first matching line wins, reproducibly.
type StatementSnapshot struct {
	Type   StatementType `json:"type"`
	Period string        `json:"period"` // e.g. "2025", "Q2 2026"
	Items  []LineItem    `json:"items"`
}

// Add appends a line item, keeping insertion order.
func (s *StatementSnapshot) Add(label string, value Float) {
	s.Items = append(s.Items, LineItem{Label: label, Value: value})
}

// Statements bundles the per-statement snapshots fetched for one instrument.
// Any member may be nil when the source had no such table.
type Statements struct {
	Income   *StatementSnapshot `json:"income,omitempty"`
	Balance  *StatementSnapshot `json:"balance,omitempty"`
	CashFlow *StatementSnapshot `json:"cashflow,omitempty"`
}
