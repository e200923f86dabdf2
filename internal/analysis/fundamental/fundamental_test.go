package fundamental

import (
	"math"
	"testing"

	"github.com/bkaradeniz/marketscan/pkg/models"
)

func snapshot(typ models.StatementType, items ...models.LineItem) *models.StatementSnapshot {
	return &models.StatementSnapshot{Type: typ, Period: "FY 2025", Items: items}
}

func item(label string, v float64) models.LineItem {
	return models.LineItem{Label: label, Value: models.F(v)}
}

func TestResolve(t *testing.T) {
	snap := snapshot(models.StatementBalance,
		item("Short Term Debt", 50),
		item("Total Debt", 200),
		item("Cash & Equivalents", 100),
		models.LineItem{Label: "Restructuring Reserve"},
	)

	v := Resolve(snap, "total", "debt")
	if !v.Valid || v.Value != 200 {
		t.Errorf("Resolve(total,debt) = %v, want 200", v)
	}

	// Case-insensitive keyword match.
	v = Resolve(snap, "CASH", "Equivalents")
	if !v.Valid || v.Value != 100 {
		t.Errorf("Resolve(CASH,Equivalents) = %v, want 100", v)
	}

	// First matching line wins, in document order.
	v = Resolve(snap, "debt")
	if !v.Valid || v.Value != 50 {
		t.Errorf("Resolve(debt) = %v, want first match 50", v)
	}

	// No matching label.
	if Resolve(snap, "goodwill").Valid {
		t.Error("Resolve should be undefined for unmatched keywords")
	}

	// A matched label with an undefined value resolves to undefined, not zero.
	if Resolve(snap, "restructuring").Valid {
		t.Error("dash-valued line must stay undefined")
	}

	if Resolve(nil, "debt").Valid {
		t.Error("nil snapshot resolves to undefined")
	}
}

func TestResolveAnyOrder(t *testing.T) {
	snap := snapshot(models.StatementBalance,
		item("Borrowings", 999),
		item("Total Debt", 200),
	)
	// The specific rule wins over the generic one regardless of row order.
	v := ResolveAny(snap, [][]string{{"total", "debt"}, {"borrowings"}}...)
	if !v.Valid || v.Value != 200 {
		t.Errorf("ResolveAny = %v, want 200", v)
	}
}

func TestDeriveMetricsManualTier(t *testing.T) {
	in := MetricInputs{
		MarketCap: models.F(1000),
		Statements: &models.Statements{
			Balance: snapshot(models.StatementBalance,
				item("Total Debt", 200),
				item("Cash & Equivalents", 100),
			),
			Income: snapshot(models.StatementIncome,
				item("EBITDA", 110),
			),
		},
	}

	m := DeriveMetrics(in)
	if m.EVProvenance != models.ProvenanceReconstructed {
		t.Fatalf("provenance = %q, want reconstructed", m.EVProvenance)
	}
	want := (1000.0 + 200 - 100) / 110
	if !m.EVToEBITDA.Valid || math.Abs(m.EVToEBITDA.Value-want) > 1e-9 {
		t.Errorf("EV/EBITDA = %v, want %.4f", m.EVToEBITDA, want)
	}
}

func TestDeriveMetricsDirectTierWins(t *testing.T) {
	in := MetricInputs{
		DirectEVToEBITDA: models.F(8.5),
		MarketCap:        models.F(1000),
		Statements: &models.Statements{
			Balance: snapshot(models.StatementBalance,
				item("Total Debt", 200),
				item("Cash & Equivalents", 100),
			),
			Income: snapshot(models.StatementIncome, item("EBITDA", 110)),
		},
	}

	m := DeriveMetrics(in)
	if !m.EVToEBITDA.Valid || m.EVToEBITDA.Value != 8.5 {
		t.Errorf("direct tier must win: %v", m.EVToEBITDA)
	}
	if m.EVProvenance != models.ProvenanceDirect {
		t.Errorf("provenance = %q, want direct", m.EVProvenance)
	}
}

func TestDeriveMetricsComponentTier(t *testing.T) {
	m := DeriveMetrics(MetricInputs{
		EnterpriseValue: models.F(1100),
		EBITDA:          models.F(110),
	})
	if m.EVProvenance != models.ProvenanceComponents {
		t.Fatalf("provenance = %q, want components", m.EVProvenance)
	}
	if !m.EVToEBITDA.Valid || m.EVToEBITDA.Value != 10 {
		t.Errorf("EV/EBITDA = %v, want 10", m.EVToEBITDA)
	}
}

func TestDeriveMetricsNegativeDirectRatioSkipped(t *testing.T) {
	// A non-positive pre-supplied ratio is unusable; the chain moves on.
	m := DeriveMetrics(MetricInputs{
		DirectEVToEBITDA: models.F(-3),
		EnterpriseValue:  models.F(1100),
		EBITDA:           models.F(110),
	})
	if m.EVProvenance != models.ProvenanceComponents {
		t.Errorf("provenance = %q, want components", m.EVProvenance)
	}
}

func TestDeriveMetricsEBITDAProxy(t *testing.T) {
	in := MetricInputs{
		MarketCap: models.F(1000),
		Statements: &models.Statements{
			Balance: snapshot(models.StatementBalance,
				item("Total Debt", 200),
				item("Cash & Equivalents", 100),
			),
			Income: snapshot(models.StatementIncome,
				item("Operating Income", 90),
				item("Depreciation & Amortization", 20),
			),
		},
	}

	m := DeriveMetrics(in)
	if m.EVProvenance != models.ProvenanceReconstructed {
		t.Fatalf("provenance = %q, want reconstructed", m.EVProvenance)
	}
	want := 1100.0 / 110.0
	if math.Abs(m.EVToEBITDA.Value-want) > 1e-9 {
		t.Errorf("EV/EBITDA = %v, want %.4f", m.EVToEBITDA, want)
	}
}

func TestDeriveMetricsUndefinedPropagates(t *testing.T) {
	// Negative earnings: the ratio must be undefined, never zero.
	in := MetricInputs{
		MarketCap: models.F(1000),
		Statements: &models.Statements{
			Balance: snapshot(models.StatementBalance,
				item("Total Debt", 200),
				item("Cash & Equivalents", 100),
			),
			Income: snapshot(models.StatementIncome, item("EBITDA", -40)),
		},
	}
	m := DeriveMetrics(in)
	if m.EVToEBITDA.Valid {
		t.Errorf("EV/EBITDA should be undefined, got %v", m.EVToEBITDA)
	}
	if m.EVProvenance != models.ProvenanceUnavailable {
		t.Errorf("provenance = %q, want unavailable", m.EVProvenance)
	}

	// Missing balance lines likewise fail the tier instead of assuming zero.
	in.Statements.Balance = snapshot(models.StatementBalance, item("Total Assets", 5000))
	in.Statements.Income = snapshot(models.StatementIncome, item("EBITDA", 110))
	if m := DeriveMetrics(in); m.EVToEBITDA.Valid {
		t.Errorf("EV/EBITDA should be undefined without debt and cash lines, got %v", m.EVToEBITDA)
	}
}

func TestDeriveFreeCashFlow(t *testing.T) {
	in := MetricInputs{
		DirectFreeCashFlow: models.F(77),
		Statements: &models.Statements{
			CashFlow: snapshot(models.StatementCashFlow,
				item("Operating Cash Flow", 118),
				item("Capital Expenditures", -9), // negative outflow notation
			),
		},
	}

	m := DeriveMetrics(in)
	if m.FCFProvenance != models.ProvenanceStatements {
		t.Fatalf("provenance = %q, want statements", m.FCFProvenance)
	}
	if !m.FreeCashFlow.Valid || m.FreeCashFlow.Value != 109 {
		t.Errorf("FCF = %v, want 109", m.FreeCashFlow)
	}
}

func TestDeriveFreeCashFlowFallsBackToDirect(t *testing.T) {
	m := DeriveMetrics(MetricInputs{DirectFreeCashFlow: models.F(77)})
	if m.FCFProvenance != models.ProvenanceDirectFCF {
		t.Fatalf("provenance = %q, want direct-fcf", m.FCFProvenance)
	}
	if !m.FreeCashFlow.Valid || m.FreeCashFlow.Value != 77 {
		t.Errorf("FCF = %v, want 77", m.FreeCashFlow)
	}

	empty := DeriveMetrics(MetricInputs{})
	if empty.FreeCashFlow.Valid || empty.FCFProvenance != models.ProvenanceUnavailable {
		t.Errorf("FCF should be unavailable with no inputs: %+v", empty)
	}
}
