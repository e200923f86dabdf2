package fundamental

import (
	"math"

	"github.com/bkaradeniz/marketscan/pkg/models"
)

// Ordered resolver rules per canonical field. Earlier sets are more specific;
// the first defined hit wins.
var (
	totalDebtRules = [][]string{
		{"total", "debt"},
		{"long", "term", "debt"},
		{"borrowings"},
	}
	cashRules = [][]string{
		{"cash", "equivalents"},
		{"cash", "short", "term", "investments"},
		{"cash"},
	}
	ebitdaRules = [][]string{
		{"ebitda"},
	}
	operatingIncomeRules = [][]string{
		{"operating", "income"},
		{"operating", "profit"},
	}
	depreciationRules = [][]string{
		{"depreciation"},
	}
	operatingCashFlowRules = [][]string{
		{"operating", "cash", "flow"},
		{"cash", "from", "operations"},
	}
	capexRules = [][]string{
		{"capital", "expenditure"},
		{"capex"},
	}
)

// MetricInputs carries everything the derivation engine may draw on. Vendor
// fields that were absent stay undefined; the fallback chain routes around
// them.
type MetricInputs struct {
	// Pre-supplied vendor fields, preferred when usable.
	DirectEVToEBITDA   models.Float
	EnterpriseValue    models.Float
	EBITDA             models.Float
	MarketCap          models.Float
	DirectFreeCashFlow models.Float

	// Statement snapshots for manual reconstruction. May be nil.
	Statements *models.Statements
}

// DeriveMetrics computes the EV/EBITDA valuation ratio and free cash flow
// through their ordered fallback chains. Each result carries the tier that
// produced it. An undefined ratio stays undefined all the way up; collapsing
// it to zero would read as "extremely cheap".
func DeriveMetrics(in MetricInputs) models.DerivedMetrics {
	m := models.DerivedMetrics{
		EVProvenance:  models.ProvenanceUnavailable,
		FCFProvenance: models.ProvenanceUnavailable,
	}

	m.EVToEBITDA, m.EVProvenance = deriveEVToEBITDA(in)
	m.FreeCashFlow, m.FCFProvenance = deriveFreeCashFlow(in)
	return m
}

// deriveEVToEBITDA walks the three tiers in order, moving on whenever a tier
// yields no usable (positive, defined) result.
func deriveEVToEBITDA(in MetricInputs) (models.Float, models.Provenance) {
	// Tier 1: vendor-supplied ratio.
	if in.DirectEVToEBITDA.Positive() {
		return in.DirectEVToEBITDA, models.ProvenanceDirect
	}

	// Tier 2: vendor-supplied components.
	if in.EnterpriseValue.Positive() && in.EBITDA.Positive() {
		return models.F(in.EnterpriseValue.Value / in.EBITDA.Value), models.ProvenanceComponents
	}

	// Tier 3: manual construction from statements.
	if in.Statements == nil {
		return models.Undefined(), models.ProvenanceUnavailable
	}

	ev := enterpriseValue(in.MarketCap, in.Statements.Balance)
	earnings := ebitdaProxy(in.EBITDA, in.Statements.Income)
	if !ev.Valid || !earnings.Positive() {
		return models.Undefined(), models.ProvenanceUnavailable
	}
	return models.F(ev.Value / earnings.Value), models.ProvenanceReconstructed
}

// enterpriseValue rebuilds EV = market cap + total debt - cash. All three
// terms must resolve; silently substituting zero for a missing balance line
// would fabricate a valuation.
func enterpriseValue(marketCap models.Float, balance *models.StatementSnapshot) models.Float {
	if !marketCap.Positive() {
		return models.Undefined()
	}
	debt := ResolveAny(balance, totalDebtRules...)
	cash := ResolveAny(balance, cashRules...)
	if !debt.Valid || !cash.Valid {
		return models.Undefined()
	}
	return models.F(marketCap.Value + debt.Value - cash.Value)
}

// ebitdaProxy resolves EBITDA from the income statement, reconstructing it as
// operating income plus depreciation when no direct line exists.
func ebitdaProxy(direct models.Float, income *models.StatementSnapshot) models.Float {
	if direct.Positive() {
		return direct
	}
	if v := ResolveAny(income, ebitdaRules...); v.Valid {
		return v
	}

	op := ResolveAny(income, operatingIncomeRules...)
	dep := ResolveAny(income, depreciationRules...)
	if !op.Valid || !dep.Valid {
		return models.Undefined()
	}
	return models.F(op.Value + math.Abs(dep.Value))
}

// deriveFreeCashFlow prefers the statement-based figure (operating cash flow
// minus capex) and falls back to the vendor-supplied field. Capex is reported
// as a negative outflow by most vendors; the absolute value keeps the
// subtraction meaningful either way.
func deriveFreeCashFlow(in MetricInputs) (models.Float, models.Provenance) {
	if in.Statements != nil {
		ocf := ResolveAny(in.Statements.CashFlow, operatingCashFlowRules...)
		capex := ResolveAny(in.Statements.CashFlow, capexRules...)
		if ocf.Valid && capex.Valid {
			return models.F(ocf.Value - math.Abs(capex.Value)), models.ProvenanceStatements
		}
	}

	if in.DirectFreeCashFlow.Valid {
		return in.DirectFreeCashFlow, models.ProvenanceDirectFCF
	}
	return models.Undefined(), models.ProvenanceUnavailable
}
