// Package verdict maps trend, valuation and cash flow state to a qualitative
// classification through a fixed decision table.
package verdict

import "github.com/bkaradeniz/marketscan/pkg/models"

// Valuation bucket boundaries for EV/EBITDA.
const (
	CheapCeiling     = 12.0
	ExpensiveCeiling = 20.0
)

// BucketOf classifies an EV/EBITDA ratio. An undefined ratio is unknown, not
// cheap.
func BucketOf(ratio models.Float) models.ValuationBucket {
	switch {
	case !ratio.Valid:
		return models.BucketUnknown
	case ratio.Value < CheapCeiling:
		return models.BucketCheap
	case ratio.Value <= ExpensiveCeiling:
		return models.BucketFair
	default:
		return models.BucketExpensive
	}
}

// CashStateOf classifies a free cash flow figure by sign.
func CashStateOf(fcf models.Float) models.CashFlowState {
	switch {
	case !fcf.Valid:
		return models.CashUnknown
	case fcf.Value > 0:
		return models.CashPositive
	default:
		return models.CashNegative
	}
}

// rule is one row of the decision table. A nil cash field matches any state.
type rule struct {
	trendUp   bool
	bucket    models.ValuationBucket
	anyBucket bool
	cash      models.CashFlowState
	anyCash   bool
	code      models.VerdictCode
	rationale string
}

// The table is ordered; the first matching row wins. Row order is observable
// behavior: an uptrending cheap stock is a strong buy candidate even with
// negative cash flow.
var rules = []rule{
	{trendUp: true, bucket: models.BucketCheap, anyCash: true,
		code:      models.VerdictStrongBuyCandidate,
		rationale: "price above 200-day average with cheap valuation (EV/EBITDA < 12)"},
	{trendUp: true, bucket: models.BucketFair, anyCash: true,
		code:      models.VerdictQualityTrend,
		rationale: "price above 200-day average at a fair valuation (EV/EBITDA 12-20)"},
	{trendUp: true, bucket: models.BucketExpensive, anyCash: true,
		code:      models.VerdictMomentumOvervalued,
		rationale: "price above 200-day average but expensive (EV/EBITDA > 20)"},
	{trendUp: true, bucket: models.BucketUnknown, anyCash: true,
		code:      models.VerdictSpeculativeTrend,
		rationale: "price above 200-day average with no usable valuation data"},
	{trendUp: false, bucket: models.BucketCheap, cash: models.CashPositive,
		code:      models.VerdictValueInvestment,
		rationale: "cheap valuation (EV/EBITDA < 12) with positive free cash flow despite the downtrend"},
	{trendUp: false, bucket: models.BucketExpensive, anyCash: true,
		code:      models.VerdictAvoid,
		rationale: "price below 200-day average and expensive (EV/EBITDA > 20)"},
	{trendUp: false, anyBucket: true, anyCash: true,
		code:      models.VerdictNeutralWatch,
		rationale: "price below 200-day average with no strong valuation signal"},
}

// Classify walks the decision table top to bottom and returns the first
// matching row as a verdict. The table is total over all input combinations.
func Classify(trendUp bool, bucket models.ValuationBucket, cash models.CashFlowState) models.Verdict {
	for _, r := range rules {
		if r.trendUp != trendUp {
			continue
		}
		if !r.anyBucket && r.bucket != bucket {
			continue
		}
		if !r.anyCash && r.cash != cash {
			continue
		}
		return models.Verdict{
			Code:      r.code,
			Rationale: r.rationale,
			TrendUp:   trendUp,
			Bucket:    bucket,
			Cash:      cash,
		}
	}
	// Unreachable: the last row matches every downtrend combination.
	return models.Verdict{
		Code:      models.VerdictNeutralWatch,
		Rationale: "no decision rule matched",
		TrendUp:   trendUp,
		Bucket:    bucket,
		Cash:      cash,
	}
}
