package models

// VerdictCode is the qualitative classification of an instrument.
type VerdictCode string

const (
	VerdictStrongBuyCandidate VerdictCode = "strong-buy-candidate"
	VerdictQualityTrend       VerdictCode = "quality-trend"
	VerdictMomentumOvervalued VerdictCode = "momentum-overvalued"
	VerdictSpeculativeTrend   VerdictCode = "speculative-trend"
	VerdictValueInvestment    VerdictCode = "value-investment"
	VerdictAvoid              VerdictCode = "avoid"
	VerdictNeutralWatch       VerdictCode = "neutral-watch"
)

// ValuationBucket is the coarse EV/EBITDA classification feeding the verdict.
type ValuationBucket string

const (
	BucketCheap     ValuationBucket = "cheap"     // ratio < 12
	BucketFair      ValuationBucket = "fair"      // 12–20
	BucketExpensive ValuationBucket = "expensive" // > 20
	BucketUnknown   ValuationBucket = "unknown"   // ratio undefined
)

// CashFlowState is the free-cash-flow sign feeding the verdict.
type CashFlowState string

const (
	CashPositive CashFlowState = "positive"
	CashNegative CashFlowState = "negative"
	CashUnknown  CashFlowState = "unknown"
)

// Verdict is the synthesized classification together with the inputs that
// produced it. It is a pure function of those inputs; the rationale is a
// fixed template citing the triggering condition.
type Verdict struct {
	Code      VerdictCode     `json:"code"`
	Rationale string          `json:"rationale"`
	TrendUp   bool            `json:"trend_up"`
	Bucket    ValuationBucket `json:"bucket"`
	Cash      CashFlowState   `json:"cash"`
}
