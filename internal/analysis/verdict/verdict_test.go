package verdict

import (
	"testing"

	"github.com/bkaradeniz/marketscan/pkg/models"
)

func TestBucketOf(t *testing.T) {
	tests := []struct {
		name  string
		ratio models.Float
		want  models.ValuationBucket
	}{
		{"undefined", models.Undefined(), models.BucketUnknown},
		{"cheap", models.F(8.5), models.BucketCheap},
		{"just below cheap ceiling", models.F(11.999), models.BucketCheap},
		{"fair low edge", models.F(12), models.BucketFair},
		{"fair high edge", models.F(20), models.BucketFair},
		{"expensive", models.F(20.01), models.BucketExpensive},
		{"negative stays out of cheap", models.Undefined(), models.BucketUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketOf(tt.ratio); got != tt.want {
				t.Errorf("BucketOf(%v) = %q, want %q", tt.ratio, got, tt.want)
			}
		})
	}
}

func TestCashStateOf(t *testing.T) {
	if got := CashStateOf(models.F(109)); got != models.CashPositive {
		t.Errorf("positive FCF = %q", got)
	}
	if got := CashStateOf(models.F(-4)); got != models.CashNegative {
		t.Errorf("negative FCF = %q", got)
	}
	if got := CashStateOf(models.F(0)); got != models.CashNegative {
		t.Errorf("zero FCF = %q, want negative", got)
	}
	if got := CashStateOf(models.Undefined()); got != models.CashUnknown {
		t.Errorf("undefined FCF = %q", got)
	}
}

func TestClassifyTable(t *testing.T) {
	tests := []struct {
		name    string
		trendUp bool
		bucket  models.ValuationBucket
		cash    models.CashFlowState
		want    models.VerdictCode
	}{
		{"uptrend cheap", true, models.BucketCheap, models.CashPositive, models.VerdictStrongBuyCandidate},
		{"uptrend fair", true, models.BucketFair, models.CashNegative, models.VerdictQualityTrend},
		{"uptrend expensive", true, models.BucketExpensive, models.CashPositive, models.VerdictMomentumOvervalued},
		{"uptrend unknown valuation", true, models.BucketUnknown, models.CashUnknown, models.VerdictSpeculativeTrend},
		{"downtrend cheap positive cash", false, models.BucketCheap, models.CashPositive, models.VerdictValueInvestment},
		{"downtrend cheap negative cash", false, models.BucketCheap, models.CashNegative, models.VerdictNeutralWatch},
		{"downtrend cheap unknown cash", false, models.BucketCheap, models.CashUnknown, models.VerdictNeutralWatch},
		{"downtrend expensive", false, models.BucketExpensive, models.CashPositive, models.VerdictAvoid},
		{"downtrend fair", false, models.BucketFair, models.CashPositive, models.VerdictNeutralWatch},
		{"downtrend unknown", false, models.BucketUnknown, models.CashNegative, models.VerdictNeutralWatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.trendUp, tt.bucket, tt.cash)
			if v.Code != tt.want {
				t.Errorf("Classify(%v, %q, %q) = %q, want %q", tt.trendUp, tt.bucket, tt.cash, v.Code, tt.want)
			}
			if v.Rationale == "" {
				t.Error("verdict must carry a rationale")
			}
			if v.TrendUp != tt.trendUp || v.Bucket != tt.bucket || v.Cash != tt.cash {
				t.Error("verdict must echo its inputs")
			}
		})
	}
}

func TestFirstRowWinsOverCashSign(t *testing.T) {
	// An uptrending cheap stock stays a strong buy candidate regardless of
	// its cash flow sign.
	for _, cash := range []models.CashFlowState{models.CashPositive, models.CashNegative, models.CashUnknown} {
		v := Classify(true, models.BucketCheap, cash)
		if v.Code != models.VerdictStrongBuyCandidate {
			t.Errorf("cash=%q: code = %q, want strong-buy-candidate", cash, v.Code)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	a := Classify(false, models.BucketFair, models.CashUnknown)
	b := Classify(false, models.BucketFair, models.CashUnknown)
	if a != b {
		t.Errorf("identical inputs produced %+v and %+v", a, b)
	}
}
