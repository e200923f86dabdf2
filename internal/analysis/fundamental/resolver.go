// Package fundamental resolves line items out of heterogeneous financial
// statement snapshots and derives valuation metrics from them through an
// ordered fallback chain.
package fundamental

import (
	"strings"

	"github.com/bkaradeniz/marketscan/pkg/models"
)

// Resolve returns the value of the first line item whose label contains every
// keyword, case-insensitive. Snapshots preserve source document order, so the
// first match is reproducible for identical input. An undefined Float means
// no line matched: expected absence, not an error.
//
// Keyword matching instead of an exhaustive synonym table is what keeps this
// working across vendors that label the same item "Total Debt", "TotalDebt"
// or "Long Term Debt".
func Resolve(snap *models.StatementSnapshot, keywords ...string) models.Float {
	if snap == nil || len(keywords) == 0 {
		return models.Undefined()
	}

	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	for _, item := range snap.Items {
		label := strings.ToLower(item.Label)
		ok := true
		for _, k := range lowered {
			if !strings.Contains(label, k) {
				ok = false
				break
			}
		}
		if ok {
			return item.Value
		}
	}
	return models.Undefined()
}

// ResolveAny tries each keyword set in order and returns the first defined
// value. The rule order is part of the contract: earlier sets are the more
// specific labels.
func ResolveAny(snap *models.StatementSnapshot, keywordSets ...[]string) models.Float {
	for _, keys := range keywordSets {
		if v := Resolve(snap, keys...); v.Valid {
			return v
		}
	}
	return models.Undefined()
}
