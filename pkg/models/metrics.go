package models

// Provenance records which fallback tier produced a derived value, for
// auditability of the derivation chain.
type Provenance string

const (
	// EV/EBITDA tiers, in fallback order.
	ProvenanceDirect        Provenance = "direct"        // vendor-supplied ratio field
	ProvenanceComponents    Provenance = "components"    // vendor EV and EBITDA, divided
	ProvenanceReconstructed Provenance = "reconstructed" // EV rebuilt from market cap, debt and cash

	// Free-cash-flow tiers.
	ProvenanceStatements Provenance = "statements" // operating cash flow minus capex
	ProvenanceDirectFCF  Provenance = "direct-fcf" // vendor-supplied FCF field

	// ProvenanceUnavailable tags a value no tier could produce.
	ProvenanceUnavailable Provenance = "unavailable"
)

// DerivedMetrics holds the valuation metrics computed by the derivation
// engine, each tagged with the tier that produced it. Undefined values stay
// undefined; a missing ratio must never surface as zero.
type DerivedMetrics struct {
	EVToEBITDA    Float      `json:"ev_to_ebitda"`
	EVProvenance  Provenance `json:"ev_provenance"`
	FreeCashFlow  Float      `json:"free_cash_flow"`
	FCFProvenance Provenance `json:"fcf_provenance"`
}
