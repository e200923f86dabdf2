package scan

import (
	"strings"

	"github.com/bkaradeniz/marketscan/pkg/models"
)

// Filters narrow an aggregated instrument set after the scan. They mirror the
// interactive result filters: sector, a P/E ceiling (loss-makers and unknown
// P/E excluded when the ceiling is active), and a minimum dollar price.
type Filters struct {
	Sector   string  `json:"sector,omitempty"`
	MaxPE    float64 `json:"max_pe,omitempty"`    // 0 disables
	MinPrice float64 `json:"min_price,omitempty"` // 0 disables
}

// Apply returns the instruments passing all active filters, preserving order.
func (f Filters) Apply(instruments []models.Instrument) []models.Instrument {
	if f.Sector == "" && f.MaxPE <= 0 && f.MinPrice <= 0 {
		return instruments
	}

	var out []models.Instrument
	for _, inst := range instruments {
		if f.Sector != "" && !strings.EqualFold(inst.Sector, f.Sector) {
			continue
		}
		if f.MaxPE > 0 {
			// A P/E ceiling means "profitable and cheaper than X": rows with
			// undefined or non-positive P/E are excluded, matching the
			// interactive screener's behavior.
			if !inst.PE.Positive() || inst.PE.Value >= f.MaxPE {
				continue
			}
		}
		if f.MinPrice > 0 && (!inst.Price.Valid || inst.Price.Value < f.MinPrice) {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// Sectors returns the distinct sectors present in the set, in first-seen
// order, for building filter choices.
func Sectors(instruments []models.Instrument) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, inst := range instruments {
		if inst.Sector == "" {
			continue
		}
		if _, dup := seen[inst.Sector]; dup {
			continue
		}
		seen[inst.Sector] = struct{}{}
		out = append(out, inst.Sector)
	}
	return out
}
