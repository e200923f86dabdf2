package htmltable

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bkaradeniz/marketscan/pkg/models"
)

// Record maps expected column names to the raw trimmed cell text of one row.
// Conversion to numbers is a separate, explicit step (CleanNumber) so that
// "-" and blank cells degrade to undefined instead of zero.
type Record map[string]string

// ParseRecords extracts one Record per data row of a located table, given the
// caller's ordered list of expected column names. The first row is the header
// and is skipped. A row with fewer cells than expected columns is dropped as
// malformed; excess trailing cells are ignored, never reassigned. Row order
// is preserved.
func ParseRecords(tbl *goquery.Selection, columns []string) []Record {
	if tbl == nil || len(columns) == 0 {
		return nil
	}

	var records []Record
	tbl.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header row
		}

		cells := row.Find("td")
		if cells.Length() < len(columns) {
			return // malformed or decoy row
		}

		rec := make(Record, len(columns))
		cells.EachWithBreak(func(j int, cell *goquery.Selection) bool {
			if j >= len(columns) {
				return false
			}
			rec[columns[j]] = strings.TrimSpace(cell.Text())
			return true
		})
		records = append(records, rec)
	})

	return records
}

// CleanNumber converts the raw text of a numeric-looking cell into an optional
// float. "-", "", and "N/A" are missing data, not zero. Percent signs,
// thousands separators and currency prefixes are stripped before parsing;
// anything still unparsable is likewise treated as missing.
func CleanNumber(s string) models.Float {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", "—", "N/A", "n/a":
		return models.Undefined()
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Undefined()
	}
	return models.F(v)
}

// Field returns the cleaned numeric value of the named column.
func (r Record) Field(column string) models.Float {
	return CleanNumber(r[column])
}
