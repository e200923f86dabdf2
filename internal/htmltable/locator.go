// Package htmltable extracts typed records from HTML documents that contain
// several superficially similar tables (navigation grids, ad blocks, filter
// banners) alongside the one real data grid.
//
// Table selection is a deliberate heuristic: a table qualifies when its header
// row contains every caller-supplied marker substring. Decoy tables tend to
// contain one marker by coincidence but never all of them at once. The known
// failure mode, a decoy carrying the full marker set, is accepted as the
// price of resilience to upstream markup changes.
package htmltable

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Locate scans every table in the document, in document order, and returns
// the first one whose header row text contains all the given markers
// (case-insensitive). The boolean is false when no table qualifies; that is
// expected absence (end of paginated results, empty filter), not an error,
// and callers must treat it differently from a transport failure.
func Locate(doc *goquery.Document, markers ...string) (*goquery.Selection, bool) {
	if doc == nil || len(markers) == 0 {
		return nil, false
	}

	var match *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		header := headerText(tbl)
		if containsAll(header, markers) {
			match = tbl
			return false
		}
		return true
	})

	if match == nil {
		return nil, false
	}
	return match, true
}

// headerText returns the text of the table's putative header: the first row,
// whether or not the table bothers with a thead.
func headerText(tbl *goquery.Selection) string {
	row := tbl.Find("tr").First()
	if row.Length() == 0 {
		return ""
	}

	var parts []string
	row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(cell.Text()))
	})
	return strings.Join(parts, " ")
}

func containsAll(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if !strings.Contains(lower, strings.ToLower(m)) {
			return false
		}
	}
	return true
}
