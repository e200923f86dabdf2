package htmltable

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const realTable = `<table id="grid">
<tr><th>Ticker</th><th>Company</th><th>Price</th><th>Change</th></tr>
<tr><td>AAPL</td><td>Apple Inc.</td><td>232.50</td><td>1.25%</td></tr>
<tr><td>MSFT</td><td>Microsoft</td><td>512.10</td><td>-0.40%</td></tr>
</table>`

const decoyNav = `<table id="nav">
<tr><td>Home</td><td>Screener</td><td>Price Alerts</td></tr>
<tr><td>a</td><td>b</td><td>c</td></tr>
</table>`

const decoyFilter = `<table id="filters">
<tr><th>Ticker</th><th>Exchange filter</th></tr>
<tr><td>any</td><td>any</td></tr>
</table>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + html + "</body></html>"))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func TestLocateSkipsDecoys(t *testing.T) {
	// Each decoy contains one required marker but never both.
	doc := mustDoc(t, decoyNav+decoyFilter+realTable)

	tbl, ok := Locate(doc, "Ticker", "Price")
	if !ok {
		t.Fatal("expected a matching table")
	}
	if id, _ := tbl.Attr("id"); id != "grid" {
		t.Errorf("located table %q, want grid", id)
	}
}

func TestLocateInvariantUnderDecoyOrder(t *testing.T) {
	orders := []string{
		decoyNav + decoyFilter + realTable,
		realTable + decoyNav + decoyFilter,
		decoyFilter + realTable + decoyNav,
	}
	for _, html := range orders {
		tbl, ok := Locate(mustDoc(t, html), "Ticker", "Price")
		if !ok {
			t.Fatal("expected a matching table")
		}
		if id, _ := tbl.Attr("id"); id != "grid" {
			t.Errorf("located table %q, want grid", id)
		}
	}
}

func TestLocateNotFound(t *testing.T) {
	doc := mustDoc(t, decoyNav+decoyFilter)
	if _, ok := Locate(doc, "Ticker", "Price"); ok {
		t.Error("expected not found for document with only decoys")
	}
}

func TestLocateCaseInsensitive(t *testing.T) {
	if _, ok := Locate(mustDoc(t, realTable), "ticker", "PRICE"); !ok {
		t.Error("marker matching should be case-insensitive")
	}
}

func TestLocateFirstOfMultipleMatches(t *testing.T) {
	second := strings.Replace(realTable, `id="grid"`, `id="grid2"`, 1)
	tbl, ok := Locate(mustDoc(t, realTable+second), "Ticker", "Price")
	if !ok {
		t.Fatal("expected a matching table")
	}
	if id, _ := tbl.Attr("id"); id != "grid" {
		t.Errorf("located table %q, want first match grid", id)
	}
}

func TestParseRecords(t *testing.T) {
	html := `<table>
<tr><th>Ticker</th><th>Company</th><th>Price</th></tr>
<tr><td> AAPL </td><td>Apple Inc.</td><td>232.50</td></tr>
<tr><td>MSFT</td><td>Microsoft</td></tr>
<tr><td>NVDA</td><td>NVIDIA</td><td>141.00</td><td>extra</td><td>cells</td></tr>
</table>`
	tbl, ok := Locate(mustDoc(t, html), "Ticker", "Price")
	if !ok {
		t.Fatal("expected a matching table")
	}

	recs := ParseRecords(tbl, []string{"Ticker", "Company", "Price"})
	if len(recs) != 2 {
		t.Fatalf("expected 2 records (short row dropped), got %d", len(recs))
	}
	if recs[0]["Ticker"] != "AAPL" {
		t.Errorf("cell text should be trimmed, got %q", recs[0]["Ticker"])
	}
	if recs[1]["Ticker"] != "NVDA" {
		t.Errorf("row order not preserved: %q", recs[1]["Ticker"])
	}
	if _, ok := recs[1]["extra"]; ok {
		t.Error("excess cells must be dropped, not reassigned")
	}
	if len(recs[1]) != 3 {
		t.Errorf("expected exactly 3 columns, got %d", len(recs[1]))
	}
}

func TestCleanNumber(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{"232.50", 232.50, true},
		{"1,234,567", 1234567, true},
		{"1.25%", 1.25, true},
		{"-0.40%", -0.40, true},
		{"$512.10", 512.10, true},
		{"-", 0, false},
		{"", 0, false},
		{"N/A", 0, false},
		{"garbage", 0, false},
	}
	for _, tt := range tests {
		got := CleanNumber(tt.in)
		if got.Valid != tt.valid {
			t.Errorf("CleanNumber(%q).Valid = %v, want %v", tt.in, got.Valid, tt.valid)
			continue
		}
		if got.Valid && got.Value != tt.want {
			t.Errorf("CleanNumber(%q) = %v, want %v", tt.in, got.Value, tt.want)
		}
	}
}
