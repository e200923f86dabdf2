package datasource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const constituentsPage = `<html><body>
<table class="infobox"><tr><td>S&amp;P 500</td></tr></table>
<table id="constituents">
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th><th>GICS Sub-Industry</th><th>Headquarters</th></tr>
<tr><td>MMM</td><td>3M</td><td>Industrials</td><td>Industrial Conglomerates</td><td>Saint Paul, Minnesota</td></tr>
<tr><td>BRK.B</td><td>Berkshire Hathaway</td><td>Financials</td><td>Multi-Sector Holdings</td><td>Omaha, Nebraska</td></tr>
</table>
</body></html>`

func TestIndexGetSP500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, constituentsPage)
	}))
	defer srv.Close()

	x := NewIndex()
	x.BaseURL = srv.URL
	x.limiter = NewThrottle(SourceLimit{Burst: 100, Every: time.Second})

	list, err := x.GetSP500(context.Background())
	if err != nil {
		t.Fatalf("GetSP500: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 constituents, got %d", len(list))
	}
	if list[0].Ticker != "MMM" || list[0].Sector != "Industrials" {
		t.Errorf("unexpected first constituent: %+v", list[0])
	}
	// Class shares converted from dot to dash notation.
	if list[1].Ticker != "BRK-B" {
		t.Errorf("ticker = %q, want BRK-B", list[1].Ticker)
	}
}

func TestIndexGetSP500NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body><p>nothing here</p></body></html>")
	}))
	defer srv.Close()

	x := NewIndex()
	x.BaseURL = srv.URL
	x.limiter = NewThrottle(SourceLimit{Burst: 100, Every: time.Second})

	if _, err := x.GetSP500(context.Background()); err == nil {
		t.Fatal("expected error when constituents table is missing")
	}
	if len(FallbackConstituents) == 0 {
		t.Fatal("fallback list must not be empty")
	}
}
