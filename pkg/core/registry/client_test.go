package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const searchPage = `<html><body>
<table class="nav"><tr><td>Home</td><td>Search</td></tr></table>
<table class="search-results">
  <tr>
    <th>Publication date</th><th>Issuer</th>
    <th>Person discharging managerial responsibilities</th>
    <th>Nature of transaction</th><th>Volume</th><th>Price</th><th>Currency</th>
  </tr>
  <tr>
    <td>12/08/2025 10:30</td><td>ACME AB</td><td>Anna Ek</td>
    <td>Acquisition</td><td>1 000</td><td>10,00</td><td>SEK</td>
  </tr>
  <tr>
    <td>12/08/2025 11:02</td><td>ACME AB</td><td>Bo Berg</td>
    <td>Acquisition</td><td>2 500</td><td>10,01</td><td>SEK</td>
  </tr>
</table>
</body></html>`

func TestFetchPage(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"SearchFunctionType": r.URL.Query().Get("SearchFunctionType"),
			"Page":               r.URL.Query().Get("Page"),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	c := NewClient("coordscan test (dev@example.com)")
	c.SetBaseURL(srv.URL)

	tbl, err := c.FetchPage(context.Background(), 3)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if gotQuery["SearchFunctionType"] != "Insyn" || gotQuery["Page"] != "3" {
		t.Errorf("query = %v", gotQuery)
	}

	if len(tbl.Headers) != 7 || tbl.Headers[0] != "Publication date" {
		t.Errorf("headers = %v", tbl.Headers)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d", len(tbl.Rows))
	}
	if tbl.Get(0, "Issuer") != "ACME AB" || tbl.Get(1, "Price") != "10,01" {
		t.Errorf("cells = %q, %q", tbl.Get(0, "Issuer"), tbl.Get(1, "Price"))
	}
}

func TestFetchPageNoResultTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><table><tr><td>nav only</td></tr></table></body></html>`))
	}))
	defer srv.Close()

	c := NewClient("coordscan test (dev@example.com)")
	c.SetBaseURL(srv.URL)
	if _, err := c.FetchPage(context.Background(), 1); err == nil {
		t.Errorf("expected an error when no result table is present")
	}
}

func TestFetchPageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("coordscan test (dev@example.com)")
	c.SetBaseURL(srv.URL)
	if _, err := c.FetchPage(context.Background(), 1); err == nil {
		t.Errorf("expected an error for a non-200 response")
	}
}

func TestExtractResultTableHeaderCaseInsensitive(t *testing.T) {
	html := `<table><tr><th>PUBLICATION DATE</th><th>Issuer</th></tr>
<tr><td>12/08/2025</td><td>ACME AB</td></tr></table>`
	tbl, err := extractResultTable([]byte(html))
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Rows) != 1 {
		t.Errorf("rows = %d", len(tbl.Rows))
	}
}
