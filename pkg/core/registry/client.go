// Package registry reads the Finnish FIN-FSA insider-dealing web registry as
// a rows source. It fetches one search-result page at a time and extracts
// the result table; deciding how many pages to walk, and where to cut off,
// stays with the caller.
package registry

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"coordscan/pkg/core/tabular"
)

// SearchURL is the registry's paged search endpoint.
const SearchURL = "https://marknadssok.fi.se/publiceringsklient/en-GB/Search/Search"

// Client fetches registry search pages with retry on transient failures.
type Client struct {
	http *resty.Client
	url  string
}

// NewClient creates a registry client. The user agent should carry contact
// information, same as the archive client.
func NewClient(userAgent string) *Client {
	hc := resty.New().
		SetTimeout(60*time.Second).
		SetRetryCount(4).
		SetRetryWaitTime(800*time.Millisecond).
		SetRetryMaxWaitTime(15*time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Language", "en-GB,en;q=0.8,sv-SE;q=0.7")
	hc.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
	})
	return &Client{http: hc, url: SearchURL}
}

// SetBaseURL overrides the search endpoint, mainly for tests.
func (c *Client) SetBaseURL(url string) { c.url = url }

// FetchPage retrieves one search-result page and returns its result table
// with the registry's original headers. Page numbering starts at 1.
func (c *Client) FetchPage(ctx context.Context, page int) (*tabular.Table, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"SearchFunctionType": "Insyn",
			"button":             "search",
			"Page":               strconv.Itoa(page),
			"paging":             "True",
		}).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("registry page %d fetch failed: %w", page, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("registry page %d returned status %d", page, resp.StatusCode())
	}

	table, err := extractResultTable(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("registry page %d: %w", page, err)
	}
	return table, nil
}

// extractResultTable picks the table whose header row starts with a
// publication-date column; the page carries navigation tables too.
func extractResultTable(html []byte) (*tabular.Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry HTML: %w", err)
	}

	var result *tabular.Table
	doc.Find("table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var headers []string
		sel.Find("tr").First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(cell.Text()))
		})
		if !hasPublicationDate(headers) {
			return true
		}
		t := tabular.New(headers)
		sel.Find("tr").Each(func(i int, tr *goquery.Selection) {
			if i == 0 {
				return
			}
			var row []string
			tr.Find("td").Each(func(_ int, td *goquery.Selection) {
				row = append(row, strings.TrimSpace(td.Text()))
			})
			if len(row) > 0 {
				t.Append(row)
			}
		})
		result = t
		return false
	})

	if result == nil {
		return nil, fmt.Errorf("no result table found")
	}
	return result, nil
}

func hasPublicationDate(headers []string) bool {
	for _, h := range headers {
		if strings.HasPrefix(strings.ToLower(h), "publication date") {
			return true
		}
	}
	return false
}
