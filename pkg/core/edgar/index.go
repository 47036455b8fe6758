package edgar

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// indexRow matches one fixed-width daily-index line. Columns are separated
// by runs of two or more spaces; the document path shape is stable even
// though the surrounding format is unversioned.
var indexRow = regexp.MustCompile(
	`^(?P<form>4(?:[/.]\w+)?)\s{2,}` +
		`(?P<company>.+?)\s{2,}` +
		`(?P<cik>\d{7,10})\s{2,}` +
		`(?P<date>\d{8})\s{2,}` +
		`(?P<file>edgar/data/\d+/\d{10}-\d{2}-\d{6}\.txt)\s*$`)

// IndexURL returns the daily form index URL for a date under the given
// archive root.
func IndexURL(base string, day time.Time) string {
	return fmt.Sprintf("%sedgar/daily-index/%d/QTR%d/form.%s.idx",
		base, day.Year(), QuarterOf(day), day.Format("20060102"))
}

// DecodeIndexBody turns a raw index response body into text. Some edge
// servers return gzipped bytes without a Content-Encoding header, so the
// gzip magic bytes are sniffed as a fallback.
func DecodeIndexBody(raw []byte) (string, error) {
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		gz, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return "", fmt.Errorf("failed to open gzip index: %w", err)
		}
		defer gz.Close()
		out, err := io.ReadAll(gz)
		if err != nil {
			return "", fmt.Errorf("failed to decompress index: %w", err)
		}
		return string(out), nil
	}
	return string(raw), nil
}

// ParseIndex extracts ownership-form filings from daily index text. Only
// form 4 and its amendment variants (4/A, 4.A) are kept; every other line,
// including malformed ones, is ignored. The upstream format drifts, so
// tolerance is deliberate.
func ParseIndex(text string) []FilingRef {
	var refs []FilingRef
	for _, line := range strings.Split(text, "\n") {
		m := indexRow.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		form := strings.ToUpper(strings.TrimSpace(m[1]))
		if form != "4" && !strings.HasPrefix(form, "4/") && !strings.HasPrefix(form, "4.") {
			continue
		}
		d := m[4]
		refs = append(refs, FilingRef{
			CIK:         m[3],
			CompanyName: strings.TrimSpace(m[2]),
			FormType:    form,
			DateFiled:   d[0:4] + "-" + d[4:6] + "-" + d[6:8],
			TxtPath:     m[5],
		})
	}
	return refs
}
