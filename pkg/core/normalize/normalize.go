// Package normalize maps jurisdiction-specific, possibly bilingual tabular
// schemas onto one canonical column set. All defaulting for absent columns
// happens here, once, so nothing downstream needs to special-case input
// shape.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"coordscan/pkg/core/tabular"
)

// Canonical column names produced by Headers.
const (
	ColPubDate    = "pub_date"
	ColTxDate     = "tx_date"
	ColIssuer     = "issuer"
	ColBuyer      = "buyer"
	ColAssociated = "associated"
	ColNature     = "nature"
	ColCode       = "code"
	ColInstrument = "instrument"
	ColISIN       = "isin"
	ColVolume     = "volume"
	ColPrice      = "price"
	ColCurrency   = "currency"
	ColStatus     = "status"
)

// columnMap translates known English, Swedish and US-export headers. Lookup
// keys are case/whitespace-normalized first.
var columnMap = map[string]string{
	"publication date":   ColPubDate,
	"publiceringsdatum":  ColPubDate,
	"filing date":        ColPubDate,
	"filing_date":        ColPubDate,
	"transaction date":   ColTxDate,
	"transaktionsdatum":  ColTxDate,
	"trade date":         ColTxDate,
	"trade_date":         ColTxDate,
	"issuer":             ColIssuer,
	"emittent":           ColIssuer,
	"person discharging managerial responsibilities": ColBuyer,
	"person i ledande ställning":                     ColBuyer,
	"buyer":              ColBuyer,
	"closely associated": ColAssociated,
	"närstående":         ColAssociated,
	"nature of transaction": ColNature,
	"karaktär":              ColNature,
	"transaktionstyp":       ColNature,
	"transaction code":      ColCode,
	"transaction_code":      ColCode,
	"instrument name":       ColInstrument,
	"instrumentnamn":        ColInstrument,
	"instrument type":       "instrument_type",
	"instrumenttyp":         "instrument_type",
	"isin":                  ColISIN,
	"volume":                ColVolume,
	"volym":                 ColVolume,
	"shares":                ColVolume,
	"unit":                  "unit",
	"volymsenhet":           "unit",
	"price":                 ColPrice,
	"pris":                  ColPrice,
	"currency":              ColCurrency,
	"valuta":                ColCurrency,
	"status":                ColStatus,
	"details":               "details",
}

var spaces = regexp.MustCompile(`\s+`)

// Key normalizes a header for lookup: trimmed, lowercased, dashes unified,
// whitespace collapsed.
func Key(h string) string {
	k := strings.ToLower(strings.TrimSpace(h))
	k = strings.NewReplacer("–", "-", "—", "-").Replace(k)
	return spaces.ReplaceAllString(k, " ")
}

// Headers returns a copy of the table with canonical column names. Unmapped
// headers pass through under their normalized key rather than being dropped.
func Headers(t *tabular.Table) *tabular.Table {
	out := t.Clone()
	for i, h := range out.Headers {
		key := Key(h)
		if mapped, ok := columnMap[key]; ok {
			out.Headers[i] = mapped
			continue
		}
		// Registry exports decorate some headers with footnote markers.
		switch {
		case strings.HasPrefix(key, "closely associated"):
			out.Headers[i] = ColAssociated
		case strings.HasPrefix(key, "person discharging"):
			out.Headers[i] = ColBuyer
		default:
			out.Headers[i] = key
		}
	}
	out.Headers = dedupeHeaders(out.Headers)
	outT := tabular.New(out.Headers)
	outT.Rows = out.Rows
	return outT
}

// dedupeHeaders keeps the first occurrence of a canonical name and suffixes
// later collisions so no column silently shadows another.
func dedupeHeaders(headers []string) []string {
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		if n := seen[h]; n > 0 {
			out[i] = fmt.Sprintf("%s_%d", h, n)
		} else {
			out[i] = h
		}
		seen[h]++
	}
	return out
}

// Require returns an error naming every listed column missing from the
// table. Grouping on a half-normalized table would be meaningless, so the
// caller treats this as fatal.
func Require(t *tabular.Table, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.HasCol(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns after normalization: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Basis selects which date column drives grouping.
type Basis int

const (
	ByPublication Basis = iota
	ByTransaction
)

// ParseBasis accepts the configuration spellings "publication" and
// "transaction".
func ParseBasis(s string) (Basis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "publication":
		return ByPublication, nil
	case "transaction":
		return ByTransaction, nil
	}
	return ByPublication, fmt.Errorf("unknown date basis %q", s)
}

// Column returns the canonical date column for the basis.
func (b Basis) Column() string {
	if b == ByTransaction {
		return ColTxDate
	}
	return ColPubDate
}

// Label returns the basis name recorded in the coord_basis output column.
func (b Basis) Label() string {
	if b == ByTransaction {
		return "issuer-trade-date"
	}
	return "issuer-filing-date"
}

// GroupDates derives the per-row group date from the basis column. Rows
// whose date does not parse get "", which excludes them from any group. A
// missing basis column is a configuration error.
func GroupDates(t *tabular.Table, b Basis) ([]string, error) {
	if err := Require(t, b.Column()); err != nil {
		return nil, err
	}
	dates := make([]string, len(t.Rows))
	for i := range t.Rows {
		if d, ok := Date(t.Get(i, b.Column())); ok {
			dates[i] = d
		}
	}
	return dates, nil
}

// BuyerKeys builds the normalized buyer identity per row: the upper-cased
// buyer name, concatenated with any closely-associated person.
func BuyerKeys(t *tabular.Table) []string {
	keys := make([]string, len(t.Rows))
	for i := range t.Rows {
		buyer := strings.ToUpper(strings.TrimSpace(t.Get(i, ColBuyer)))
		if assoc := strings.ToUpper(strings.TrimSpace(t.Get(i, ColAssociated))); assoc != "" {
			buyer += " / " + assoc
		}
		keys[i] = buyer
	}
	return keys
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

// Date parses registry and index date spellings (ISO, day-first slashed or
// dashed) into ISO form. Registry publication dates carry a time component;
// only the date part matters for grouping, so anything after the first space
// is dropped before parsing.
func Date(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02"), true
		}
	}
	return "", false
}

var floatPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// Float parses locale-tolerant numerics: NBSP and space group separators,
// comma decimals. Unparsable input reports ok=false and is treated as
// missing downstream, never as an error.
func Float(s string) (float64, bool) {
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}
	if strings.Count(s, ",") > 0 && strings.Count(s, ".") == 0 {
		s = strings.ReplaceAll(s, ",", ".")
	}
	m := floatPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
