// Package detect implements coordinated-buy detection over a normalized
// transaction table: duplicate-submission removal, issuer/date group
// evaluation against price tolerances, and the flag overlay written back
// onto the original rows.
//
// Everything here is pure and deterministic. The engine takes an immutable
// snapshot, does no I/O, and recomputes from scratch every run; a failure
// signals a configuration or data-shape problem and is surfaced, never
// swallowed.
package detect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"coordscan/pkg/core/normalize"
	"coordscan/pkg/core/tabular"
)

// epsilon guards the percentage-tolerance denominator against near-zero
// median prices.
const epsilon = 1e-9

// buyNature matches acquisition phrasings in registry exports (English and
// Swedish).
var buyNature = regexp.MustCompile(`(?i)(acquisition|purchase|förvärv|köp)`)

// Params configures one detection run.
type Params struct {
	Basis            normalize.Basis
	AbsTol           float64 // absolute price span tolerance
	PctTol           float64 // span tolerance as fraction of the median price
	MinBuyers        int     // distinct normalized buyers a group needs
	KeepHistory      bool    // retain superseded/history rows
	PreferRevised    bool    // collapse duplicate keys onto the best status
	AcquisitionCodes map[string]bool
}

// DefaultParams mirrors the conventional run configuration.
func DefaultParams() Params {
	return Params{
		Basis:            normalize.ByPublication,
		AbsTol:           0.02,
		PctTol:           0.003,
		MinBuyers:        2,
		PreferRevised:    true,
		AcquisitionCodes: map[string]bool{"P": true, "A": true, "C": true},
	}
}

// Flags is the per-row detection result. SpanAbs/SpanPct are empty strings
// when the row belongs to no coordinated group, matching the nullable CSV
// representation.
type Flags struct {
	Coordinated bool
	Buyers      int
	SpanAbs     string
	SpanPct     string
	Basis       string
}

// row is the working view of one input row; Orig points back at its
// position in the original table so flags can be overlaid by identity.
type row struct {
	Orig       int
	Issuer     string
	GroupDate  string
	TxDate     string
	BuyerKey   string
	Currency   string
	ISIN       string
	Instrument string
	Status     string
	Price      *float64
	Volume     *float64
	IsBuy      bool
}

// Compute runs dedup then coordination grouping on a normalized table and
// returns flags aligned one-to-one with the table's rows. The table must
// already carry canonical column names (see normalize.Headers).
func Compute(t *tabular.Table, p Params) ([]Flags, error) {
	if err := normalize.Require(t, normalize.ColIssuer); err != nil {
		return nil, err
	}
	if !t.HasCol(normalize.ColNature) && !t.HasCol(normalize.ColCode) {
		return nil, fmt.Errorf("missing columns after normalization: %s or %s",
			normalize.ColNature, normalize.ColCode)
	}

	rows, err := buildRows(t, p)
	if err != nil {
		return nil, err
	}

	// Grouping operates on buy rows with a usable date, deduplicated
	// first so re-published submissions cannot inflate buyer counts or
	// widen price spans.
	var buys []row
	for _, r := range rows {
		if r.IsBuy && r.GroupDate != "" {
			buys = append(buys, r)
		}
	}
	buys = dedupe(buys, p, t.HasCol(normalize.ColStatus))

	flags := make([]Flags, len(rows))
	basis := p.Basis.Label()
	for i := range flags {
		flags[i] = Flags{Basis: basis}
	}

	groups := make(map[string][]row)
	for _, r := range buys {
		groups[groupKey(r)] = append(groups[groupKey(r)], r)
	}

	// Sorted key iteration keeps the pass deterministic even though group
	// results are independent of each other.
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		group := groups[k]

		distinct := make(map[string]bool)
		var prices []float64
		for _, r := range group {
			if r.BuyerKey != "" {
				distinct[r.BuyerKey] = true
			}
			if r.Price != nil {
				prices = append(prices, *r.Price)
			}
		}
		if len(distinct) < p.MinBuyers || len(prices) < p.MinBuyers {
			continue
		}

		sort.Float64s(prices)
		pmin, pmax := prices[0], prices[len(prices)-1]
		pmed := median(prices)
		span := pmax - pmin

		denom := pmed
		if denom < epsilon {
			denom = epsilon
		}
		if !(span <= p.AbsTol || span <= p.PctTol*denom) {
			continue
		}

		// Annotate every original row of the partition, not only the
		// buy rows that qualified the group.
		g := group[0]
		for _, r := range rows {
			if r.Issuer != g.Issuer || r.GroupDate != g.GroupDate {
				continue
			}
			if r.Currency != g.Currency || r.ISIN != g.ISIN {
				continue
			}
			flags[r.Orig] = Flags{
				Coordinated: true,
				Buyers:      len(distinct),
				SpanAbs:     formatFloat(span),
				SpanPct:     formatFloat(span / denom),
				Basis:       basis,
			}
		}
	}
	return flags, nil
}

func buildRows(t *tabular.Table, p Params) ([]row, error) {
	dates, err := normalize.GroupDates(t, p.Basis)
	if err != nil {
		return nil, err
	}
	buyers := normalize.BuyerKeys(t)

	rows := make([]row, len(t.Rows))
	for i := range t.Rows {
		r := row{
			Orig:       i,
			Issuer:     strings.TrimSpace(t.Get(i, normalize.ColIssuer)),
			GroupDate:  dates[i],
			BuyerKey:   buyers[i],
			Currency:   strings.TrimSpace(t.Get(i, normalize.ColCurrency)),
			ISIN:       strings.TrimSpace(t.Get(i, normalize.ColISIN)),
			Instrument: strings.TrimSpace(t.Get(i, normalize.ColInstrument)),
			Status:     strings.TrimSpace(t.Get(i, normalize.ColStatus)),
		}
		if d, ok := normalize.Date(t.Get(i, normalize.ColTxDate)); ok {
			r.TxDate = d
		}
		if v, ok := normalize.Float(t.Get(i, normalize.ColPrice)); ok {
			r.Price = &v
		}
		if v, ok := normalize.Float(t.Get(i, normalize.ColVolume)); ok {
			r.Volume = &v
		}
		r.IsBuy = isBuy(t, i, p)
		rows[i] = r
	}
	return rows, nil
}

// isBuy prefers the structured transaction code against the acquisition
// code set; registry rows without codes fall back to the nature phrasing.
func isBuy(t *tabular.Table, i int, p Params) bool {
	if t.HasCol(normalize.ColCode) {
		code := strings.ToUpper(strings.TrimSpace(t.Get(i, normalize.ColCode)))
		if code != "" {
			return p.AcquisitionCodes[code]
		}
	}
	if t.HasCol(normalize.ColNature) {
		return buyNature.MatchString(t.Get(i, normalize.ColNature))
	}
	return false
}

func groupKey(r row) string {
	return strings.Join([]string{r.Issuer, r.GroupDate, r.Currency, r.ISIN}, "\x1f")
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
