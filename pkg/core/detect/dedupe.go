package detect

import (
	"strconv"
	"strings"
)

// Status ranks for duplicate collapsing: a revised publication supersedes
// the original notification; anything else ranks below both.
func statusRank(status string) int {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "revised":
		return 2
	case "notification":
		return 1
	}
	return 0
}

// dedupe removes duplicate submissions caused by revision/history
// publications. Two independently disableable stages:
//
//  1. drop rows whose status marks them superseded ("History"),
//  2. within rows sharing a dedup key, keep only the best-ranked status
//     (ties resolved first-seen after a stable rank-descending sort).
//
// Running it twice yields the same result as running it once.
func dedupe(rows []row, p Params, hasStatus bool) []row {
	if !p.KeepHistory && hasStatus {
		kept := rows[:0:0]
		for _, r := range rows {
			if strings.EqualFold(r.Status, "history") {
				continue
			}
			kept = append(kept, r)
		}
		rows = kept
	}

	if !p.PreferRevised || !hasStatus {
		return rows
	}

	// Stable selection sort by rank: walk ranks high to low, keeping the
	// first row seen per key. Input order within a rank is preserved.
	seen := make(map[string]bool, len(rows))
	var out []row
	for rank := 2; rank >= 0; rank-- {
		for _, r := range rows {
			if statusRank(r.Status) != rank {
				continue
			}
			k := dedupKey(r)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, r)
		}
	}

	// Restore original row order; the sort above only decided survival.
	ordered := make([]row, 0, len(out))
	surviving := make(map[int]bool, len(out))
	for _, r := range out {
		surviving[r.Orig] = true
	}
	for _, r := range rows {
		if surviving[r.Orig] {
			ordered = append(ordered, r)
		}
	}
	return ordered
}

// dedupKey is the composite identity of one trade across re-publications.
func dedupKey(r row) string {
	return strings.Join([]string{
		r.Issuer,
		r.GroupDate,
		r.TxDate,
		r.BuyerKey,
		floatKey(r.Price),
		floatKey(r.Volume),
		r.Currency,
		r.ISIN,
		r.Instrument,
	}, "\x1f")
}

func floatKey(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}
