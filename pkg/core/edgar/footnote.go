package edgar

import (
	"regexp"
	"strconv"
	"strings"
)

// Price phrasings seen in ownership footnotes, in priority order. A footnote
// mentioning both a range and a bare amount resolves to the range.
var (
	noteRange = regexp.MustCompile(
		`(?i)from\s*\$?\s*([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]+)?)\s*to\s*\$?\s*([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]+)?)`)
	noteWeightedAvg = regexp.MustCompile(
		`(?i)weighted average (?:price|purchase price)\s*of\s*\$?\s*([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]+)?)`)
	noteMoney = regexp.MustCompile(
		`\$?\s*([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]+)?)`)
)

// ParsePriceFromText scans free text for a usable price. Returns nil when
// nothing parseable is found.
func ParsePriceFromText(text string) *PriceHint {
	text = strings.ReplaceAll(text, "\u00a0", " ")

	if m := noteRange.FindStringSubmatch(text); m != nil {
		lo, err1 := parseMoney(m[1])
		hi, err2 := parseMoney(m[2])
		if err1 == nil && err2 == nil {
			return &PriceHint{Avg: (lo + hi) / 2, Min: &lo, Max: &hi}
		}
	}
	if m := noteWeightedAvg.FindStringSubmatch(text); m != nil {
		if v, err := parseMoney(m[1]); err == nil {
			return &PriceHint{Avg: v}
		}
	}
	if m := noteMoney.FindStringSubmatch(text); m != nil {
		if v, err := parseMoney(m[1]); err == nil {
			return &PriceHint{Avg: v}
		}
	}
	return nil
}

func parseMoney(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
