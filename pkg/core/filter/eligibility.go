// Package filter applies the eligibility rules that decide which extracted
// transactions are worth keeping. It is a pure filter: rows are dropped,
// never mutated, and malformed fields drop the row instead of erroring.
package filter

import (
	"regexp"
	"strings"

	"coordscan/pkg/core/edgar"
)

// Classifier decides whether a reporting-owner name looks like a natural
// person or a corporate entity. Jurisdictions supply their own heuristic
// without touching the grouping or dedup core.
type Classifier interface {
	LikelyIndividual(name string) bool
	LikelyCorporate(name string) bool
}

// Config holds the eligibility rules for one run.
type Config struct {
	AllowedCodes      map[string]bool
	RequireTenPercent bool
	KeepOTC           bool
	Classifier        Classifier
}

// NewConfig builds a config from a comma-style code list, defaulting the
// classifier to the US name heuristic.
func NewConfig(codes []string, requireTenPercent, keepOTC bool) Config {
	allowed := make(map[string]bool, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			allowed[c] = true
		}
	}
	return Config{
		AllowedCodes:      allowed,
		RequireTenPercent: requireTenPercent,
		KeepOTC:           keepOTC,
		Classifier:        USNameClassifier{},
	}
}

// KeepIssuer reports whether an issuer's rows survive the OTC screen. An
// empty symbol, a dotted symbol or one longer than six characters looks
// over-the-counter or foreign.
func (c Config) KeepIssuer(symbol string) bool {
	if c.KeepOTC {
		return true
	}
	symbol = strings.TrimSpace(symbol)
	return symbol != "" && !strings.Contains(symbol, ".") && len(symbol) <= 6
}

// Apply filters one document's transactions. Dropping the whole issuer and
// dropping individual rows compose; the corporate check wins when a name
// matches both patterns.
func (c Config) Apply(header edgar.OwnershipHeader, txs []edgar.Transaction) []edgar.Transaction {
	if !c.KeepIssuer(header.IssuerSymbol) {
		return nil
	}
	kept := make([]edgar.Transaction, 0, len(txs))
	for _, t := range txs {
		if c.RequireTenPercent && !t.IsTenPercent {
			continue
		}
		if c.Classifier != nil &&
			c.Classifier.LikelyIndividual(t.OwnerName) && !c.Classifier.LikelyCorporate(t.OwnerName) {
			continue
		}
		if !c.AllowedCodes[strings.ToUpper(strings.TrimSpace(t.Code))] {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// USNameClassifier is the default heuristic for SEC reporting-owner names.
type USNameClassifier struct{}

var (
	corpSuffix = regexp.MustCompile(
		`(?i)\b(inc\.?|corporation|corp\.?|ltd\.?|plc|ag|nv|s\.a\.|gmbh|holdings?|group|co\.?)\b`)
	corpLegal = regexp.MustCompile(
		`(?i)\b(LP|LLC|LLP|L\.P\.|L\.L\.C\.)\b`)
	individualName = regexp.MustCompile(
		`^[A-Z][a-z]+(?:\s+[A-Z]\.)?(?:\s+[A-Z][a-z]+){1,2}$`)
)

// LikelyCorporate matches legal-entity suffixes, partnership markers, or
// long all-caps names.
func (USNameClassifier) LikelyCorporate(name string) bool {
	if corpSuffix.MatchString(name) || corpLegal.MatchString(name) {
		return true
	}
	return len(strings.Fields(name)) >= 3 && name == strings.ToUpper(name) && name != strings.ToLower(name)
}

// LikelyIndividual matches typical "First M. Last" person names that carry
// no corporate marker.
func (c USNameClassifier) LikelyIndividual(name string) bool {
	return individualName.MatchString(name) && !c.LikelyCorporate(name)
}
