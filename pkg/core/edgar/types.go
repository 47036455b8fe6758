// Package edgar provides functionality for locating and parsing SEC EDGAR
// ownership filings (Form 4 and amendments).
//
// This package uses the following external libraries:
//   - github.com/PuerkitoBio/goquery: HTML traversal for the filing index
//     page fallback when the well-known document paths miss
package edgar

import "time"

// ArchivesBaseURL is the root of the EDGAR document archive. Everything
// else is addressed relative to it, so tests can point the pipeline at a
// local server.
const ArchivesBaseURL = "https://www.sec.gov/Archives/"

// FilingRef identifies one row of the daily index. Immutable once parsed.
type FilingRef struct {
	CIK         string
	CompanyName string
	FormType    string
	DateFiled   string // YYYY-MM-DD
	TxtPath     string // e.g. edgar/data/123456/0000123456-25-000123.txt
}

// AccessionDirURL returns the archive directory holding the filing's
// individual documents, under the given archive root.
func (f FilingRef) AccessionDirURL(base string) string {
	dir, acc := splitTxtPath(f.TxtPath)
	return base + dir + acc + "/"
}

// AccessionURL returns the canonical archive URL recorded in output rows.
func (f FilingRef) AccessionURL(base string) string {
	dir, acc := splitTxtPath(f.TxtPath)
	return base + dir + acc
}

func splitTxtPath(txtPath string) (dir, accession string) {
	i := len(txtPath) - 1
	for i >= 0 && txtPath[i] != '/' {
		i--
	}
	dir = txtPath[:i+1]
	accession = txtPath[i+1:]
	if len(accession) > 4 && accession[len(accession)-4:] == ".txt" {
		accession = accession[:len(accession)-4]
	}
	return dir, accession
}

// QuarterOf returns the EDGAR quarter (1-4) for a date.
func QuarterOf(d time.Time) int {
	return (int(d.Month())-1)/3 + 1
}

// OwnershipHeader holds the per-document fields shared by every transaction.
type OwnershipHeader struct {
	IssuerName     string
	IssuerSymbol   string
	PeriodOfReport string
	Remarks        string
}

// PriceHint is a price recovered from footnote or remarks text when the
// structured price field is blank. Min/Max are set only for range phrasings.
type PriceHint struct {
	Avg float64
	Min *float64
	Max *float64
}

// Transaction is one reporting-owner x transaction pairing from a single
// ownership document. One filing covering several co-filers emits one
// Transaction per owner for each reported trade.
type Transaction struct {
	OwnerName       string
	IsTenPercent    bool
	Code            string
	Date            string // YYYY-MM-DD as reported
	Shares          string
	PricePerShare   string // raw structured value, may be ""
	NotePrice       *PriceHint
}

// Price returns the structured price when present, otherwise the footnote
// average, otherwise "".
func (t Transaction) Price() string {
	if t.PricePerShare != "" {
		return t.PricePerShare
	}
	if t.NotePrice != nil {
		return trimFloat(t.NotePrice.Avg)
	}
	return ""
}
