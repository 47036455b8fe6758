package edgar

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// OwnershipSignature is the root-element marker a resolved document must
// carry before it is accepted as an ownership filing.
const OwnershipSignature = "<ownershipDocument"

// Wire structs for the ownership XML. footnoteId elements may hang off the
// date, coding or amounts blocks; all of them reference the same footnote
// table at the document level.
type ownershipDocument struct {
	PeriodOfReport string `xml:"periodOfReport"`
	Issuer         struct {
		Name   string `xml:"issuerName"`
		Symbol string `xml:"issuerTradingSymbol"`
	} `xml:"issuer"`
	Owners []struct {
		ID struct {
			Name string `xml:"rptOwnerName"`
		} `xml:"reportingOwnerId"`
		Relationship struct {
			IsTenPercentOwner string `xml:"isTenPercentOwner"`
		} `xml:"reportingOwnerRelationship"`
	} `xml:"reportingOwner"`
	NonDerivative struct {
		Transactions []ownershipTransaction `xml:"nonDerivativeTransaction"`
	} `xml:"nonDerivativeTable"`
	Footnotes []struct {
		ID   string `xml:"id,attr"`
		Text string `xml:",chardata"`
	} `xml:"footnotes>footnote"`
	Remarks string `xml:"remarks"`
}

type ownershipTransaction struct {
	Date struct {
		Value     string        `xml:"value"`
		Footnotes []footnoteRef `xml:"footnoteId"`
	} `xml:"transactionDate"`
	Coding struct {
		Code      string        `xml:"transactionCode"`
		Footnotes []footnoteRef `xml:"footnoteId"`
	} `xml:"transactionCoding"`
	Amounts struct {
		Shares struct {
			Value     string        `xml:"value"`
			Footnotes []footnoteRef `xml:"footnoteId"`
		} `xml:"transactionShares"`
		PricePerShare struct {
			Value     string        `xml:"value"`
			Footnotes []footnoteRef `xml:"footnoteId"`
		} `xml:"transactionPricePerShare"`
	} `xml:"transactionAmounts"`
}

type footnoteRef struct {
	ID string `xml:"id,attr"`
}

// ParseOwnershipDocument parses one Form 4 XML document into its header and
// the owner x transaction cross product. A filing covering several co-filers
// deliberately yields one row per owner for each trade.
//
// A transaction missing a structured price falls back to its referenced
// footnotes, then the document remarks, taking the first text that parses.
func ParseOwnershipDocument(xmlBytes []byte) (OwnershipHeader, []Transaction, error) {
	var doc ownershipDocument
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return OwnershipHeader{}, nil, fmt.Errorf("failed to parse ownership XML: %w", err)
	}

	header := OwnershipHeader{
		IssuerName:     strings.TrimSpace(doc.Issuer.Name),
		IssuerSymbol:   strings.TrimSpace(doc.Issuer.Symbol),
		PeriodOfReport: strings.TrimSpace(doc.PeriodOfReport),
		Remarks:        strings.TrimSpace(doc.Remarks),
	}

	footnotes := make(map[string]string, len(doc.Footnotes))
	for _, fn := range doc.Footnotes {
		if fn.ID != "" {
			footnotes[fn.ID] = strings.TrimSpace(fn.Text)
		}
	}

	var rows []Transaction
	for _, tx := range doc.NonDerivative.Transactions {
		price := strings.TrimSpace(tx.Amounts.PricePerShare.Value)

		var hint *PriceHint
		if price == "" {
			hint = recoverNotePrice(tx, footnotes, header.Remarks)
		}

		for _, o := range doc.Owners {
			rows = append(rows, Transaction{
				OwnerName:     strings.TrimSpace(o.ID.Name),
				IsTenPercent:  parseXMLBool(o.Relationship.IsTenPercentOwner),
				Code:          strings.TrimSpace(tx.Coding.Code),
				Date:          strings.TrimSpace(tx.Date.Value),
				Shares:        strings.TrimSpace(tx.Amounts.Shares.Value),
				PricePerShare: price,
				NotePrice:     hint,
			})
		}
	}
	return header, rows, nil
}

// recoverNotePrice walks the transaction's footnote references in document
// order, with remarks as a last resort. The first text yielding a price
// wins; later footnotes are not examined.
func recoverNotePrice(tx ownershipTransaction, footnotes map[string]string, remarks string) *PriceHint {
	var texts []string
	for _, ref := range noteRefs(tx) {
		if txt, ok := footnotes[ref]; ok && txt != "" {
			texts = append(texts, txt)
		}
	}
	if remarks != "" {
		texts = append(texts, remarks)
	}
	for _, txt := range texts {
		if hint := ParsePriceFromText(txt); hint != nil {
			return hint
		}
	}
	return nil
}

func noteRefs(tx ownershipTransaction) []string {
	var ids []string
	for _, group := range [][]footnoteRef{
		tx.Date.Footnotes,
		tx.Coding.Footnotes,
		tx.Amounts.Shares.Footnotes,
		tx.Amounts.PricePerShare.Footnotes,
	} {
		for _, ref := range group {
			if ref.ID != "" {
				ids = append(ids, ref.ID)
			}
		}
	}
	return ids
}

func parseXMLBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	}
	return false
}
