package normalize

import (
	"testing"

	"coordscan/pkg/core/tabular"
)

func TestHeadersBilingual(t *testing.T) {
	sv := tabular.New([]string{
		"Publiceringsdatum", "Emittent", "Person i ledande ställning",
		"Närstående", "Karaktär", "Instrumentnamn", "ISIN",
		"Transaktionsdatum", "Volym", "Volymsenhet", "Pris", "Valuta", "Status",
	})
	got := Headers(sv)
	want := []string{
		ColPubDate, ColIssuer, ColBuyer, ColAssociated, ColNature,
		ColInstrument, ColISIN, ColTxDate, ColVolume, "unit",
		ColPrice, ColCurrency, ColStatus,
	}
	for i, w := range want {
		if got.Headers[i] != w {
			t.Errorf("header %d = %q, want %q", i, got.Headers[i], w)
		}
	}
}

func TestHeadersFootnoteMarkers(t *testing.T) {
	in := tabular.New([]string{
		"Closely associated (1)", "Person discharging managerial responsibilities *",
	})
	got := Headers(in)
	if got.Headers[0] != ColAssociated {
		t.Errorf("decorated associated header = %q", got.Headers[0])
	}
	if got.Headers[1] != ColBuyer {
		t.Errorf("decorated buyer header = %q", got.Headers[1])
	}
}

func TestHeadersCollision(t *testing.T) {
	in := tabular.New([]string{"Price", "Pris"})
	got := Headers(in)
	if got.Headers[0] != ColPrice || got.Headers[1] != "price_1" {
		t.Errorf("collision headers = %v", got.Headers)
	}
}

func TestHeadersUSExport(t *testing.T) {
	in := tabular.New([]string{"buyer", "issuer", "trade_date", "filing_date", "transaction_code", "shares", "price"})
	got := Headers(in)
	want := []string{ColBuyer, ColIssuer, ColTxDate, ColPubDate, ColCode, ColVolume, ColPrice}
	for i, w := range want {
		if got.Headers[i] != w {
			t.Errorf("header %d = %q, want %q", i, got.Headers[i], w)
		}
	}
}

func TestRequire(t *testing.T) {
	tbl := tabular.New([]string{ColIssuer, ColPrice})
	if err := Require(tbl, ColIssuer, ColPrice); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Require(tbl, ColIssuer, ColBuyer, ColVolume); err == nil {
		t.Errorf("expected error naming the missing columns")
	}
}

func TestParseBasis(t *testing.T) {
	for _, s := range []string{"", "publication", " Publication "} {
		b, err := ParseBasis(s)
		if err != nil || b != ByPublication {
			t.Errorf("ParseBasis(%q) = %v, %v", s, b, err)
		}
	}
	b, err := ParseBasis("transaction")
	if err != nil || b != ByTransaction {
		t.Errorf("ParseBasis(transaction) = %v, %v", b, err)
	}
	if _, err := ParseBasis("bogus"); err == nil {
		t.Errorf("expected an error for an unknown basis")
	}

	if ByPublication.Column() != ColPubDate || ByTransaction.Column() != ColTxDate {
		t.Errorf("basis columns wrong")
	}
	if ByPublication.Label() != "issuer-filing-date" || ByTransaction.Label() != "issuer-trade-date" {
		t.Errorf("basis labels wrong")
	}
}

func TestGroupDates(t *testing.T) {
	tbl := tabular.New([]string{ColPubDate, ColIssuer})
	tbl.Append([]string{"2025-08-12", "ACME"})
	tbl.Append([]string{"12/08/2025", "ACME"})
	tbl.Append([]string{"not a date", "ACME"})
	tbl.Append([]string{"", "ACME"})

	dates, err := GroupDates(tbl, ByPublication)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2025-08-12", "2025-08-12", "", ""}
	for i, w := range want {
		if dates[i] != w {
			t.Errorf("date %d = %q, want %q", i, dates[i], w)
		}
	}

	if _, err := GroupDates(tbl, ByTransaction); err == nil {
		t.Errorf("expected an error when the basis column is absent")
	}
}

func TestBuyerKeys(t *testing.T) {
	tbl := tabular.New([]string{ColBuyer, ColAssociated})
	tbl.Append([]string{" Anna Ek ", ""})
	tbl.Append([]string{"Anna Ek", "Bo Ek"})
	keys := BuyerKeys(tbl)
	if keys[0] != "ANNA EK" {
		t.Errorf("key 0 = %q", keys[0])
	}
	if keys[1] != "ANNA EK / BO EK" {
		t.Errorf("key 1 = %q", keys[1])
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-08-12", "2025-08-12", true},
		{"12/08/2025", "2025-08-12", true},
		{"12-08-2025", "2025-08-12", true},
		{" 2025-08-12 ", "2025-08-12", true},
		{"08/12/2025", "2025-12-08", true}, // day-first layout
		{"12/08/2025 10:30", "2025-08-12", true},
		{"2025-08-12 10:30:00", "2025-08-12", true},
		{"", "", false},
		{"yesterday", "", false},
	}
	for _, tc := range tests {
		got, ok := Date(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Date(%q) = %q, %v, want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10.25", 10.25, true},
		{"10,25", 10.25, true},
		{"1 234,5", 1234.5, true},
		{"1\u00a0234,5", 1234.5, true},
		{"-3,5", -3.5, true},
		{"42", 42, true},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, tc := range tests {
		got, ok := Float(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Float(%q) = %v, %v, want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
