package edgar

import "testing"

func TestParsePriceFromText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantAvg float64
		wantMin *float64
		wantMax *float64
		wantNil bool
	}{
		{
			name:    "range",
			text:    "Shares were purchased at prices ranging from $10.00 to $10.50 per share.",
			wantAvg: 10.25,
			wantMin: fptr(10.00),
			wantMax: fptr(10.50),
		},
		{
			name: "range beats bare amount",
			text: "The sale of 1,000 shares from $12.00 to $13.00; commission of $5.00 applied.",
			// Both a range phrase and bare amounts are present; the
			// range wins.
			wantAvg: 12.5,
			wantMin: fptr(12.00),
			wantMax: fptr(13.00),
		},
		{
			name:    "weighted average",
			text:    "Reflects a weighted average price of $25.4321.",
			wantAvg: 25.4321,
		},
		{
			name:    "weighted average purchase price",
			text:    "weighted average purchase price of $1,024.50",
			wantAvg: 1024.50,
		},
		{
			name:    "bare amount with thousands separator",
			text:    "Acquired at $1,234.56 in a private placement.",
			wantAvg: 1234.56,
		},
		{
			name:    "no price",
			text:    "Represents shares held by a family trust.",
			wantNil: true,
		},
		{
			name:    "empty",
			text:    "",
			wantNil: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParsePriceFromText(tc.text)
			if tc.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected a price, got nil")
			}
			if got.Avg != tc.wantAvg {
				t.Errorf("Avg = %v, want %v", got.Avg, tc.wantAvg)
			}
			checkOptFloat(t, "Min", got.Min, tc.wantMin)
			checkOptFloat(t, "Max", got.Max, tc.wantMax)
		})
	}
}

func fptr(f float64) *float64 { return &f }

func checkOptFloat(t *testing.T, name string, got, want *float64) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("%s = %v, want nil", name, *got)
	case want != nil && got == nil:
		t.Errorf("%s = nil, want %v", name, *want)
	case want != nil && got != nil && *got != *want:
		t.Errorf("%s = %v, want %v", name, *got, *want)
	}
}
