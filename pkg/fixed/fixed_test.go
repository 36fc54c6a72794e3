package fixed

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestToFixed(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		exp    int32
		want   uint64
	}{
		{"whole amount quote precision", "100", 6, 100_000_000},
		{"fractional amount", "0.5", 6, 500_000},
		{"base precision", "1.25", 9, 1_250_000_000},
		{"rounds half up", "0.0000015", 6, 2},
		{"rounds down below half", "0.0000014", 6, 1},
		{"sub-unit rounds to one", "0.00000099", 6, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToFixed(dec(tt.amount), tt.exp)
			if err != nil {
				t.Fatalf("ToFixed(%s, %d) failed: %v", tt.amount, tt.exp, err)
			}
			if got != tt.want {
				t.Errorf("ToFixed(%s, %d) = %d, want %d", tt.amount, tt.exp, got, tt.want)
			}
		})
	}
}

func TestToFixedRejectsNonPositive(t *testing.T) {
	for _, amount := range []string{"0", "-1", "-0.000001"} {
		if _, err := ToFixed(dec(amount), 6); err == nil {
			t.Errorf("ToFixed(%s) should reject non-positive amount", amount)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	// toHuman(toFixed(a, p), p) must equal a within one smallest
	// increment at precision p.
	amounts := []string{"1", "0.000001", "123.456789", "99999.5", "0.1"}
	precisions := []int32{6, 8, 9}

	for _, a := range amounts {
		for _, p := range precisions {
			raw, err := ToFixed(dec(a), p)
			if err != nil {
				t.Fatalf("ToFixed(%s, %d) failed: %v", a, p, err)
			}
			back := ToHuman(raw, p)
			diff := back.Sub(dec(a)).Abs()
			ulp := decimal.New(1, -p)
			if diff.GreaterThan(ulp) {
				t.Errorf("round trip %s at precision %d drifted by %s", a, p, diff)
			}
		}
	}
}

func TestSignedToHuman(t *testing.T) {
	if got := SignedToHuman(-1_500_000, 6); !got.Equal(dec("-1.5")) {
		t.Errorf("SignedToHuman(-1500000, 6) = %s, want -1.5", got)
	}
	if got := SignedToHuman(2_000_000_000, 9); !got.Equal(dec("2")) {
		t.Errorf("SignedToHuman(2e9, 9) = %s, want 2", got)
	}
}

func TestPercentToFixed(t *testing.T) {
	tests := []struct {
		pct  string
		want uint64
	}{
		{"100", 1_000_000},
		{"5", 50_000},
		{"2", 20_000},
		{"0.5", 5_000},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := PercentToFixed(dec(tt.pct))
		if err != nil {
			t.Fatalf("PercentToFixed(%s) failed: %v", tt.pct, err)
		}
		if got != tt.want {
			t.Errorf("PercentToFixed(%s) = %d, want %d", tt.pct, got, tt.want)
		}
	}

	if _, err := PercentToFixed(dec("-1")); err == nil {
		t.Error("PercentToFixed(-1) should fail")
	}
}

func TestFixedToPercent(t *testing.T) {
	if got := FixedToPercent(50_000); !got.Equal(dec("5")) {
		t.Errorf("FixedToPercent(50000) = %s, want 5", got)
	}
	if got := FixedToPercent(1_000_000); !got.Equal(dec("100")) {
		t.Errorf("FixedToPercent(1000000) = %s, want 100", got)
	}
}
