package utils

import "testing"

func TestPercentOfRoundsToNearestMinorUnit(t *testing.T) {
	cases := []struct {
		amount  int64
		percent float64
		want    int64
	}{
		{10000, 15, 1500},
		{10000, 2.5, 250},
		{10000, 1.5, 150},
		{333, 15, 50},   // 49.95 rounds up
		{333, 1.0, 3},   // 3.33 rounds down
		{20, 1.0, 0},    // below half a unit
		{1, 50, 1},      // 0.5 rounds away from zero
		{0, 15, 0},
	}
	for _, c := range cases {
		if got := PercentOf(c.amount, c.percent); got != c.want {
			t.Fatalf("PercentOf(%d, %v) = %d, want %d", c.amount, c.percent, got, c.want)
		}
	}
}

func TestSplitFeeSumsBackToAmount(t *testing.T) {
	for _, amount := range []int64{1, 99, 333, 10000, 123457} {
		fee, net := SplitFee(amount, 15)
		if fee+net != amount {
			t.Fatalf("SplitFee(%d, 15): fee %d + net %d != amount", amount, fee, net)
		}
		if fee < 0 || net < 0 {
			t.Fatalf("SplitFee(%d, 15) produced negative part: fee %d net %d", amount, fee, net)
		}
	}

	fee, net := SplitFee(10000, 15)
	if fee != 1500 || net != 8500 {
		t.Fatalf("SplitFee(10000, 15) = (%d, %d), want (1500, 8500)", fee, net)
	}
}

func TestFormatMinorUnits(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{150050, "1500.50"},
		{100, "1.00"},
		{5, "0.05"},
		{-2550, "-25.50"},
		{0, "0.00"},
	}
	for _, c := range cases {
		if got := FormatMinorUnits(c.amount); got != c.want {
			t.Fatalf("FormatMinorUnits(%d) = %q, want %q", c.amount, got, c.want)
		}
	}
}
