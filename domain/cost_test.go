package domain

import (
	"math"
	"testing"
)

func TestCalculateCost(t *testing.T) {
	cases := []struct {
		rate     float64
		duration string
		want     float64
	}{
		{100, "1h", 100},
		{100, "30m", 50},
		{80, "2h 30m", 200},
		{50, "2d", 800},
		{120, "", 0},
		{120, "garbage", 0},
	}
	for _, tc := range cases {
		got := CalculateCost(tc.rate, tc.duration)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("CalculateCost(%v, %q) = %v, want %v", tc.rate, tc.duration, got, tc.want)
		}
	}
}

func TestParseCost(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"150", 150},
		{"150.50", 150.5},
		{"150,50", 150.5},
		{"R$ 1.234,56", 1234.56},
		{"$1,234.56", 1234.56},
		{"USD 99", 99},
		{"free", 0},
	}
	for _, tc := range cases {
		if got := ParseCost(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ParseCost(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
