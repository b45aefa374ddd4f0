package collection

import "testing"

func TestCoerceProgress(t *testing.T) {
	cases := map[string]int{
		"3":    3,
		" 12 ": 12,
		"2.9":  2,
		"0":    0,
		"":     0,
		"abc":  0,
		"-1":   0,
		"NaN":  0,
		"+Inf": 0,
		"1e12": 2147483647,
	}
	for input, want := range cases {
		if got := CoerceProgress(input); got != want {
			t.Errorf("CoerceProgress(%q) = %d, want %d", input, got, want)
		}
	}
}
