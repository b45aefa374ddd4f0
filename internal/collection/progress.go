package collection

import (
	"math"
	"strconv"
	"strings"
)

// CoerceProgress converts user input into a season or episode number.
// Anything that is not a finite non-negative number becomes 0; fractions are truncated.
func CoerceProgress(value string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}
