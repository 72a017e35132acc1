package filters

import (
	"strconv"
	"strings"
)

// CompareVersions compares two dotted version strings component-wise,
// left to right, padding the shorter version with zeros. Numeric
// components compare as integers, so "1.9" < "1.10" and "1.2" equals
// "1.2.0". Non-numeric components fall back to string comparison.
// Returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		ac, bc := "0", "0"
		if i < len(as) {
			ac = as[i]
		}
		if i < len(bs) {
			bc = bs[i]
		}

		ai, aerr := strconv.Atoi(ac)
		bi, berr := strconv.Atoi(bc)
		if aerr == nil && berr == nil {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			}
			continue
		}

		// Not reachable from validated configuration, but keep a total
		// order for arbitrary input.
		if c := strings.Compare(ac, bc); c != 0 {
			return c
		}
	}
	return 0
}
