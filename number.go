package exprtree

import (
	"math"
	"strconv"
	"strings"
)

// ============================================================
// Number formatting
// ============================================================

// FormatNumber renders v for display. Non-zero magnitudes below 1e-3 or at
// or above 1e4 use upper-case exponent form with four fraction digits
// ("1.2346E+4"); everything else is fixed-point with at most digits
// fraction digits and no trailing zeros.
func FormatNumber(v float64, digits int) string {
	if s, ok := nonFinite(v); ok {
		return s
	}
	a := math.Abs(v)
	if a != 0 && (a < 1e-3 || a >= 1e4) {
		return strings.ToUpper(trimExponent(strconv.FormatFloat(v, 'e', 4, 64)))
	}
	if digits < 0 {
		digits = 0
	}
	fixed, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', digits, 64), 64)
	if fixed == 0 {
		fixed = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(fixed, 'f', -1, 64)
}

// plainNumber renders v in shortest round-trip form, switching to exponent
// form only for very large or very small magnitudes.
func plainNumber(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s
	}
	if v == 0 {
		return "0"
	}
	a := math.Abs(v)
	if a >= 1e21 || a < 1e-6 {
		return trimExponent(strconv.FormatFloat(v, 'e', -1, 64))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "Infinity", true
	case math.IsInf(v, -1):
		return "-Infinity", true
	}
	return "", false
}

// trimExponent turns "1.5e-07" into "1.5e-7".
func trimExponent(s string) string {
	i := strings.IndexAny(s, "eE")
	if i < 0 || i+2 >= len(s) {
		return s
	}
	mant, sign, exp := s[:i+1], s[i+1:i+2], strings.TrimLeft(s[i+2:], "0")
	if exp == "" {
		exp = "0"
	}
	return mant + sign + exp
}

// LeafKey is the text a leaf is matched by when joining backend impact
// values onto the tree. Operators have no key.
//
// The join is formatting-sensitive: two distinct leaves that format to the
// same text share one key. ComputeWeights reports such collisions.
func LeafKey(n Node) string {
	switch v := n.(type) {
	case *Constant:
		return FormatNumber(v.Value, 4)
	case *Variable:
		if v.Coefficient == 1 {
			return v.Name
		}
		return FormatNumber(v.Coefficient, 4) + " * " + v.Name
	}
	return ""
}
