// Package utils provides number formatting shared by the CLI, the SVG
// snapshot and the API.
package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatNumber formats a value with thousands grouping and two decimals
// (12,345.60). Non-finite values render as "-".
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	negative := v < 0
	v = math.Abs(v)

	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, decPart, _ := strings.Cut(s, ".")

	formatted := groupThousands(intPart) + "." + decPart
	if negative {
		return "-" + formatted
	}
	return formatted
}

// FormatCompact formats a value in short notation.
// e.g., 1500 → "1.5K", 2500000 → "2.5M"
func FormatCompact(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	switch {
	case v >= 1e9:
		return sign + trimDecimals(v/1e9) + "B"
	case v >= 1e6:
		return sign + trimDecimals(v/1e6) + "M"
	case v >= 1e3:
		return sign + trimDecimals(v/1e3) + "K"
	default:
		return sign + trimDecimals(v)
	}
}

// FormatStrike prints a strike without trailing zeros (100, 102.5).
func FormatStrike(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatMetric picks a rendering suited to the metric family: greeks keep
// four decimals, volume goes compact, IV reads as a percentage and the rest
// use FormatNumber.
func FormatMetric(metric string, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	base := strings.TrimSuffix(metric, ".1")
	switch base {
	case "Delta", "Gamma":
		return strconv.FormatFloat(v, 'f', 4, 64)
	case "Volume":
		return FormatCompact(v)
	case "IV":
		// quote tables carry IV as a fraction
		return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
	default:
		return FormatNumber(v)
	}
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// trimDecimals formats with up to 2 decimal places, removing trailing zeros.
func trimDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
