package spice

import (
	"math"
	"strconv"
)

var scales = []struct {
	factor float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "G"},
	{1e6, "Meg"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "u"},
	{1e-9, "n"},
	{1e-12, "p"},
	{1e-15, "f"},
}

// FormatValue renders v with a SPICE engineering suffix (1.5e-15 -> "1.5f")
// followed by unit.
func FormatValue(v float64, unit string) string {
	abs := math.Abs(v)
	if abs == 0 {
		return "0" + unit
	}
	for _, s := range scales {
		if abs >= s.factor*(1-1e-9) {
			return strconv.FormatFloat(v/s.factor, 'g', 6, 64) + s.suffix + unit
		}
	}
	return strconv.FormatFloat(v, 'g', 6, 64) + unit
}
