package tabular

import (
	"strconv"
	"strings"
)

var currencyReplacer = strings.NewReplacer(",", "", "$", "", "£", "", "€", "", "%", "", " ", "")

// ParseNumber parses a numeric cell, stripping thousands separators,
// currency symbols, and percent signs. UK and US exports format the same
// column differently, so every numeric cell goes through here.
func ParseNumber(cell string) (float64, bool) {
	s := currencyReplacer.Replace(strings.TrimSpace(cell))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseCount parses an integer cell with the same cleanup as ParseNumber.
// Fractional values are truncated.
func ParseCount(cell string) (int, bool) {
	v, ok := ParseNumber(cell)
	if !ok {
		return 0, false
	}
	return int(v), true
}
