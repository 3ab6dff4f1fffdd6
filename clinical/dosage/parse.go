package dosage

import (
	"regexp"
	"strconv"
	"strings"
)

// dosePattern matches expressions like "10mg", "2.5 mg", "1000 mcg", "5 ml",
// "80 units", "10 mEq" and "100 IU".
var dosePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml|units?|meq|iu)`)

// ParseDose extracts the numeric value and normalized unit from a free-text
// dosage expression. IU and unit/units collapse to the canonical "units".
// ok is false when no dose-with-unit token is present.
func ParseDose(expr string) (value float64, unit string, ok bool) {
	match := dosePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(expr)))
	if match == nil {
		return 0, "", false
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, "", false
	}

	unit = match[2]
	switch unit {
	case "unit", "units", "iu":
		unit = "units"
	}
	return value, unit, true
}
