package entities

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Medication is a single entry of a patient's medication list. Dosage and
// frequency are free-text expressions as entered or scanned ("10mg",
// "twice daily"); the engines parse what they can and skip what they cannot.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

// Key returns the normalized rule-table lookup key for the medication name.
func (m Medication) Key() string {
	return NormalizeName(m.Name)
}

// PatientFactors carries the optional patient data that drives the clinical
// rules. A nil field means the corresponding checks do not fire.
type PatientFactors struct {
	Age                 *int     `json:"age,omitempty"`
	WeightKg            *float64 `json:"weight_kg,omitempty"`
	CreatinineClearance *float64 `json:"creatinine_clearance,omitempty"`
	LiverFunction       string   `json:"liver_function,omitempty"`
	Conditions          []string `json:"conditions,omitempty"`
	IsPregnant          bool     `json:"is_pregnant,omitempty"`
}

// nameFolder strips diacritics so that accented brand names match their
// rule-table keys (NFD decompose, drop combining marks, recompose).
var nameFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases, trims and accent-folds a medication or condition
// name into the canonical form used as a rule-table key.
func NormalizeName(name string) string {
	folded, _, err := transform.String(nameFolder, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
