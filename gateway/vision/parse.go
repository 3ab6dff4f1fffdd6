// Package vision extracts structured medication data from prescription
// label text. Scanning runs in two stages: OCR produces raw text, then the
// field parser pulls out the medication, prescriber and pharmacy with a
// per-field weighted confidence score.
package vision

import (
	"regexp"
	"strings"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/interfaces"
)

// Field weights sum to 1.0. A scan missing the pharmacy line still rates
// 0.9; missing the medication name drops it below the review threshold.
const (
	weightName       = 0.3
	weightDosage     = 0.25
	weightFrequency  = 0.2
	weightPrescriber = 0.15
	weightPharmacy   = 0.1

	reviewThreshold = 0.8
)

var (
	dosagePattern    = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml|units?)\b`)
	frequencyPattern = regexp.MustCompile(`(?i)\b(once daily|twice daily|three times daily|four times daily|every \d+ hours?|at bedtime|as needed|weekly|daily)\b`)
	prescriberLine   = regexp.MustCompile(`(?i)(?:dr\.?|prescriber|prescribed by)[:.\s]+([A-Za-z][A-Za-z .'-]+)`)
	pharmacyLine     = regexp.MustCompile(`(?i)(?:pharmacy|dispensed by)[:.\s]+([A-Za-z][A-Za-z0-9 .'-]+)`)
	// Medication line: a leading word run followed by a strength.
	medicationLine = regexp.MustCompile(`(?i)^([A-Za-z][A-Za-z '-]{2,})\s+\d+(?:\.\d+)?\s*(?:mg|mcg|g|ml|units?)\b`)
)

// ParseLabelText extracts the structured fields from raw label text.
func ParseLabelText(text string) *interfaces.ScanResult {
	result := &interfaces.ScanResult{RawText: text}

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if result.Medication.Name == "" {
			if m := medicationLine.FindStringSubmatch(line); m != nil {
				result.Medication.Name = strings.TrimSpace(m[1])
			}
		}
		if result.Prescriber == "" {
			if m := prescriberLine.FindStringSubmatch(line); m != nil {
				result.Prescriber = strings.TrimSpace(m[1])
			}
		}
		if result.Pharmacy == "" {
			if m := pharmacyLine.FindStringSubmatch(line); m != nil {
				result.Pharmacy = strings.TrimSpace(m[1])
			}
		}
	}

	if m := dosagePattern.FindStringSubmatch(text); m != nil {
		result.Medication.Dosage = strings.ToLower(m[1] + m[2])
	}
	if m := frequencyPattern.FindString(text); m != "" {
		result.Medication.Frequency = strings.ToLower(m)
	}

	result.FieldConfidences = fieldConfidences(result)
	result.Confidence = scanConfidence(result.FieldConfidences)
	result.NeedsReview = result.Confidence < reviewThreshold
	return result
}

// fieldConfidences scores each field 1.0 when extracted and 0 when the
// parser found nothing for it.
func fieldConfidences(result *interfaces.ScanResult) map[string]float64 {
	present := func(v string) float64 {
		if v != "" {
			return 1
		}
		return 0
	}
	return map[string]float64{
		"name":       present(result.Medication.Name),
		"dosage":     present(result.Medication.Dosage),
		"frequency":  present(result.Medication.Frequency),
		"prescriber": present(result.Prescriber),
		"pharmacy":   present(result.Pharmacy),
	}
}

func scanConfidence(fields map[string]float64) float64 {
	return fields["name"]*weightName +
		fields["dosage"]*weightDosage +
		fields["frequency"]*weightFrequency +
		fields["prescriber"]*weightPrescriber +
		fields["pharmacy"]*weightPharmacy
}

// normalizeScan canonicalizes the extracted name for downstream lookups
// while preserving the label spelling in RawText.
func normalizeScan(result *interfaces.ScanResult) {
	result.Medication.Name = strings.TrimSpace(result.Medication.Name)
	if result.Medication.Name != "" {
		// Title-case single-word names as printed labels are often all caps.
		name := entities.NormalizeName(result.Medication.Name)
		if !strings.Contains(name, " ") {
			result.Medication.Name = strings.ToUpper(name[:1]) + name[1:]
		}
	}
}
