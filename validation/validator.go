// Package validation screens user-supplied payloads before they reach the
// clinical engines.
package validation

import (
	"fmt"
	"strings"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/interfaces"
)

const (
	maxNameLength      = 100
	maxFreeTextLength  = 200
	maxConditions      = 20
	maxListSize        = 100
	maxAgeYears        = 150
	maxWeightKg        = 500
	maxCreatinineClear = 300
)

// Substring screening beats regex for these; strings.Contains is a plain
// byte scan.
var dangerousPatterns = []string{
	"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
	"onclick=", "eval(", "expression(", "@import",
	"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
	"--", "/*", "*/", "exec(", "execute(",
	"`", "$(", "${",
	"../", "..\\", "%2e%2e", "file://",
	"{$ne:", "{$gt:", "{$where:", "{$regex:",
}

type Validator struct{}

var _ interfaces.RequestValidator = (*Validator)(nil)

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateInput rejects free text carrying injection payloads or abusive
// repetition.
func (v *Validator) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}
	if len(input) > maxFreeTextLength {
		return fmt.Errorf("input too long: maximum %d characters", maxFreeTextLength)
	}

	lower := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}
	return nil
}

// ValidateMedicationName applies the free-text rules plus the tighter
// character set allowed for drug names. Accented letters stay valid; the
// engines fold them during lookup.
func (v *Validator) ValidateMedicationName(name string) error {
	if err := v.ValidateInput(name); err != nil {
		return fmt.Errorf("medication name: %w", err)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("medication name too long: maximum %d characters", maxNameLength)
	}
	for _, r := range name {
		if !isNameRune(r) {
			return fmt.Errorf("medication name contains invalid character %q", r)
		}
	}
	return nil
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '-', r == '.', r == '\'', r == '/', r == '(', r == ')':
		return true
	case r > 127: // accented brand names
		return true
	}
	return false
}

func (v *Validator) ValidateMedication(med *entities.Medication) error {
	if med == nil {
		return fmt.Errorf("medication is nil")
	}
	if err := v.ValidateMedicationName(med.Name); err != nil {
		return err
	}
	if med.Dosage != "" {
		if err := v.ValidateInput(med.Dosage); err != nil {
			return fmt.Errorf("dosage: %w", err)
		}
	}
	if med.Frequency != "" {
		if err := v.ValidateInput(med.Frequency); err != nil {
			return fmt.Errorf("frequency: %w", err)
		}
	}
	return nil
}

func (v *Validator) ValidatePatientFactors(factors *entities.PatientFactors) error {
	if factors == nil {
		return nil
	}
	if factors.Age != nil && (*factors.Age < 0 || *factors.Age > maxAgeYears) {
		return fmt.Errorf("age out of range: %d", *factors.Age)
	}
	if factors.WeightKg != nil && (*factors.WeightKg <= 0 || *factors.WeightKg > maxWeightKg) {
		return fmt.Errorf("weight out of range: %g", *factors.WeightKg)
	}
	if factors.CreatinineClearance != nil && (*factors.CreatinineClearance < 0 || *factors.CreatinineClearance > maxCreatinineClear) {
		return fmt.Errorf("creatinine clearance out of range: %g", *factors.CreatinineClearance)
	}
	if factors.LiverFunction != "" {
		if err := v.ValidateInput(factors.LiverFunction); err != nil {
			return fmt.Errorf("liver function: %w", err)
		}
	}
	if len(factors.Conditions) > maxConditions {
		return fmt.Errorf("too many conditions: maximum %d", maxConditions)
	}
	for _, cond := range factors.Conditions {
		if err := v.ValidateInput(cond); err != nil {
			return fmt.Errorf("condition %q: %w", cond, err)
		}
	}
	return nil
}

func (v *Validator) ValidateMedicationList(meds []entities.Medication) error {
	if len(meds) == 0 {
		return fmt.Errorf("medication list cannot be empty")
	}
	if len(meds) > maxListSize {
		return fmt.Errorf("medication list too large: maximum %d entries", maxListSize)
	}
	for i := range meds {
		if err := v.ValidateMedication(&meds[i]); err != nil {
			return fmt.Errorf("medication %d: %w", i, err)
		}
	}
	return nil
}

// hasExcessiveRepetition flags the same byte repeated more than 10 times in
// a row.
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > 10 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
