package validation

import (
	"strings"
	"testing"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
)

func TestValidateInput(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain text", "take with food", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a ", 150), true},
		{"script tag", "<script>alert(1)</script>", true},
		{"sql union", "x union select password", true},
		{"sql comment", "lisinopril--", true},
		{"command substitution", "name$(rm -rf)", true},
		{"path traversal", "../../etc/passwd", true},
		{"nosql operator", `{$ne: null}`, true},
		{"excessive repetition", strings.Repeat("a", 30), true},
		{"normal repetition", "aspirin 325mg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInput(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInput(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMedicationName(t *testing.T) {
	v := NewValidator()

	valid := []string{
		"Lisinopril",
		"Metformin HCl",
		"Aspirin 81",
		"Co-trimoxazole",
		"Caféine", // accented brands accepted too
		"Vitamin B-12 (cyanocobalamin)",
	}
	for _, name := range valid {
		if err := v.ValidateMedicationName(name); err != nil {
			t.Errorf("ValidateMedicationName(%q) failed: %v", name, err)
		}
	}

	invalid := []string{
		"",
		"med<script>",
		"name;drop",
		strings.Repeat("x", 150),
	}
	for _, name := range invalid {
		if err := v.ValidateMedicationName(name); err == nil {
			t.Errorf("ValidateMedicationName(%q) succeeded, want error", name)
		}
	}
}

func TestValidatePatientFactors(t *testing.T) {
	v := NewValidator()

	age := 45
	weight := 70.0
	ccl := 85.0
	good := &entities.PatientFactors{
		Age:                 &age,
		WeightKg:            &weight,
		CreatinineClearance: &ccl,
		LiverFunction:       "mild impairment",
		Conditions:          []string{"hypertension", "type 2 diabetes"},
	}
	if err := v.ValidatePatientFactors(good); err != nil {
		t.Fatalf("valid factors rejected: %v", err)
	}

	if err := v.ValidatePatientFactors(nil); err != nil {
		t.Errorf("nil factors rejected: %v", err)
	}

	badAge := 200
	if err := v.ValidatePatientFactors(&entities.PatientFactors{Age: &badAge}); err == nil {
		t.Error("age 200 accepted")
	}

	badWeight := -5.0
	if err := v.ValidatePatientFactors(&entities.PatientFactors{WeightKg: &badWeight}); err == nil {
		t.Error("negative weight accepted")
	}

	if err := v.ValidatePatientFactors(&entities.PatientFactors{
		Conditions: []string{"hypertension' or 1=1"},
	}); err == nil {
		t.Error("injection in condition accepted")
	}
}

func TestValidateMedicationList(t *testing.T) {
	v := NewValidator()

	if err := v.ValidateMedicationList(nil); err == nil {
		t.Error("empty list accepted")
	}

	meds := []entities.Medication{
		{Name: "Lisinopril", Dosage: "10mg", Frequency: "once daily"},
		{Name: "Metformin", Dosage: "500mg", Frequency: "twice daily"},
	}
	if err := v.ValidateMedicationList(meds); err != nil {
		t.Errorf("valid list rejected: %v", err)
	}

	big := make([]entities.Medication, 101)
	for i := range big {
		big[i] = entities.Medication{Name: "Aspirin"}
	}
	if err := v.ValidateMedicationList(big); err == nil {
		t.Error("oversized list accepted")
	}
}
