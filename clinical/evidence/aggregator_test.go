package evidence

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
)

func intPtr(v int) *int { return &v }

type failingSource struct{ name string }

func (f failingSource) Name() string { return f.name }

func (f failingSource) Recommendations(ctx context.Context, medication string, conditions []string, factors entities.PatientFactors) ([]entities.ClinicalRecommendation, error) {
	return nil, errors.New("source unavailable")
}

func TestRecommendationsFromGuidelines(t *testing.T) {
	agg := NewAggregator()

	recs := agg.Recommendations(context.Background(), "Metformin", []string{"type 2 diabetes"}, entities.PatientFactors{})
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if recs[0].Source != builtinSource || recs[0].EvidenceLevel != entities.Evidence1A {
		t.Errorf("unexpected recommendation: %+v", recs[0])
	}
}

func TestRecommendationsConditionFilter(t *testing.T) {
	agg := NewAggregator()

	// Unrelated conditions exclude the guideline.
	if recs := agg.Recommendations(context.Background(), "Metformin", []string{"migraine"}, entities.PatientFactors{}); len(recs) != 0 {
		t.Errorf("unrelated condition matched: %+v", recs)
	}

	// No conditions at all means every guideline for the medication applies.
	if recs := agg.Recommendations(context.Background(), "Metformin", nil, entities.PatientFactors{}); len(recs) != 1 {
		t.Errorf("condition-less query should match, got %+v", recs)
	}
}

func TestRecommendationsAgeCriteria(t *testing.T) {
	agg := NewAggregator()

	adult := agg.Recommendations(context.Background(), "Metformin", []string{"diabetes"}, entities.PatientFactors{Age: intPtr(40)})
	if len(adult) != 1 {
		t.Errorf("adult should match, got %+v", adult)
	}

	child := agg.Recommendations(context.Background(), "Metformin", []string{"diabetes"}, entities.PatientFactors{Age: intPtr(12)})
	if len(child) != 0 {
		t.Errorf("guideline with MinAge 18 matched a child: %+v", child)
	}
}

func TestRecommendationsMergesSources(t *testing.T) {
	compendium := NewStaticSource("Pharmacy Compendium", map[string][]entities.ClinicalRecommendation{
		"lisinopril": {
			{
				MedicationName: "Lisinopril",
				Condition:      "Heart Failure",
				Recommendation: "Reduces mortality in heart failure with reduced ejection fraction.",
				EvidenceLevel:  entities.Evidence2B,
			},
		},
	})
	agg := NewAggregator(compendium)

	recs := agg.Recommendations(context.Background(), "Lisinopril", nil, entities.PatientFactors{})
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want guideline + source entry: %+v", len(recs), recs)
	}
	// Sorted strongest evidence first: 1a guideline before the 2b entry.
	if recs[0].EvidenceLevel != entities.Evidence1A || recs[1].EvidenceLevel != entities.Evidence2B {
		t.Errorf("order wrong: %s then %s", recs[0].EvidenceLevel, recs[1].EvidenceLevel)
	}

	// A source entry sharing the guideline's (medication, condition) pair is
	// absorbed by the dedupe instead of duplicating it.
	deduped := NewAggregator(NewReferenceSource()).Recommendations(
		context.Background(), "Lisinopril", []string{"hypertension"}, entities.PatientFactors{})
	if len(deduped) != 1 || deduped[0].EvidenceLevel != entities.Evidence1A {
		t.Errorf("dedupe across sources failed: %+v", deduped)
	}
}

func TestRecommendationsToleratesFailingSource(t *testing.T) {
	agg := NewAggregator(failingSource{name: "flaky"}, NewReferenceSource())

	recs := agg.Recommendations(context.Background(), "Metformin", []string{"diabetes"}, entities.PatientFactors{})
	if len(recs) == 0 {
		t.Fatalf("failing source should not wipe out the others")
	}
}

func TestDedupeKeepsStrongerEvidence(t *testing.T) {
	weaker := entities.ClinicalRecommendation{MedicationName: "Metformin", Condition: "Type 2 Diabetes", EvidenceLevel: entities.Evidence2B, Source: "b"}
	stronger := entities.ClinicalRecommendation{MedicationName: "metformin", Condition: "type 2 diabetes", EvidenceLevel: entities.Evidence1A, Source: "a"}

	out := dedupeRecommendations([]entities.ClinicalRecommendation{weaker, stronger})
	if len(out) != 1 {
		t.Fatalf("got %d entries, want 1", len(out))
	}
	if out[0].EvidenceLevel != entities.Evidence1A {
		t.Errorf("kept %s, want the stronger 1a entry", out[0].EvidenceLevel)
	}

	// Equal evidence keeps the first entry.
	first := entities.ClinicalRecommendation{MedicationName: "x", Condition: "c", EvidenceLevel: entities.Evidence1B, Source: "first"}
	second := entities.ClinicalRecommendation{MedicationName: "x", Condition: "c", EvidenceLevel: entities.Evidence1B, Source: "second"}
	tied := dedupeRecommendations([]entities.ClinicalRecommendation{first, second})
	if len(tied) != 1 || tied[0].Source != "first" {
		t.Errorf("tie handling wrong: %+v", tied)
	}
}

func TestValidateRegimenAppropriate(t *testing.T) {
	agg := NewAggregator()

	report := agg.ValidateRegimen(context.Background(),
		[]entities.Medication{{Name: "Metformin", Dosage: "1000mg"}},
		entities.PatientFactors{Conditions: []string{"type 2 diabetes"}},
	)

	if len(report.Appropriate) != 1 || len(report.Questionable) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Appropriate[0].SupportingEvidence) == 0 {
		t.Errorf("supporting evidence missing")
	}
	if report.OverallAssessment != "Excellent - All medications are evidence-based and appropriate" {
		t.Errorf("assessment = %q", report.OverallAssessment)
	}
}

func TestValidateRegimenUnknownMedicationIsAppropriate(t *testing.T) {
	agg := NewAggregator()

	// No evidence either way means no grounds to question the medication.
	report := agg.ValidateRegimen(context.Background(),
		[]entities.Medication{{Name: "Obscureomab"}},
		entities.PatientFactors{Conditions: []string{"rare disease"}},
	)
	if len(report.Appropriate) != 1 || len(report.Questionable) != 0 {
		t.Errorf("unknown medication should be appropriate: %+v", report)
	}
}

func TestValidateRegimenQuestionable(t *testing.T) {
	// The reference source reports warfarin evidence for atrial fibrillation
	// only, so with an unrelated condition list the medication has evidence
	// but no support.
	agg := NewAggregator(NewReferenceSource())

	report := agg.ValidateRegimen(context.Background(),
		[]entities.Medication{{Name: "Warfarin", Dosage: "5mg"}},
		entities.PatientFactors{Conditions: []string{"migraine"}},
	)

	if len(report.Questionable) != 1 {
		t.Fatalf("expected one questionable entry: %+v", report)
	}
	q := report.Questionable[0]
	if q.Concerns[0] != "No evidence-based indication found for current conditions" {
		t.Errorf("concern = %q", q.Concerns[0])
	}
	if q.Alternatives == nil || len(q.Alternatives) != 0 {
		t.Errorf("alternatives = %+v, want empty list", q.Alternatives)
	}
	if report.OverallAssessment != "Good - Minor optimization opportunities identified" {
		t.Errorf("assessment = %q", report.OverallAssessment)
	}
}

func TestValidateRegimenMissingTherapies(t *testing.T) {
	agg := NewAggregator()

	report := agg.ValidateRegimen(context.Background(),
		[]entities.Medication{{Name: "Atorvastatin", Dosage: "20mg"}},
		entities.PatientFactors{Conditions: []string{"Type 2 Diabetes", "Hypertension", "hyperlipidemia"}},
	)

	if len(report.MissingTherapies) != 2 {
		t.Fatalf("got %d missing therapies, want diabetes and hypertension: %+v", len(report.MissingTherapies), report.MissingTherapies)
	}
	conditions := []string{report.MissingTherapies[0].Condition, report.MissingTherapies[1].Condition}
	if conditions[0] != "diabetes" || conditions[1] != "hypertension" {
		t.Errorf("conditions = %v", conditions)
	}
	if !strings.Contains(report.OverallAssessment, "Fair") {
		t.Errorf("assessment = %q, want Fair tier", report.OverallAssessment)
	}
}

func TestValidateRegimenCoveredFirstLine(t *testing.T) {
	agg := NewAggregator()

	report := agg.ValidateRegimen(context.Background(),
		[]entities.Medication{
			{Name: "Metformin", Dosage: "1000mg"},
			{Name: "Enalapril", Dosage: "10mg"},
		},
		entities.PatientFactors{Conditions: []string{"diabetes", "hypertension"}},
	)
	if len(report.MissingTherapies) != 0 {
		t.Errorf("first-line therapies are covered, got %+v", report.MissingTherapies)
	}
}

func TestOverallAssessmentTiers(t *testing.T) {
	tests := []struct {
		questionable int
		missing      int
		wantPrefix   string
	}{
		{0, 0, "Excellent"},
		{1, 0, "Good"},
		{0, 1, "Good"},
		{1, 1, "Good"},
		{2, 1, "Fair"},
		{0, 2, "Fair"},
		{3, 2, "Fair"},
		{3, 3, "Needs Review"},
	}
	for _, tc := range tests {
		got := overallAssessment(tc.questionable, tc.missing)
		if !strings.HasPrefix(got, tc.wantPrefix) {
			t.Errorf("overallAssessment(%d, %d) = %q, want prefix %q", tc.questionable, tc.missing, got, tc.wantPrefix)
		}
	}
}

func TestStaticSourceStampsName(t *testing.T) {
	src := NewReferenceSource()
	recs, err := src.Recommendations(context.Background(), " WARFARIN ", nil, entities.PatientFactors{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].Source != "Clinical Reference Database" {
		t.Errorf("unexpected recommendations: %+v", recs)
	}
}
