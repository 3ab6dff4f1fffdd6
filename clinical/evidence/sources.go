package evidence

import (
	"context"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
)

// Source supplies clinical recommendations for a medication. Implementations
// must be safe for concurrent use; a failing source returns an error and is
// skipped without affecting the other sources.
type Source interface {
	Name() string
	Recommendations(ctx context.Context, medication string, conditions []string, factors entities.PatientFactors) ([]entities.ClinicalRecommendation, error)
}

// StaticSource serves recommendations from an in-memory table keyed by
// normalized medication name. It backs the configured reference sources when
// no live endpoint is available.
type StaticSource struct {
	name string
	data map[string][]entities.ClinicalRecommendation
}

func NewStaticSource(name string, data map[string][]entities.ClinicalRecommendation) *StaticSource {
	return &StaticSource{name: name, data: data}
}

func (s *StaticSource) Name() string { return s.name }

func (s *StaticSource) Recommendations(ctx context.Context, medication string, conditions []string, factors entities.PatientFactors) ([]entities.ClinicalRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recs := s.data[entities.NormalizeName(medication)]
	out := make([]entities.ClinicalRecommendation, 0, len(recs))
	for _, rec := range recs {
		rec.Source = s.name
		out = append(out, rec)
	}
	return out, nil
}

// NewReferenceSource builds the bundled point-of-care reference source.
func NewReferenceSource() *StaticSource {
	return NewStaticSource("Clinical Reference Database", map[string][]entities.ClinicalRecommendation{
		"lisinopril": {
			{
				MedicationName: "Lisinopril",
				Condition:      "Hypertension",
				Recommendation: "Consider switching to an ARB if a persistent dry cough develops.",
				EvidenceLevel:  entities.Evidence2A,
				Strength:       "Moderate",
				References:     []string{"Cough incidence meta-analysis, J Hypertens"},
			},
		},
		"metformin": {
			{
				MedicationName: "Metformin",
				Condition:      "Type 2 Diabetes",
				Recommendation: "Extended-release formulation reduces gastrointestinal intolerance in patients unable to tolerate immediate release.",
				EvidenceLevel:  entities.Evidence1B,
				Strength:       "Moderate",
				References:     []string{"Metformin XR tolerability RCT"},
			},
		},
		"warfarin": {
			{
				MedicationName: "Warfarin",
				Condition:      "Atrial Fibrillation",
				Recommendation: "Direct oral anticoagulants are preferred over warfarin for nonvalvular atrial fibrillation in most patients.",
				EvidenceLevel:  entities.Evidence1A,
				Strength:       "Strong",
				References:     []string{"2023 ACC/AHA/ACCP/HRS Atrial Fibrillation Guideline"},
				MonitoringRequirements: []string{
					"INR monitoring at least monthly once stable",
				},
			},
		},
	})
}
