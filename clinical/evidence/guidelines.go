package evidence

import "github.com/medreconcile/medreconcile-api/clinical/entities"

// Guideline is a built-in clinical guideline entry. It applies when the
// medication matches, at least one declared condition matches a patient
// condition (when any are declared), and the patient criteria hold.
type Guideline struct {
	PrimaryCondition  string
	Conditions        []string
	Recommendation    string
	EvidenceLevel     entities.EvidenceLevel
	Strength          string
	References        []string
	Contraindications []string
	Monitoring        []string
	MinAge            int
	MaxAge            int
}

// FirstLineTherapy describes an expected therapy for a condition. AnyOf lists
// the medication names that satisfy it; matching is case-insensitive.
type FirstLineTherapy struct {
	ConditionKeyword string
	Recommended      string
	AnyOf            []string
	EvidenceLevel    entities.EvidenceLevel
	Reason           string
}

// builtinSource tags recommendations produced from the built-in tables.
const builtinSource = "Built-in Clinical Guidelines"

// defaultGuidelines returns the built-in guideline tables, keyed by
// normalized medication name.
func defaultGuidelines() map[string][]Guideline {
	return map[string][]Guideline{
		"metformin": {
			{
				PrimaryCondition:  "Type 2 Diabetes",
				Conditions:        []string{"diabetes", "type 2 diabetes", "t2dm"},
				Recommendation:    "First-line therapy for type 2 diabetes. Start with 500mg twice daily with meals, titrate gradually to minimize GI side effects.",
				EvidenceLevel:     entities.Evidence1A,
				Strength:          "Strong",
				References:        []string{"ADA Standards of Medical Care in Diabetes 2023"},
				Contraindications: []string{"eGFR < 30 mL/min/1.73m²", "Acute or chronic metabolic acidosis"},
				Monitoring:        []string{"Monitor renal function every 3-6 months", "Monitor vitamin B12 annually"},
				MinAge:            18,
			},
		},
		"lisinopril": {
			{
				PrimaryCondition:  "Hypertension",
				Conditions:        []string{"hypertension", "high blood pressure"},
				Recommendation:    "First-line ACE inhibitor for hypertension. Start with 10mg daily, titrate up to 40mg daily as needed.",
				EvidenceLevel:     entities.Evidence1A,
				Strength:          "Strong",
				References:        []string{"2017 ACC/AHA High Blood Pressure Guidelines"},
				Contraindications: []string{"Pregnancy", "History of angioedema", "Bilateral renal artery stenosis"},
				Monitoring:        []string{"Monitor renal function and potassium within 1-2 weeks of initiation"},
				MinAge:            18,
			},
		},
		"atorvastatin": {
			{
				PrimaryCondition:  "Hyperlipidemia",
				Conditions:        []string{"hyperlipidemia", "high cholesterol", "dyslipidemia"},
				Recommendation:    "High-intensity statin for cardiovascular risk reduction. Start with 20mg daily, may increase to 40-80mg based on response.",
				EvidenceLevel:     entities.Evidence1A,
				Strength:          "Strong",
				References:        []string{"2018 AHA/ACC Cholesterol Guidelines"},
				Contraindications: []string{"Active liver disease", "Pregnancy"},
				Monitoring:        []string{"Monitor liver enzymes at baseline and 12 weeks", "Monitor for muscle symptoms"},
				MinAge:            18,
			},
		},
	}
}

// defaultFirstLineTherapies returns the condition to first-line therapy map
// consulted by regimen validation.
func defaultFirstLineTherapies() []FirstLineTherapy {
	return []FirstLineTherapy{
		{
			ConditionKeyword: "diabetes",
			Recommended:      "Metformin",
			AnyOf:            []string{"metformin"},
			EvidenceLevel:    entities.Evidence1A,
			Reason:           "First-line therapy for type 2 diabetes",
		},
		{
			ConditionKeyword: "hypertension",
			Recommended:      "ACE inhibitor (e.g., Lisinopril)",
			AnyOf:            []string{"lisinopril", "enalapril", "captopril"},
			EvidenceLevel:    entities.Evidence1A,
			Reason:           "First-line therapy for hypertension",
		},
	}
}
