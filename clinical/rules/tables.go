package rules

import "github.com/medreconcile/medreconcile-api/clinical/entities"

// Rule is a single table entry: the fixed severity, message and
// recommendation emitted when the rule matches.
type Rule struct {
	Severity       entities.Severity
	Message        string
	Recommendation string
}

// PregnancyRule maps a medication to its FDA pregnancy category. Only
// categories D and X produce alerts.
type PregnancyRule struct {
	Category       string
	Message        string
	Recommendation string
}

// DoseLimit is the maximum recommended dose for a medication.
type DoseLimit struct {
	Max    float64
	Unit   string
	Period string
}

// RuleTables holds every rule table the engine consults. Tables are loaded
// once per engine instance and never change afterwards.
type RuleTables struct {
	Elderly     map[string]Rule
	Pediatric   map[string]Rule
	Conditions  map[string]map[string]Rule
	Pregnancy   map[string]PregnancyRule
	MaxDoses    map[string]DoseLimit
	Frequencies map[string]map[string]Rule
}

// DefaultTables returns the built-in appropriateness rule tables. Keys are
// normalized (lowercase, accent-folded) medication and condition names.
func DefaultTables() RuleTables {
	return RuleTables{
		Elderly: map[string]Rule{
			"diphenhydramine": {
				Severity:       entities.SeverityHigh,
				Message:        "Diphenhydramine has strong anticholinergic effects and is inappropriate for elderly patients",
				Recommendation: "Consider alternative antihistamine with less anticholinergic activity",
			},
			"diazepam": {
				Severity:       entities.SeverityModerate,
				Message:        "Long-acting benzodiazepines may cause prolonged sedation in elderly",
				Recommendation: "Consider shorter-acting benzodiazepine or non-benzodiazepine alternative",
			},
			"amitriptyline": {
				Severity:       entities.SeverityHigh,
				Message:        "Tertiary amine tricyclics are highly anticholinergic and sedating in elderly patients",
				Recommendation: "Consider nortriptyline or a non-tricyclic antidepressant",
			},
		},
		Pediatric: map[string]Rule{
			"aspirin": {
				Severity:       entities.SeverityCritical,
				Message:        "Aspirin is contraindicated in children due to risk of Reye's syndrome",
				Recommendation: "Use acetaminophen or ibuprofen instead",
			},
			"tetracycline": {
				Severity:       entities.SeverityHigh,
				Message:        "Tetracyclines cause permanent tooth discoloration in children under 8",
				Recommendation: "Use an age-appropriate alternative antibiotic",
			},
		},
		Conditions: map[string]map[string]Rule{
			"kidney disease": {
				"ibuprofen": {
					Severity:       entities.SeverityHigh,
					Message:        "NSAIDs can worsen kidney function in patients with existing kidney disease",
					Recommendation: "Consider acetaminophen for pain relief instead",
				},
				"metformin": {
					Severity:       entities.SeverityModerate,
					Message:        "Metformin should be used with caution in kidney disease",
					Recommendation: "Monitor kidney function regularly; may need dose adjustment",
				},
			},
			"heart failure": {
				"ibuprofen": {
					Severity:       entities.SeverityHigh,
					Message:        "NSAIDs can worsen heart failure by causing fluid retention",
					Recommendation: "Avoid NSAIDs; use acetaminophen for pain relief",
				},
			},
			"asthma": {
				"aspirin": {
					Severity:       entities.SeverityModerate,
					Message:        "Aspirin can trigger bronchospasm in some asthmatic patients",
					Recommendation: "Use with caution; consider acetaminophen alternative",
				},
			},
		},
		Pregnancy: map[string]PregnancyRule{
			"warfarin": {
				Category:       "X",
				Message:        "Warfarin is teratogenic and contraindicated in pregnancy",
				Recommendation: "Switch to heparin or low molecular weight heparin",
			},
			"lisinopril": {
				Category:       "D",
				Message:        "ACE inhibitors can cause fetal harm, especially in 2nd and 3rd trimesters",
				Recommendation: "Consider alternative antihypertensive medication",
			},
			"ibuprofen": {
				Category:       "C",
				Message:        "NSAIDs should be avoided in 3rd trimester due to risk of premature closure of ductus arteriosus",
				Recommendation: "Use acetaminophen for pain relief during pregnancy",
			},
			"atorvastatin": {
				Category:       "X",
				Message:        "Statins are contraindicated in pregnancy due to impaired fetal cholesterol synthesis",
				Recommendation: "Discontinue statin therapy for the duration of pregnancy",
			},
		},
		MaxDoses: map[string]DoseLimit{
			"acetaminophen": {Max: 4000, Unit: "mg", Period: "daily"},
			"ibuprofen":     {Max: 3200, Unit: "mg", Period: "daily"},
			"aspirin":       {Max: 4000, Unit: "mg", Period: "daily"},
			"lisinopril":    {Max: 40, Unit: "mg", Period: "daily"},
			"metformin":     {Max: 2550, Unit: "mg", Period: "daily"},
		},
		Frequencies: map[string]map[string]Rule{
			"metformin": {
				"once daily": {
					Severity:       entities.SeverityModerate,
					Message:        "Metformin is typically dosed twice daily to improve tolerability",
					Recommendation: "Consider dividing dose into twice daily administration",
				},
			},
			"levothyroxine": {
				"twice daily": {
					Severity:       entities.SeverityModerate,
					Message:        "Levothyroxine is dosed once daily on an empty stomach; split dosing complicates absorption",
					Recommendation: "Consolidate into a single morning dose 30-60 minutes before food",
				},
			},
		},
	}
}
