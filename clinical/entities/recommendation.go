package entities

import (
	"math"
	"time"
)

// DosageRecommendation is the result of analyzing one medication's dose
// against the patient's factors.
type DosageRecommendation struct {
	MedicationName   string    `json:"medication_name"`
	CurrentDose      float64   `json:"current_dose"`
	RecommendedDose  float64   `json:"recommended_dose"`
	Unit             string    `json:"unit"`
	AdjustmentReason string    `json:"adjustment_reason"`
	AdjustmentFactor float64   `json:"adjustment_factor"`
	Confidence       float64   `json:"confidence"`
	NeedsAdjustment  bool      `json:"needs_adjustment"`
	PercentageChange float64   `json:"percentage_change"`
	Timestamp        time.Time `json:"timestamp"`
}

// adjustmentThreshold is the absolute dose difference below which the
// current dose is considered already correct.
const adjustmentThreshold = 0.1

// Finalize computes the derived fields from the current and recommended
// doses. Boundary case: a difference of exactly 0.1 does not need adjustment.
func (d *DosageRecommendation) Finalize() {
	d.NeedsAdjustment = math.Abs(d.CurrentDose-d.RecommendedDose) > adjustmentThreshold
	if d.CurrentDose > 0 {
		d.PercentageChange = (d.RecommendedDose - d.CurrentDose) / d.CurrentDose * 100
	} else {
		d.PercentageChange = 0
	}
}

// ClinicalRecommendation is an evidence-graded recommendation for using a
// medication in a condition. Two recommendations are duplicates when
// (medication, condition) match; the stronger evidence level wins.
type ClinicalRecommendation struct {
	MedicationName         string        `json:"medication_name"`
	Condition              string        `json:"condition"`
	Recommendation         string        `json:"recommendation"`
	EvidenceLevel          EvidenceLevel `json:"evidence_level"`
	Strength               string        `json:"strength"`
	Source                 string        `json:"source"`
	References             []string      `json:"references"`
	Contraindications      []string      `json:"contraindications"`
	MonitoringRequirements []string      `json:"monitoring_requirements"`
	Timestamp              time.Time     `json:"timestamp"`
}

// DrugInteraction is a pairwise interaction reported by an interaction
// source, keyed by the canonical identifiers of the two drugs.
type DrugInteraction struct {
	DrugA       string   `json:"drug_a"`
	DrugB       string   `json:"drug_b"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}
