// Package dosage implements the dosage adjustment engine. It parses dosage
// expressions, composes patient-specific adjustment factors (age, weight,
// renal and hepatic function), applies safety clamps and reports a confidence
// score reflecting how much patient data was available.
package dosage

import (
	"math"
	"strings"
	"time"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/logging"
)

const (
	elderlyAge   = 65
	pediatricAge = 18

	// Creatinine clearance tier boundaries in mL/min.
	renalSevereBelow   = 30
	renalModerateBelow = 60
	renalMildBelow     = 90

	// Default organ impairment factors when no per-medication rule exists.
	defaultSevereFactor   = 0.25
	defaultModerateFactor = 0.5
	defaultMildFactor     = 0.75
)

// Analyzer computes patient-specific dose recommendations against immutable
// reference tables. All methods are pure and safe for concurrent use.
type Analyzer struct {
	tables ReferenceTables
}

// NewAnalyzer creates an analyzer backed by the built-in reference tables.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithTables(DefaultTables())
}

// NewAnalyzerWithTables creates an analyzer backed by the given tables.
func NewAnalyzerWithTables(tables ReferenceTables) *Analyzer {
	return &Analyzer{tables: tables}
}

// Analyze produces a dose recommendation for one medication. An unparseable
// dosage or a medication without reference data yields a zero-confidence
// no-recommendation result rather than an error.
func (a *Analyzer) Analyze(med entities.Medication, factors entities.PatientFactors) entities.DosageRecommendation {
	name := med.Key()

	current, unit, ok := ParseDose(med.Dosage)
	if !ok {
		logging.Warn("Could not parse dosage expression", "medication", name, "dosage", med.Dosage)
		return noRecommendation(name)
	}

	standard, hasReference := a.tables.Standard[name]
	if !hasReference {
		logging.Debug("No standard dosage data available", "medication", name)
		return noRecommendation(name)
	}

	recommended := a.patientSpecificDose(name, current, factors)
	recommended = clamp(recommended, standard.MinDose, standard.MaxDose)

	factor := 1.0
	if current > 0 {
		factor = recommended / current
	}

	rec := entities.DosageRecommendation{
		MedicationName:   name,
		CurrentDose:      current,
		RecommendedDose:  recommended,
		Unit:             unit,
		AdjustmentReason: a.adjustmentReason(name, factors, recommended, current),
		AdjustmentFactor: factor,
		Confidence:       a.confidence(name, factors),
		Timestamp:        time.Now().UTC(),
	}
	rec.Finalize()
	return rec
}

// patientSpecificDose applies the adjustment chain: age multiplier, weight-
// based override, renal multiplier, hepatic multiplier. Each step defaults to
// a no-op when the relevant patient factor or medication rule is absent.
func (a *Analyzer) patientSpecificDose(name string, current float64, factors entities.PatientFactors) float64 {
	dose := current

	if factors.Age != nil {
		dose *= a.ageFactor(name, *factors.Age)
	}

	// A dose-per-kg rule replaces the running dose instead of scaling it.
	if factors.WeightKg != nil {
		if rule, ok := a.tables.Weight[name]; ok {
			weightDose := rule.DosePerKg * *factors.WeightKg
			if rule.MaxDose > 0 && weightDose > rule.MaxDose {
				weightDose = rule.MaxDose
			}
			dose = weightDose
		}
	}

	if factors.CreatinineClearance != nil {
		dose *= a.renalFactor(name, *factors.CreatinineClearance)
	}

	if factors.LiverFunction != "" {
		dose *= a.hepaticFactor(name, factors.LiverFunction)
	}

	return dose
}

func (a *Analyzer) ageFactor(name string, age int) float64 {
	rule, ok := a.tables.Age[name]
	if !ok {
		return 1.0
	}
	switch {
	case age >= elderlyAge:
		return rule.ElderlyFactor
	case age < pediatricAge:
		return rule.PediatricFactor
	default:
		return 1.0
	}
}

func (a *Analyzer) renalFactor(name string, clearance float64) float64 {
	rule, ok := a.tables.Renal[name]
	if !ok {
		rule = OrganAdjustment{Severe: defaultSevereFactor, Moderate: defaultModerateFactor, Mild: defaultMildFactor}
	}
	switch {
	case clearance < renalSevereBelow:
		return rule.Severe
	case clearance < renalModerateBelow:
		return rule.Moderate
	case clearance < renalMildBelow:
		return rule.Mild
	default:
		return 1.0
	}
}

func (a *Analyzer) hepaticFactor(name, liverFunction string) float64 {
	rule, ok := a.tables.Hepatic[name]
	if !ok {
		rule = OrganAdjustment{Severe: defaultSevereFactor, Moderate: defaultModerateFactor, Mild: defaultMildFactor}
	}
	described := strings.ToLower(liverFunction)
	switch {
	case strings.Contains(described, "severe"):
		return rule.Severe
	case strings.Contains(described, "moderate"):
		return rule.Moderate
	case strings.Contains(described, "mild"):
		return rule.Mild
	default:
		return 1.0
	}
}

// adjustmentReason names every patient factor that was present and relevant.
func (a *Analyzer) adjustmentReason(name string, factors entities.PatientFactors, recommended, current float64) string {
	if math.Abs(recommended-current) < 0.1 {
		return "No adjustment needed"
	}

	var reasons []string
	if factors.Age != nil {
		switch {
		case *factors.Age >= elderlyAge:
			reasons = append(reasons, "elderly patient")
		case *factors.Age < pediatricAge:
			reasons = append(reasons, "pediatric patient")
		}
	}
	if factors.CreatinineClearance != nil && *factors.CreatinineClearance < renalModerateBelow {
		reasons = append(reasons, "reduced kidney function")
	}
	if described := strings.ToLower(factors.LiverFunction); described != "" {
		if strings.Contains(described, "severe") || strings.Contains(described, "moderate") || strings.Contains(described, "mild") {
			reasons = append(reasons, "liver dysfunction")
		}
	}
	if factors.WeightKg != nil {
		if _, ok := a.tables.Weight[name]; ok {
			reasons = append(reasons, "weight-based dosing")
		}
	}

	if len(reasons) == 0 {
		return "Standard dose optimization"
	}
	return "Adjustment for " + strings.Join(reasons, ", ")
}

// confidence reflects data completeness, not correctness: a base of 0.5 plus
// fixed increments for each available input, capped at 1.0.
func (a *Analyzer) confidence(name string, factors entities.PatientFactors) float64 {
	confidence := 0.5
	if factors.Age != nil {
		confidence += 0.1
	}
	if factors.WeightKg != nil {
		confidence += 0.1
	}
	if factors.CreatinineClearance != nil {
		confidence += 0.15
	}
	if factors.LiverFunction != "" {
		confidence += 0.1
	}
	if _, ok := a.tables.Standard[name]; ok {
		confidence += 0.05
	}
	return math.Min(confidence, 1.0)
}

func noRecommendation(name string) entities.DosageRecommendation {
	rec := entities.DosageRecommendation{
		MedicationName:   name,
		CurrentDose:      0,
		RecommendedDose:  0,
		Unit:             "unknown",
		AdjustmentReason: "Unable to analyze dosage",
		AdjustmentFactor: 1.0,
		Confidence:       0,
		Timestamp:        time.Now().UTC(),
	}
	rec.Finalize()
	return rec
}

func clamp(dose, min, max float64) float64 {
	// A zero dose marks a contraindication and must survive the clamp.
	if dose <= 0 {
		return 0
	}
	if max <= 0 {
		max = math.Inf(1)
	}
	if dose < min {
		return min
	}
	if dose > max {
		return max
	}
	return dose
}

// FactorsConsidered reports which patient-factor categories were available
// for the analysis at all.
type FactorsConsidered struct {
	Age             bool `json:"age"`
	RenalFunction   bool `json:"renal_function"`
	HepaticFunction bool `json:"hepatic_function"`
	Weight          bool `json:"weight"`
}

// Summary aggregates a list analysis.
type Summary struct {
	TotalMedications      int               `json:"total_medications"`
	MedicationsNeedingAdj int               `json:"medications_needing_adjustment"`
	PercentNeedingAdj     float64           `json:"percentage_needing_adjustment"`
	AverageConfidence     float64           `json:"average_confidence"`
	FactorsConsidered     FactorsConsidered `json:"patient_factors_considered"`
	IncreaseDose          int               `json:"increase_dose"`
	DecreaseDose          int               `json:"decrease_dose"`
	NoChange              int               `json:"no_change"`
}

// Report is the full result of analyzing a medication list.
type Report struct {
	AnalysisTimestamp time.Time                       `json:"analysis_timestamp"`
	TotalMedications  int                             `json:"total_medications"`
	AdjustmentsNeeded int                             `json:"adjustments_needed"`
	PatientFactors    entities.PatientFactors         `json:"patient_factors"`
	Recommendations   []entities.DosageRecommendation `json:"recommendations"`
	Summary           Summary                         `json:"summary"`
}

// significantChangePercent separates increase/decrease recommendations from
// noise in the list summary.
const significantChangePercent = 5.0

// AnalyzeList analyzes every medication and aggregates the results. Entries
// with unparseable dosages contribute zero-confidence records; they never
// fail the list.
func (a *Analyzer) AnalyzeList(meds []entities.Medication, factors entities.PatientFactors) *Report {
	report := &Report{
		AnalysisTimestamp: time.Now().UTC(),
		TotalMedications:  len(meds),
		PatientFactors:    factors,
		Recommendations:   make([]entities.DosageRecommendation, 0, len(meds)),
	}

	var confidenceTotal float64
	for _, med := range meds {
		rec := a.Analyze(med, factors)
		report.Recommendations = append(report.Recommendations, rec)
		confidenceTotal += rec.Confidence

		if rec.NeedsAdjustment {
			report.AdjustmentsNeeded++
		}
		switch {
		case rec.PercentageChange > significantChangePercent:
			report.Summary.IncreaseDose++
		case rec.PercentageChange < -significantChangePercent:
			report.Summary.DecreaseDose++
		default:
			report.Summary.NoChange++
		}
	}

	report.Summary.TotalMedications = len(meds)
	report.Summary.MedicationsNeedingAdj = report.AdjustmentsNeeded
	if len(meds) > 0 {
		report.Summary.PercentNeedingAdj = float64(report.AdjustmentsNeeded) / float64(len(meds)) * 100
		report.Summary.AverageConfidence = math.Round(confidenceTotal/float64(len(meds))*100) / 100
	}
	report.Summary.FactorsConsidered = FactorsConsidered{
		Age:             factors.Age != nil,
		RenalFunction:   factors.CreatinineClearance != nil,
		HepaticFunction: factors.LiverFunction != "",
		Weight:          factors.WeightKg != nil,
	}
	return report
}
