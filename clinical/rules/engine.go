// Package rules implements the clinical appropriateness engine. It evaluates
// medications against age, condition, pregnancy, dosage and frequency rule
// tables and emits typed alerts with severity and recommendation text.
package rules

import (
	"regexp"
	"strconv"
	"time"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/logging"
)

const (
	elderlyAge   = 65
	pediatricAge = 18
)

// leadingNumber extracts the first numeric token of a dosage expression.
var leadingNumber = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// Engine evaluates medication appropriateness against immutable rule tables.
// All methods are pure and safe for concurrent use.
type Engine struct {
	tables RuleTables
}

// NewEngine creates an engine backed by the built-in rule tables.
func NewEngine() *Engine {
	return NewEngineWithTables(DefaultTables())
}

// NewEngineWithTables creates an engine backed by the given tables.
func NewEngineWithTables(tables RuleTables) *Engine {
	return &Engine{tables: tables}
}

// Analyze runs every appropriateness check for one medication. A medication
// can trigger several alerts at once; missing or malformed input fields skip
// the affected check without error.
func (e *Engine) Analyze(med entities.Medication, factors entities.PatientFactors) []entities.Alert {
	if med.Name == "" {
		return nil
	}

	name := med.Key()
	var alerts []entities.Alert

	if factors.Age != nil {
		alerts = append(alerts, e.checkAge(name, *factors.Age)...)
	}
	alerts = append(alerts, e.checkConditions(name, factors.Conditions)...)
	if factors.IsPregnant {
		alerts = append(alerts, e.checkPregnancy(name)...)
	}
	alerts = append(alerts, e.checkDosage(name, med.Dosage)...)
	alerts = append(alerts, e.checkFrequency(name, med.Frequency)...)

	logging.Debug("Analyzed medication appropriateness", "medication", name, "alerts", len(alerts))
	return alerts
}

// checkAge consults the elderly or pediatric table depending on the patient's
// age band. The bands are mutually exclusive, so at most one table applies.
func (e *Engine) checkAge(name string, age int) []entities.Alert {
	var table map[string]Rule
	switch {
	case age >= elderlyAge:
		table = e.tables.Elderly
	case age < pediatricAge:
		table = e.tables.Pediatric
	default:
		return nil
	}

	rule, ok := table[name]
	if !ok {
		return nil
	}
	return []entities.Alert{entities.NewAlert(name, entities.AlertAgeRelated, rule.Severity, rule.Message, rule.Recommendation)}
}

// checkConditions emits one alert per patient condition that contraindicates
// the medication.
func (e *Engine) checkConditions(name string, conditions []string) []entities.Alert {
	var alerts []entities.Alert
	for _, condition := range conditions {
		contraindicated, ok := e.tables.Conditions[entities.NormalizeName(condition)]
		if !ok {
			continue
		}
		rule, ok := contraindicated[name]
		if !ok {
			continue
		}
		alerts = append(alerts, entities.NewAlert(name, entities.AlertConditionContra, rule.Severity, rule.Message, rule.Recommendation))
	}
	return alerts
}

// checkPregnancy alerts on FDA pregnancy categories D and X only. Category X
// is high severity, D moderate; A, B and C never alert.
func (e *Engine) checkPregnancy(name string) []entities.Alert {
	rule, ok := e.tables.Pregnancy[name]
	if !ok {
		return nil
	}

	var severity entities.Severity
	switch rule.Category {
	case "X":
		severity = entities.SeverityHigh
	case "D":
		severity = entities.SeverityModerate
	default:
		return nil
	}
	return []entities.Alert{entities.NewAlert(name, entities.AlertPregnancySafety, severity, rule.Message, rule.Recommendation)}
}

// checkDosage compares the leading numeric token of the dosage expression
// against the maximum-safe-dose table. Unparseable dosages are skipped
// silently rather than treated as errors.
func (e *Engine) checkDosage(name, dosage string) []entities.Alert {
	match := leadingNumber.FindString(dosage)
	if match == "" {
		return nil
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}

	limit, ok := e.tables.MaxDoses[name]
	if !ok || value <= limit.Max {
		return nil
	}

	return []entities.Alert{entities.NewAlert(
		name,
		entities.AlertDosageExcessive,
		entities.SeverityHigh,
		"Dosage of "+match+limit.Unit+" exceeds maximum recommended dose of "+strconv.FormatFloat(limit.Max, 'f', -1, 64)+limit.Unit+" "+limit.Period,
		"Consider reducing dosage to within recommended range. Consult prescribing physician.",
	)}
}

// checkFrequency looks for known-suboptimal (medication, frequency) pairs.
func (e *Engine) checkFrequency(name, frequency string) []entities.Alert {
	byFrequency, ok := e.tables.Frequencies[name]
	if !ok {
		return nil
	}
	rule, ok := byFrequency[entities.NormalizeName(frequency)]
	if !ok {
		return nil
	}
	return []entities.Alert{entities.NewAlert(name, entities.AlertFrequencySuboptimal, rule.Severity, rule.Message, rule.Recommendation)}
}

// MedicationAnalysis is the per-medication slice of a list analysis.
type MedicationAnalysis struct {
	Medication      entities.Medication `json:"medication"`
	Alerts          []entities.Alert    `json:"alerts"`
	AlertCount      int                 `json:"alert_count"`
	HighestSeverity string              `json:"highest_severity"`
}

// SeveritySummary counts alerts per severity bucket.
type SeveritySummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Moderate int `json:"moderate"`
	Low      int `json:"low"`
}

// Add counts one alert into its bucket.
func (s *SeveritySummary) Add(severity entities.Severity) {
	switch severity {
	case entities.SeverityCritical:
		s.Critical++
	case entities.SeverityHigh:
		s.High++
	case entities.SeverityModerate:
		s.Moderate++
	case entities.SeverityLow:
		s.Low++
	}
}

// Report is the aggregate result of analyzing a medication list.
type Report struct {
	AnalysisTimestamp  time.Time            `json:"analysis_timestamp"`
	TotalMedications   int                  `json:"total_medications"`
	TotalAlerts        int                  `json:"total_alerts"`
	Summary            SeveritySummary      `json:"summary"`
	MedicationAnalyses []MedicationAnalysis `json:"medication_analyses"`
	OverallRiskLevel   string               `json:"overall_risk_level"`
}

// AnalyzeList runs every check on every medication and aggregates the
// results. A single bad entry never fails the whole list.
func (e *Engine) AnalyzeList(meds []entities.Medication, factors entities.PatientFactors) *Report {
	report := &Report{
		AnalysisTimestamp:  time.Now().UTC(),
		TotalMedications:   len(meds),
		MedicationAnalyses: make([]MedicationAnalysis, 0, len(meds)),
	}

	for _, med := range meds {
		alerts := e.Analyze(med, factors)
		report.MedicationAnalyses = append(report.MedicationAnalyses, MedicationAnalysis{
			Medication:      med,
			Alerts:          alerts,
			AlertCount:      len(alerts),
			HighestSeverity: entities.HighestSeverity(alerts),
		})
		report.TotalAlerts += len(alerts)
		for _, alert := range alerts {
			report.Summary.Add(alert.Severity)
		}
	}

	report.OverallRiskLevel = overallRisk(report.Summary, report.TotalAlerts)
	return report
}

// overallRisk maps the severity buckets to a single regimen risk level.
func overallRisk(summary SeveritySummary, totalAlerts int) string {
	switch {
	case totalAlerts == 0:
		return string(entities.SeverityLow)
	case summary.Critical > 0:
		return string(entities.SeverityCritical)
	case summary.High > 0:
		return string(entities.SeverityHigh)
	case summary.Moderate > 2:
		return string(entities.SeverityHigh)
	case summary.Moderate > 0:
		return string(entities.SeverityModerate)
	default:
		return string(entities.SeverityLow)
	}
}
