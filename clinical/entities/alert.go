package entities

import "time"

// AlertType identifies which appropriateness check produced an alert.
type AlertType string

const (
	AlertAgeRelated          AlertType = "age_related"
	AlertConditionContra     AlertType = "condition_contraindication"
	AlertPregnancySafety     AlertType = "pregnancy_safety"
	AlertDosageExcessive     AlertType = "dosage_excessive"
	AlertFrequencySuboptimal AlertType = "frequency_suboptimal"
)

// EvidenceExpertOpinion tags alerts produced by the built-in rule tables.
const EvidenceExpertOpinion = "expert_opinion"

// Alert is a single clinical appropriateness finding. Alerts are immutable
// once created; every analysis emits fresh records.
type Alert struct {
	MedicationName string    `json:"medication_name"`
	Type           AlertType `json:"alert_type"`
	Severity       Severity  `json:"severity"`
	Message        string    `json:"message"`
	Recommendation string    `json:"recommendation"`
	EvidenceLevel  string    `json:"evidence_level"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewAlert builds an alert stamped with the current time and the default
// expert-opinion evidence tag.
func NewAlert(medication string, alertType AlertType, severity Severity, message, recommendation string) Alert {
	return Alert{
		MedicationName: medication,
		Type:           alertType,
		Severity:       severity,
		Message:        message,
		Recommendation: recommendation,
		EvidenceLevel:  EvidenceExpertOpinion,
		Timestamp:      time.Now().UTC(),
	}
}

// HighestSeverity returns the maximum severity among the alerts, or
// SeverityNone for an empty slice.
func HighestSeverity(alerts []Alert) string {
	if len(alerts) == 0 {
		return SeverityNone
	}
	highest := SeverityLow
	for _, a := range alerts {
		highest = MaxSeverity(highest, a.Severity)
	}
	return string(highest)
}
