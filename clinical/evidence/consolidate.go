package evidence

import (
	"time"

	"github.com/medreconcile/medreconcile-api/clinical/dosage"
	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/clinical/rules"
)

// ConsolidatedReport is the full reconciliation result for a regimen,
// combining safety alerts, dosage optimization, pairwise interactions and
// evidence-based regimen validation.
type ConsolidatedReport struct {
	GeneratedAt  time.Time                  `json:"generatedAt"`
	Safety       *rules.Report              `json:"safety"`
	Dosage       *dosage.Report             `json:"dosage"`
	Interactions []entities.DrugInteraction `json:"interactions"`
	Regimen      *RegimenReport             `json:"regimen"`
	OverallRisk  entities.Severity          `json:"overallRisk"`
}

// Consolidate merges the per-engine reports into a single reconciliation
// report. The overall risk is the safety report's risk escalated by the most
// severe drug interaction found.
func Consolidate(safety *rules.Report, doses *dosage.Report, interactions []entities.DrugInteraction, regimen *RegimenReport) *ConsolidatedReport {
	risk := entities.SeverityLow
	if safety != nil && entities.Severity(safety.OverallRiskLevel).Valid() {
		risk = entities.Severity(safety.OverallRiskLevel)
	}
	for _, ix := range interactions {
		risk = entities.MaxSeverity(risk, ix.Severity)
	}
	if interactions == nil {
		interactions = []entities.DrugInteraction{}
	}
	return &ConsolidatedReport{
		GeneratedAt:  time.Now().UTC(),
		Safety:       safety,
		Dosage:       doses,
		Interactions: interactions,
		Regimen:      regimen,
		OverallRisk:  risk,
	}
}
