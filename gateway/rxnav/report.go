// Package rxnav resolves medication names to RxNorm concepts and screens
// medication lists for pairwise drug interactions. The live client talks to
// the RxNav REST API; the static gateway serves a bundled interaction table
// for offline and development use.
package rxnav

import (
	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/interfaces"
)

// buildReport assembles the severity summary over the found interactions.
func buildReport(checked int, interactions []entities.DrugInteraction) *interfaces.InteractionReport {
	report := &interfaces.InteractionReport{
		MedicationsChecked: checked,
		Interactions:       interactions,
		BySeverity:         map[string]int{},
		HighestSeverity:    entities.SeverityNone,
	}
	if interactions == nil {
		report.Interactions = []entities.DrugInteraction{}
	}
	for _, ix := range report.Interactions {
		report.BySeverity[string(ix.Severity)]++
		if ix.Severity.Rank() > report.HighestSeverity.Rank() {
			report.HighestSeverity = ix.Severity
		}
	}
	return report
}
