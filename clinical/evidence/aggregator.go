package evidence

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/logging"
	"github.com/medreconcile/medreconcile-api/metrics"
)

const defaultSourceTimeout = 10 * time.Second

// Aggregator combines the built-in guideline tables with any number of
// external evidence sources and consolidates their output into a single
// ranked recommendation list.
type Aggregator struct {
	guidelines map[string][]Guideline
	firstLine  []FirstLineTherapy
	sources    []Source
	timeout    time.Duration
}

func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{
		guidelines: defaultGuidelines(),
		firstLine:  defaultFirstLineTherapies(),
		sources:    sources,
		timeout:    defaultSourceTimeout,
	}
}

// SetSourceTimeout overrides the per-query deadline applied to external
// sources. Values <= 0 keep the default.
func (a *Aggregator) SetSourceTimeout(d time.Duration) {
	if d > 0 {
		a.timeout = d
	}
}

// Recommendations gathers recommendations for a medication from the built-in
// guidelines and every configured source. Sources are queried concurrently;
// a source that fails or times out is logged and skipped. Duplicate
// (medication, condition) pairs keep the entry with the stronger evidence
// level, and the result is ordered strongest evidence first.
func (a *Aggregator) Recommendations(ctx context.Context, medication string, conditions []string, factors entities.PatientFactors) []entities.ClinicalRecommendation {
	recs := a.builtinRecommendations(medication, conditions, factors)

	if len(a.sources) > 0 {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for _, src := range a.sources {
			wg.Add(1)
			go func(src Source) {
				defer wg.Done()
				found, err := src.Recommendations(ctx, medication, conditions, factors)
				if err != nil {
					metrics.EvidenceSourceFailures.WithLabelValues(src.Name()).Inc()
					logging.Warn("Evidence source query failed",
						"source", src.Name(), "medication", medication, "error", err)
					return
				}
				mu.Lock()
				recs = append(recs, found...)
				mu.Unlock()
			}(src)
		}
		wg.Wait()
	}

	recs = dedupeRecommendations(recs)
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].EvidenceLevel.Rank() < recs[j].EvidenceLevel.Rank()
	})
	return recs
}

func (a *Aggregator) builtinRecommendations(medication string, conditions []string, factors entities.PatientFactors) []entities.ClinicalRecommendation {
	var recs []entities.ClinicalRecommendation
	for _, g := range a.guidelines[entities.NormalizeName(medication)] {
		if !g.matchesConditions(conditions) || !g.matchesPatient(factors) {
			continue
		}
		recs = append(recs, entities.ClinicalRecommendation{
			MedicationName:         medication,
			Condition:              g.PrimaryCondition,
			Recommendation:         g.Recommendation,
			EvidenceLevel:          g.EvidenceLevel,
			Strength:               g.Strength,
			Source:                 builtinSource,
			References:             g.References,
			Contraindications:      g.Contraindications,
			MonitoringRequirements: g.Monitoring,
			Timestamp:              time.Now().UTC(),
		})
	}
	return recs
}

// matchesConditions reports whether the guideline applies to the given
// patient conditions. A guideline with no declared conditions, or a query
// with no conditions, always applies.
func (g Guideline) matchesConditions(conditions []string) bool {
	if len(g.Conditions) == 0 || len(conditions) == 0 {
		return true
	}
	for _, declared := range g.Conditions {
		for _, cond := range conditions {
			if strings.Contains(strings.ToLower(cond), declared) ||
				strings.Contains(declared, strings.ToLower(cond)) {
				return true
			}
		}
	}
	return false
}

func (g Guideline) matchesPatient(factors entities.PatientFactors) bool {
	if factors.Age == nil {
		return true
	}
	if g.MinAge > 0 && *factors.Age < g.MinAge {
		return false
	}
	if g.MaxAge > 0 && *factors.Age > g.MaxAge {
		return false
	}
	return true
}

// dedupeRecommendations collapses entries sharing a (medication, condition)
// pair, keeping the one with the stronger evidence level. Ties keep the
// earlier entry.
func dedupeRecommendations(recs []entities.ClinicalRecommendation) []entities.ClinicalRecommendation {
	if len(recs) < 2 {
		return recs
	}
	index := make(map[string]int, len(recs))
	out := make([]entities.ClinicalRecommendation, 0, len(recs))
	for _, rec := range recs {
		key := strings.ToLower(rec.MedicationName) + "|" + strings.ToLower(rec.Condition)
		at, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, rec)
			continue
		}
		if rec.EvidenceLevel.Stronger(out[at].EvidenceLevel) {
			out[at] = rec
		}
	}
	return out
}

// AppropriateMedication is a regimen entry supported by current evidence.
type AppropriateMedication struct {
	Medication         entities.Medication               `json:"medication"`
	SupportingEvidence []entities.ClinicalRecommendation `json:"supportingEvidence"`
}

// QuestionableMedication is a regimen entry without evidence tying it to the
// patient's documented conditions. Alternatives stays an empty list until
// alternative-suggestion logic exists.
type QuestionableMedication struct {
	Medication   entities.Medication               `json:"medication"`
	Concerns     []string                          `json:"concerns"`
	Alternatives []entities.ClinicalRecommendation `json:"alternatives"`
}

// MissingTherapy flags a documented condition lacking its expected
// first-line therapy.
type MissingTherapy struct {
	Condition     string                 `json:"condition"`
	Recommended   string                 `json:"recommendedMedication"`
	EvidenceLevel entities.EvidenceLevel `json:"evidenceLevel"`
	Reason        string                 `json:"reason"`
}

// RegimenReport is the outcome of validating a full medication regimen.
type RegimenReport struct {
	Appropriate       []AppropriateMedication  `json:"appropriateMedications"`
	Questionable      []QuestionableMedication `json:"questionableMedications"`
	MissingTherapies  []MissingTherapy         `json:"missingTherapies"`
	OverallAssessment string                   `json:"overallAssessment"`
}

// ValidateRegimen checks every medication in a regimen against the available
// evidence and the patient's conditions, and looks for documented conditions
// missing their first-line therapy. A medication with no recommendations at
// all is treated as appropriate; only contradicting evidence marks it
// questionable.
func (a *Aggregator) ValidateRegimen(ctx context.Context, medications []entities.Medication, factors entities.PatientFactors) *RegimenReport {
	report := &RegimenReport{
		Appropriate:      []AppropriateMedication{},
		Questionable:     []QuestionableMedication{},
		MissingTherapies: []MissingTherapy{},
	}

	for _, med := range medications {
		recs := a.Recommendations(ctx, med.Name, factors.Conditions, factors)
		supporting := supportingEvidence(recs, factors.Conditions)
		switch {
		case len(recs) == 0 || len(supporting) > 0:
			report.Appropriate = append(report.Appropriate, AppropriateMedication{
				Medication:         med,
				SupportingEvidence: supporting,
			})
		default:
			report.Questionable = append(report.Questionable, QuestionableMedication{
				Medication:   med,
				Concerns:     []string{"No evidence-based indication found for current conditions"},
				Alternatives: []entities.ClinicalRecommendation{},
			})
		}
	}

	report.MissingTherapies = a.missingTherapies(medications, factors.Conditions)
	report.OverallAssessment = overallAssessment(len(report.Questionable), len(report.MissingTherapies))
	return report
}

// supportingEvidence keeps the recommendations whose condition mentions one
// of the patient's documented conditions.
func supportingEvidence(recs []entities.ClinicalRecommendation, conditions []string) []entities.ClinicalRecommendation {
	var out []entities.ClinicalRecommendation
	for _, rec := range recs {
		for _, cond := range conditions {
			if strings.Contains(strings.ToLower(rec.Condition), strings.ToLower(cond)) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

func (a *Aggregator) missingTherapies(medications []entities.Medication, conditions []string) []MissingTherapy {
	onTherapy := make(map[string]bool, len(medications))
	for _, med := range medications {
		onTherapy[med.Key()] = true
	}

	missing := []MissingTherapy{}
	for _, therapy := range a.firstLine {
		if !containsKeyword(conditions, therapy.ConditionKeyword) {
			continue
		}
		covered := false
		for _, name := range therapy.AnyOf {
			if onTherapy[name] {
				covered = true
				break
			}
		}
		if !covered {
			missing = append(missing, MissingTherapy{
				Condition:     therapy.ConditionKeyword,
				Recommended:   therapy.Recommended,
				EvidenceLevel: therapy.EvidenceLevel,
				Reason:        therapy.Reason,
			})
		}
	}
	return missing
}

func containsKeyword(conditions []string, keyword string) bool {
	for _, cond := range conditions {
		if strings.Contains(strings.ToLower(cond), keyword) {
			return true
		}
	}
	return false
}

func overallAssessment(questionable, missing int) string {
	switch {
	case questionable == 0 && missing == 0:
		return "Excellent - All medications are evidence-based and appropriate"
	case questionable <= 1 && missing <= 1:
		return "Good - Minor optimization opportunities identified"
	case questionable <= 2 || missing <= 2:
		return "Fair - Several optimization opportunities identified"
	default:
		return "Needs Review - Multiple concerns identified requiring attention"
	}
}
