// Package interfaces defines the core abstractions of the reconciliation
// service so handlers, gateways and stores can be swapped and tested in
// isolation.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/medreconcile/medreconcile-api/clinical/dosage"
	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/clinical/evidence"
	"github.com/medreconcile/medreconcile-api/clinical/rules"
)

// EngineProvider gives thread-safe access to the clinical engines built from
// the current reference tables, with atomic swaps for zero-downtime
// refreshes.
type EngineProvider interface {
	RulesEngine() *rules.Engine
	DosageAnalyzer() *dosage.Analyzer
	EvidenceAggregator() *evidence.Aggregator
	LastRefreshed() time.Time
	IsRefreshing() bool
	ServerStartTime() time.Time

	Swap(rulesEngine *rules.Engine, analyzer *dosage.Analyzer, aggregator *evidence.Aggregator)
	BeginRefresh() bool
	EndRefresh()
}

// InteractionReport summarizes pairwise interaction screening for a
// medication list.
type InteractionReport struct {
	MedicationsChecked int                        `json:"medications_checked"`
	Interactions       []entities.DrugInteraction `json:"interactions"`
	BySeverity         map[string]int             `json:"by_severity"`
	HighestSeverity    entities.Severity          `json:"highest_severity"`
}

// Resolution is the terminology lookup result for one medication name.
// RxCUI is empty when the name is unknown; Suggestions then carries
// near-match names the caller can offer instead.
type Resolution struct {
	RxCUI       string   `json:"rxcui,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// TerminologyGateway resolves medication names against a drug terminology
// service and screens medication lists for pairwise interactions.
type TerminologyGateway interface {
	Resolve(ctx context.Context, name string) (*Resolution, error)

	// Interactions screens every pair in the list. Unresolvable names are
	// skipped, not fatal.
	Interactions(ctx context.Context, medications []entities.Medication) (*InteractionReport, error)
}

// ScanResult is the structured outcome of reading a prescription label.
// FieldConfidences scores each extracted field individually; Confidence is
// their weighted combination.
type ScanResult struct {
	Medication       entities.Medication `json:"medication"`
	Prescriber       string              `json:"prescriber,omitempty"`
	Pharmacy         string              `json:"pharmacy,omitempty"`
	RawText          string              `json:"raw_text"`
	Confidence       float64             `json:"confidence"`
	FieldConfidences map[string]float64  `json:"field_confidences"`
	NeedsReview      bool                `json:"needs_review"`
}

// LabelScanner extracts structured medication data from a prescription
// label image.
type LabelScanner interface {
	ScanLabel(ctx context.Context, image []byte, contentType string) (*ScanResult, error)
}

// SimplifiedText is a patient-friendly rendering of clinical instructions.
// WordCountReduction is a percentage and goes negative when the plain
// wording is longer than the original.
type SimplifiedText struct {
	Original            string   `json:"original"`
	Simplified          string   `json:"simplified"`
	ReadingLevel        string   `json:"reading_level"`
	Confidence          float64  `json:"confidence"`
	OriginalWordCount   int      `json:"original_word_count"`
	SimplifiedWordCount int      `json:"simplified_word_count"`
	WordCountReduction  float64  `json:"word_count_reduction"`
	KeyTermsExplained   []string `json:"key_terms_explained"`
}

// Simplifier rewrites clinical instructions in plain language.
type Simplifier interface {
	Simplify(ctx context.Context, text, readingLevel string) (*SimplifiedText, error)
}

// Principal identifies an authenticated caller.
type Principal struct {
	UserID  string
	Subject string
	Scopes  []string
}

// Authenticator resolves the caller identity on protected routes.
type Authenticator interface {
	Authenticate(r *http.Request) (*Principal, error)
}

// MedicationStore persists per-user medication records.
type MedicationStore interface {
	Create(ctx context.Context, record *entities.MedicationRecord) error
	Get(ctx context.Context, userID, id string) (*entities.MedicationRecord, error)
	List(ctx context.Context, userID string) ([]entities.MedicationRecord, error)
	Update(ctx context.Context, record *entities.MedicationRecord) error
	Delete(ctx context.Context, userID, id string) error
	Ping(ctx context.Context) error
}

// Scheduler manages the periodic reference data refresh.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports system health for the health endpoint.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
	CalculateNextRefresh() time.Time
}

// RequestValidator screens user-supplied input before it reaches the
// clinical engines.
type RequestValidator interface {
	ValidateInput(input string) error
	ValidateMedicationName(name string) error
	ValidateMedication(med *entities.Medication) error
	ValidatePatientFactors(factors *entities.PatientFactors) error
	ValidateMedicationList(meds []entities.Medication) error
}
