package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/clinical/evidence"
	"github.com/medreconcile/medreconcile-api/interfaces"
	"github.com/medreconcile/medreconcile-api/logging"
	"github.com/medreconcile/medreconcile-api/metrics"
)

// Reconcile runs the full pipeline: safety rules, dosage optimization,
// interaction screening and regimen validation, consolidated into one
// report. A failing interaction gateway degrades the report instead of
// failing it.
func Reconcile(provider interfaces.EngineProvider, terminology interfaces.TerminologyGateway, validator interfaces.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeAnalysisRequest(w, r, validator)
		if !ok {
			return
		}

		safety := provider.RulesEngine().AnalyzeList(req.Medications, req.PatientFactors)
		doses := provider.DosageAnalyzer().AnalyzeList(req.Medications, req.PatientFactors)
		regimen := provider.EvidenceAggregator().ValidateRegimen(r.Context(), req.Medications, req.PatientFactors)

		var interactions []entities.DrugInteraction
		ixReport, err := terminology.Interactions(r.Context(), req.Medications)
		if err != nil {
			logging.Warn("Interaction screening unavailable during reconciliation", "error", err)
		} else {
			interactions = ixReport.Interactions
		}

		metrics.AnalysesTotal.WithLabelValues("reconcile").Inc()
		RespondWithJSON(w, r, http.StatusOK, evidence.Consolidate(safety, doses, interactions, regimen))
	}
}

// CheckInteractions screens a medication list for pairwise interactions.
func CheckInteractions(terminology interfaces.TerminologyGateway, validator interfaces.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Medications []entities.Medication `json:"medications"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := validator.ValidateMedicationList(req.Medications); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		report, err := terminology.Interactions(r.Context(), req.Medications)
		if err != nil {
			logging.Error("Interaction screening failed", "error", err)
			RespondWithError(w, http.StatusBadGateway, "interaction service unavailable")
			return
		}
		RespondWithJSON(w, r, http.StatusOK, report)
	}
}

// ScanLabel extracts structured medication data from an uploaded label. The
// body is the raw image (or plain text); Content-Type selects the format.
func ScanLabel(scanner interfaces.LabelScanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		image, err := io.ReadAll(r.Body)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, "could not read upload")
			return
		}

		contentType := r.Header.Get("Content-Type")
		if idx := strings.Index(contentType, ";"); idx != -1 {
			contentType = strings.TrimSpace(contentType[:idx])
		}

		result, err := scanner.ScanLabel(r.Context(), image, contentType)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		RespondWithJSON(w, r, http.StatusOK, result)
	}
}

// SimplifyInstructions rewrites clinical text in plain language.
func SimplifyInstructions(simplifier interfaces.Simplifier, validator interfaces.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text         string `json:"text"`
			ReadingLevel string `json:"reading_level"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := validator.ValidateInput(req.Text); err != nil {
			RespondWithError(w, http.StatusBadRequest, "text: "+err.Error())
			return
		}

		result, err := simplifier.Simplify(r.Context(), req.Text, req.ReadingLevel)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		RespondWithJSON(w, r, http.StatusOK, result)
	}
}
