// Package handlers provides the HTTP handlers for the reconciliation API:
// clinical analysis, interaction screening, label scanning, instruction
// simplification and the per-user medication records.
package handlers

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/interfaces"
	"github.com/medreconcile/medreconcile-api/logging"
	"github.com/medreconcile/medreconcile-api/metrics"
)

// Minimum response size to consider compression (1KB)
const compressionThreshold = 1024

// RespondWithJSON writes a JSON response, gzip-compressed when the payload
// is large enough and the client accepts it.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if len(data) >= compressionThreshold &&
		strings.Contains(strings.ToLower(r.Header.Get("Accept-Encoding")), "gzip") {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(code)
		gz := gzip.NewWriter(w)
		defer gz.Close()
		gz.Write(data)
		return
	}

	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error body.
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// decodeJSON decodes the request body, answering 400 on malformed input.
// Returns false when the response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// analysisRequest is the shared payload of the analysis endpoints.
type analysisRequest struct {
	Medications    []entities.Medication   `json:"medications"`
	PatientFactors entities.PatientFactors `json:"patient_factors"`
}

// decodeAnalysisRequest decodes and validates the shared analysis payload.
func decodeAnalysisRequest(w http.ResponseWriter, r *http.Request, validator interfaces.RequestValidator) (*analysisRequest, bool) {
	var req analysisRequest
	if !decodeJSON(w, r, &req) {
		return nil, false
	}
	if err := validator.ValidateMedicationList(req.Medications); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := validator.ValidatePatientFactors(&req.PatientFactors); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

// AnalyzeAppropriateness runs the safety rule checks over a medication list.
func AnalyzeAppropriateness(provider interfaces.EngineProvider, validator interfaces.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeAnalysisRequest(w, r, validator)
		if !ok {
			return
		}

		report := provider.RulesEngine().AnalyzeList(req.Medications, req.PatientFactors)
		metrics.AnalysesTotal.WithLabelValues("appropriateness").Inc()
		for _, analysis := range report.MedicationAnalyses {
			for _, alert := range analysis.Alerts {
				metrics.AlertsEmitted.WithLabelValues(string(alert.Severity)).Inc()
			}
		}
		RespondWithJSON(w, r, http.StatusOK, report)
	}
}

// AnalyzeDosages runs the dosage optimization over a medication list.
func AnalyzeDosages(provider interfaces.EngineProvider, validator interfaces.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeAnalysisRequest(w, r, validator)
		if !ok {
			return
		}
		report := provider.DosageAnalyzer().AnalyzeList(req.Medications, req.PatientFactors)
		metrics.AnalysesTotal.WithLabelValues("dosage").Inc()
		RespondWithJSON(w, r, http.StatusOK, report)
	}
}

// ValidateRegimen checks the regimen against the evidence base.
func ValidateRegimen(provider interfaces.EngineProvider, validator interfaces.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeAnalysisRequest(w, r, validator)
		if !ok {
			return
		}
		report := provider.EvidenceAggregator().ValidateRegimen(r.Context(), req.Medications, req.PatientFactors)
		metrics.AnalysesTotal.WithLabelValues("regimen").Inc()
		RespondWithJSON(w, r, http.StatusOK, report)
	}
}

// MedicationRecommendations serves the evidence lookup for one medication.
// Conditions come from repeated ?condition= query parameters.
func MedicationRecommendations(provider interfaces.EngineProvider, validator interfaces.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := urlParam(r, "name")
		if err := validator.ValidateMedicationName(name); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		conditions := r.URL.Query()["condition"]
		for _, cond := range conditions {
			if err := validator.ValidateInput(cond); err != nil {
				RespondWithError(w, http.StatusBadRequest, "condition: "+err.Error())
				return
			}
		}

		recs := provider.EvidenceAggregator().Recommendations(r.Context(), name, conditions, entities.PatientFactors{Conditions: conditions})
		RespondWithJSON(w, r, http.StatusOK, map[string]any{
			"medication":      name,
			"recommendations": recs,
			"count":           len(recs),
			"retrieved_at":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
