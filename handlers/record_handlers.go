package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/medreconcile/medreconcile-api/auth"
	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/interfaces"
	"github.com/medreconcile/medreconcile-api/store"
)

type recordRequest struct {
	Medication entities.Medication `json:"medication"`
	Prescriber string              `json:"prescriber"`
	Pharmacy   string              `json:"pharmacy"`
	Notes      string              `json:"notes"`
	Active     *bool               `json:"active"`
}

func (req *recordRequest) validate(validator interfaces.RequestValidator) error {
	if err := validator.ValidateMedication(&req.Medication); err != nil {
		return err
	}
	for _, field := range []string{req.Prescriber, req.Pharmacy, req.Notes} {
		if field == "" {
			continue
		}
		if err := validator.ValidateInput(field); err != nil {
			return err
		}
	}
	return nil
}

func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, "medication record not found")
	case errors.Is(err, store.ErrConflict):
		RespondWithError(w, http.StatusConflict, "medication record already exists")
	default:
		RespondWithError(w, http.StatusInternalServerError, "storage error")
	}
}

// CreateRecord saves a medication record for the authenticated user.
func CreateRecord(records interfaces.MedicationStore, validator interfaces.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		if principal == nil {
			RespondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		var req recordRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := req.validate(validator); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		record := entities.NewMedicationRecord(principal.UserID, req.Medication)
		record.Prescriber = req.Prescriber
		record.Pharmacy = req.Pharmacy
		record.Notes = req.Notes
		if req.Active != nil {
			record.Active = *req.Active
		}

		if err := records.Create(r.Context(), record); err != nil {
			respondStoreError(w, err)
			return
		}
		RespondWithJSON(w, r, http.StatusCreated, record)
	}
}

// ListRecords returns every medication record belonging to the caller.
func ListRecords(records interfaces.MedicationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		if principal == nil {
			RespondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		list, err := records.List(r.Context(), principal.UserID)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, map[string]any{
			"records": list,
			"count":   len(list),
		})
	}
}

// GetRecord returns a single medication record owned by the caller.
func GetRecord(records interfaces.MedicationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		if principal == nil {
			RespondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		record, err := records.Get(r.Context(), principal.UserID, urlParam(r, "id"))
		if err != nil {
			respondStoreError(w, err)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, record)
	}
}

// UpdateRecord replaces the mutable fields of a medication record.
func UpdateRecord(records interfaces.MedicationStore, validator interfaces.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		if principal == nil {
			RespondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		var req recordRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := req.validate(validator); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		existing, err := records.Get(r.Context(), principal.UserID, urlParam(r, "id"))
		if err != nil {
			respondStoreError(w, err)
			return
		}

		existing.Medication = req.Medication
		existing.Prescriber = req.Prescriber
		existing.Pharmacy = req.Pharmacy
		existing.Notes = req.Notes
		if req.Active != nil {
			existing.Active = *req.Active
		}
		existing.UpdatedAt = time.Now().UTC()

		if err := records.Update(r.Context(), existing); err != nil {
			respondStoreError(w, err)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, existing)
	}
}

// DeleteRecord removes a medication record owned by the caller.
func DeleteRecord(records interfaces.MedicationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		if principal == nil {
			RespondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		if err := records.Delete(r.Context(), principal.UserID, urlParam(r, "id")); err != nil {
			respondStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
