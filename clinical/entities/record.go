package entities

import (
	"time"

	"github.com/google/uuid"
)

// MedicationRecord is a persisted entry of a user's medication list.
type MedicationRecord struct {
	ID         uuid.UUID  `json:"id"`
	UserID     string     `json:"user_id"`
	Medication Medication `json:"medication"`
	Prescriber string     `json:"prescriber,omitempty"`
	Pharmacy   string     `json:"pharmacy,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewMedicationRecord builds an active record with a fresh identifier and
// creation timestamps.
func NewMedicationRecord(userID string, med Medication) *MedicationRecord {
	now := time.Now().UTC()
	return &MedicationRecord{
		ID:         uuid.New(),
		UserID:     userID,
		Medication: med,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
