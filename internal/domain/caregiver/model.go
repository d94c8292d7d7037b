package caregiver

import (
	"time"

	"github.com/google/uuid"
)

// Connection links a caregiver to a patient. One row per pair, enforced by a
// unique index on (patient_id, caregiver_id). The patient creates and removes
// connections; the caregiver controls notification delivery for their side.
type Connection struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	CaregiverID uuid.UUID `db:"caregiver_id" json:"caregiver_id"`
	// Relationship is a free-form label the patient assigns ("daughter",
	// "home nurse").
	Relationship *string `db:"relationship" json:"relationship,omitempty"`
	Active       bool    `db:"active" json:"active"`
	Notify       bool    `db:"notify" json:"notify"`
	// DeviceKey is the caregiver's push device key. Nil disables push but not
	// in-app alerts.
	DeviceKey *string   `db:"device_key" json:"device_key,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
