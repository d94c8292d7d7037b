package alert

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates alert payloads. Missed doses are the only producer
// today; the column exists so new producers don't need a schema change.
type Kind string

const KindMissedDose Kind = "missed_dose"

// Alert is an in-app notification addressed to one caregiver about one
// patient. Alerts are append-only; the caregiver only flips the read flag.
type Alert struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	CaregiverID uuid.UUID  `db:"caregiver_id" json:"caregiver_id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoseLogID   *uuid.UUID `db:"dose_log_id" json:"dose_log_id,omitempty"`
	Kind        Kind       `db:"kind" json:"kind"`
	Message     string     `db:"message" json:"message"`
	Read        bool       `db:"read" json:"read"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
