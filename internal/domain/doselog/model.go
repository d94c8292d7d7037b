package doselog

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one dose occurrence's backing log row.
type Status string

const (
	// StatusPending is the initial state: the occurrence has a log row but
	// no outcome yet.
	StatusPending Status = "pending"
	// StatusTaken is terminal; the patient confirmed the dose and taken_at
	// records when.
	StatusTaken Status = "taken"
	// StatusMissed is terminal; the sweeper flips overdue pending rows here
	// and the alert pipeline fires.
	StatusMissed Status = "missed"
	// StatusSkipped is terminal; patient-initiated, no taken timestamp.
	StatusSkipped Status = "skipped"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusTaken || s == StatusMissed || s == StatusSkipped
}

// DoseLog is the persisted outcome of one dose occurrence. Identity for
// deduplication is (schedule_id, scheduled_time truncated to the minute);
// the storage layer enforces it with a unique index, so concurrent
// materialization passes cannot double-create. Rows are never deleted in
// normal operation.
type DoseLog struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	ScheduleID    uuid.UUID  `db:"schedule_id" json:"schedule_id"`
	ScheduledTime time.Time  `db:"scheduled_time" json:"scheduled_time"`
	TakenAt       *time.Time `db:"taken_at" json:"taken_at,omitempty"`
	Status        Status     `db:"status" json:"status"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Occurrence is one concrete instance of a recurring schedule on a specific
// date, as shown to the patient. LogID is nil while the occurrence is outside
// the imminent window and has no backing row yet.
type Occurrence struct {
	ScheduleID     uuid.UUID  `json:"schedule_id"`
	MedicationID   uuid.UUID  `json:"medication_id"`
	MedicationName string     `json:"medication_name"`
	Dosage         string     `json:"dosage"`
	ScheduledTime  time.Time  `json:"scheduled_time"`
	Status         Status     `json:"status"`
	LogID          *uuid.UUID `json:"log_id,omitempty"`
	TakenAt        *time.Time `json:"taken_at,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// OverdueDose is a pending log past the missed threshold, joined with the
// context the sweeper needs to build an alert.
type OverdueDose struct {
	DoseLog
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	MedicationName string    `db:"medication_name" json:"medication_name"`
}
