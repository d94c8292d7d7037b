package doselog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("dose log not found")
	// ErrTerminalStatus is returned when a transition targets a log whose
	// status is already taken, missed or skipped.
	ErrTerminalStatus = errors.New("dose log is in a terminal status")
)

// Repository is the dose_log persistence surface. FindInWindow and Create
// together implement minute-window deduplication: a log belongs to an
// occurrence when its scheduled_time falls in [t, t+1m).
type Repository interface {
	// Create inserts a pending row and returns the canonical row for the
	// occurrence. On a unique-index conflict with a concurrent insert it
	// returns the winning row instead of an error.
	Create(ctx context.Context, scheduleID uuid.UUID, scheduledTime time.Time) (*DoseLog, error)

	// FindInWindow returns the log whose scheduled_time lies in [start, end),
	// or (nil, nil) when none exists.
	FindInWindow(ctx context.Context, scheduleID uuid.UUID, start, end time.Time) (*DoseLog, error)

	// GetForPatient loads a log and verifies, through its schedule and
	// medication, that it belongs to the given patient.
	GetForPatient(ctx context.Context, id, patientID uuid.UUID) (*DoseLog, error)

	// SetStatus transitions a pending log to a terminal status. It reports
	// ErrTerminalStatus when the row exists but is no longer pending.
	SetStatus(ctx context.Context, id uuid.UUID, status Status, takenAt *time.Time, notes *string) error

	// ListForPatientBetween returns the patient's logs with scheduled_time in
	// [start, end), ascending.
	ListForPatientBetween(ctx context.Context, patientID uuid.UUID, start, end time.Time) ([]*DoseLog, error)

	// ListOverduePending returns pending logs scheduled before the cutoff,
	// joined with patient and medication context for alerting.
	ListOverduePending(ctx context.Context, cutoff time.Time, limit int) ([]*OverdueDose, error)

	// MarkMissed flips a pending log to missed. It reports whether the update
	// won; false means another writer got there first.
	MarkMissed(ctx context.Context, id uuid.UUID) (bool, error)
}
