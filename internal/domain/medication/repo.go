package medication

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a row does not exist or is not visible to the
// requesting patient. Repositories do not distinguish the two cases.
var ErrNotFound = errors.New("medication not found")

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id, patientID uuid.UUID) (*Medication, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Medication, int, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, id, patientID uuid.UUID) error
	HasDoseLogs(ctx context.Context, id uuid.UUID) (bool, error)
	// ListActiveWithSchedules returns the patient's active medications with
	// their active schedules, the materializer's read path.
	ListActiveWithSchedules(ctx context.Context, patientID uuid.UUID) ([]*MedicationWithSchedules, error)
}

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	ListByMedication(ctx context.Context, medicationID uuid.UUID) ([]*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
}
