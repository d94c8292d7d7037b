package medication

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// ErrNotOwner is returned when a write touches a medication the caller's
// patient id does not own. The UI never issues such writes; seeing this error
// in logs means a bug or a forged request.
var ErrNotOwner = errors.New("caller does not own this medication")

var timeOfDayPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

type Service struct {
	medications MedicationRepository
	schedules   ScheduleRepository
}

func NewService(meds MedicationRepository, scheds ScheduleRepository) *Service {
	return &Service{medications: meds, schedules: scheds}
}

// -- Medication --

func (s *Service) CreateMedication(ctx context.Context, m *Medication) error {
	if m.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Dosage == "" {
		return fmt.Errorf("dosage is required")
	}
	m.Active = true
	return s.medications.Create(ctx, m)
}

func (s *Service) GetMedication(ctx context.Context, id, patientID uuid.UUID) (*Medication, error) {
	return s.medications.GetByID(ctx, id, patientID)
}

func (s *Service) ListMedications(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Medication, int, error) {
	return s.medications.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) UpdateMedication(ctx context.Context, m *Medication) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Dosage == "" {
		return fmt.Errorf("dosage is required")
	}
	return s.medications.Update(ctx, m)
}

// DeleteMedication removes a medication outright when nothing references it.
// Once dose logs exist the row is only deactivated, so history stays intact.
func (s *Service) DeleteMedication(ctx context.Context, id, patientID uuid.UUID) error {
	m, err := s.medications.GetByID(ctx, id, patientID)
	if err != nil {
		return err
	}

	hasLogs, err := s.medications.HasDoseLogs(ctx, id)
	if err != nil {
		return err
	}
	if hasLogs {
		m.Active = false
		return s.medications.Update(ctx, m)
	}
	return s.medications.Delete(ctx, id, patientID)
}

// ListActiveWithSchedules is the materializer's read path: the patient's
// active medications, each carrying its active schedules.
func (s *Service) ListActiveWithSchedules(ctx context.Context, patientID uuid.UUID) ([]*MedicationWithSchedules, error) {
	return s.medications.ListActiveWithSchedules(ctx, patientID)
}

// -- Schedule --

func validateSchedule(sch *Schedule) error {
	if !timeOfDayPattern.MatchString(sch.TimeOfDay) {
		return fmt.Errorf("time_of_day must be HH:MM, got %q", sch.TimeOfDay)
	}
	seen := make(map[int32]bool, len(sch.Weekdays))
	for _, w := range sch.Weekdays {
		if w < 0 || w > 6 {
			return fmt.Errorf("weekday %d out of range 0..6", w)
		}
		if seen[w] {
			return fmt.Errorf("duplicate weekday %d", w)
		}
		seen[w] = true
	}
	return nil
}

// CreateSchedule adds a dose slot to one of the patient's own medications.
func (s *Service) CreateSchedule(ctx context.Context, patientID uuid.UUID, sch *Schedule) error {
	if sch.MedicationID == uuid.Nil {
		return fmt.Errorf("medication_id is required")
	}
	if _, err := s.medications.GetByID(ctx, sch.MedicationID, patientID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotOwner
		}
		return err
	}
	if err := validateSchedule(sch); err != nil {
		return err
	}
	sch.Active = true
	return s.schedules.Create(ctx, sch)
}

func (s *Service) ListSchedules(ctx context.Context, patientID, medicationID uuid.UUID) ([]*Schedule, error) {
	if _, err := s.medications.GetByID(ctx, medicationID, patientID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotOwner
		}
		return nil, err
	}
	return s.schedules.ListByMedication(ctx, medicationID)
}

func (s *Service) UpdateSchedule(ctx context.Context, patientID uuid.UUID, sch *Schedule) error {
	existing, err := s.schedules.GetByID(ctx, sch.ID)
	if err != nil {
		return err
	}
	if _, err := s.medications.GetByID(ctx, existing.MedicationID, patientID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotOwner
		}
		return err
	}
	if err := validateSchedule(sch); err != nil {
		return err
	}
	sch.MedicationID = existing.MedicationID
	return s.schedules.Update(ctx, sch)
}

func (s *Service) DeleteSchedule(ctx context.Context, patientID, scheduleID uuid.UUID) error {
	existing, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if _, err := s.medications.GetByID(ctx, existing.MedicationID, patientID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotOwner
		}
		return err
	}
	return s.schedules.Delete(ctx, scheduleID)
}
