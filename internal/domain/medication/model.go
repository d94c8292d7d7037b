package medication

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Medication is one drug a patient tracks. Rows are soft-disabled via the
// active flag instead of deleted while dose logs still reference them.
type Medication struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	Name         string    `db:"name" json:"name"`
	Dosage       string    `db:"dosage" json:"dosage"`
	Instructions *string   `db:"instructions" json:"instructions,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Schedule is a recurring weekly dose slot for one medication: a wall-clock
// time of day ("HH:MM", no timezone — interpreted in the server's configured
// location) plus the weekdays it applies to (0=Sunday..6=Saturday).
type Schedule struct {
	ID           uuid.UUID `db:"id" json:"id"`
	MedicationID uuid.UUID `db:"medication_id" json:"medication_id"`
	TimeOfDay    string    `db:"time_of_day" json:"time_of_day"`
	Weekdays     []int32   `db:"weekdays" json:"weekdays"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Clock parses the schedule's time of day.
func (s *Schedule) Clock() (hour, minute int, err error) {
	if _, err := fmt.Sscanf(s.TimeOfDay, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid time_of_day %q: %w", s.TimeOfDay, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time_of_day %q out of range", s.TimeOfDay)
	}
	return hour, minute, nil
}

// OnWeekday reports whether the schedule applies on the given weekday.
// An empty weekday set matches nothing.
func (s *Schedule) OnWeekday(d time.Weekday) bool {
	for _, w := range s.Weekdays {
		if w == int32(d) {
			return true
		}
	}
	return false
}

// OccurrenceAt composes the concrete scheduled timestamp for the given date
// in loc. Wall-clock composition: no timezone conversion is applied to the
// stored time of day.
func (s *Schedule) OccurrenceAt(date time.Time, loc *time.Location) (time.Time, error) {
	hour, minute, err := s.Clock()
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc), nil
}

// MedicationWithSchedules pairs a medication with its active schedules, the
// shape the dose materializer consumes.
type MedicationWithSchedules struct {
	Medication
	Schedules []*Schedule `json:"schedules"`
}
