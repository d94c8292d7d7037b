package doselog

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	logs Repository
	mat  *Materializer
	loc  *time.Location
	// now is swappable in tests.
	now func() time.Time
}

func NewService(logs Repository, mat *Materializer, loc *time.Location) *Service {
	return &Service{logs: logs, mat: mat, loc: loc, now: time.Now}
}

// Today materializes and returns the patient's occurrences for the current
// date, nearest first, capped at limit (0 means no cap).
func (s *Service) Today(ctx context.Context, patientID uuid.UUID, limit int) ([]*Occurrence, error) {
	return s.mat.Upcoming(ctx, patientID, s.now(), limit)
}

// MarkTaken transitions one of the patient's pending logs to taken, recording
// the confirmation time.
func (s *Service) MarkTaken(ctx context.Context, patientID, logID uuid.UUID, notes *string) (*DoseLog, error) {
	if _, err := s.logs.GetForPatient(ctx, logID, patientID); err != nil {
		return nil, err
	}
	takenAt := s.now()
	if err := s.logs.SetStatus(ctx, logID, StatusTaken, &takenAt, notes); err != nil {
		return nil, err
	}
	return s.logs.GetForPatient(ctx, logID, patientID)
}

// MarkSkipped transitions one of the patient's pending logs to skipped.
func (s *Service) MarkSkipped(ctx context.Context, patientID, logID uuid.UUID, notes *string) (*DoseLog, error) {
	if _, err := s.logs.GetForPatient(ctx, logID, patientID); err != nil {
		return nil, err
	}
	if err := s.logs.SetStatus(ctx, logID, StatusSkipped, nil, notes); err != nil {
		return nil, err
	}
	return s.logs.GetForPatient(ctx, logID, patientID)
}

// DayLogs returns the patient's recorded logs for the calendar day containing
// date, without materializing new rows. This is the caregiver's read path.
func (s *Service) DayLogs(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*DoseLog, error) {
	start, end := s.dayBounds(date)
	return s.logs.ListForPatientBetween(ctx, patientID, start, end)
}

// Compliance summarises one day of logged doses.
type Compliance struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Taken   int    `json:"taken"`
	Percent int    `json:"percent"`
}

// ComplianceForDay computes round(100 * taken / total) over the day's logged
// doses. A day with no logs scores 100: nothing was due, nothing was missed.
func (s *Service) ComplianceForDay(ctx context.Context, patientID uuid.UUID, date time.Time) (*Compliance, error) {
	start, end := s.dayBounds(date)
	logs, err := s.logs.ListForPatientBetween(ctx, patientID, start, end)
	if err != nil {
		return nil, err
	}

	c := &Compliance{Date: start.Format("2006-01-02"), Percent: 100}
	for _, dl := range logs {
		c.Total++
		if dl.Status == StatusTaken {
			c.Taken++
		}
	}
	if c.Total > 0 {
		c.Percent = int(math.Round(100 * float64(c.Taken) / float64(c.Total)))
	}
	return c, nil
}

func (s *Service) dayBounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.In(s.loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}
