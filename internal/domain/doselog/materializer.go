package doselog

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medtrack/adherence/internal/domain/medication"
)

// MedicationSource supplies the active medications and schedules the
// materializer walks. Implemented by the medication service.
type MedicationSource interface {
	ListActiveWithSchedules(ctx context.Context, patientID uuid.UUID) ([]*medication.MedicationWithSchedules, error)
}

// Materializer turns recurring weekly schedules into today's concrete dose
// occurrences. Log rows are created lazily: only occurrences already logged
// or inside the imminent window get a row, so a schedule edit before the
// window opens never leaves orphaned rows behind.
type Materializer struct {
	meds     MedicationSource
	logs     Repository
	loc      *time.Location
	imminent time.Duration
	log      zerolog.Logger
}

func NewMaterializer(meds MedicationSource, logs Repository, loc *time.Location, imminent time.Duration, log zerolog.Logger) *Materializer {
	return &Materializer{meds: meds, logs: logs, loc: loc, imminent: imminent, log: log}
}

// Materialize computes every occurrence for the patient on now's date,
// sorted by scheduled time ascending. It is idempotent: reruns find the
// rows earlier passes created instead of creating duplicates.
func (m *Materializer) Materialize(ctx context.Context, patientID uuid.UUID, now time.Time) ([]*Occurrence, error) {
	now = now.In(m.loc)
	meds, err := m.meds.ListActiveWithSchedules(ctx, patientID)
	if err != nil {
		return nil, err
	}

	var occs []*Occurrence
	for _, med := range meds {
		for _, sch := range med.Schedules {
			if !sch.Active || !sch.OnWeekday(now.Weekday()) {
				continue
			}
			t, err := sch.OccurrenceAt(now, m.loc)
			if err != nil {
				// A malformed time_of_day slipped past validation; skip the
				// slot rather than fail the whole day.
				m.log.Warn().Err(err).Str("schedule_id", sch.ID.String()).Msg("skipping schedule with invalid time_of_day")
				continue
			}

			occ := &Occurrence{
				ScheduleID:     sch.ID,
				MedicationID:   med.ID,
				MedicationName: med.Name,
				Dosage:         med.Dosage,
				ScheduledTime:  t,
				Status:         StatusPending,
			}

			window := t.Truncate(time.Minute)
			dl, err := m.logs.FindInWindow(ctx, sch.ID, window, window.Add(time.Minute))
			if err != nil {
				return nil, err
			}
			if dl == nil && t.Sub(now) < m.imminent {
				dl, err = m.logs.Create(ctx, sch.ID, t)
				if err != nil {
					return nil, err
				}
			}
			if dl != nil {
				occ.LogID = &dl.ID
				occ.Status = dl.Status
				occ.TakenAt = dl.TakenAt
				occ.Notes = dl.Notes
			}
			occs = append(occs, occ)
		}
	}

	sort.Slice(occs, func(i, j int) bool { return occs[i].ScheduledTime.Before(occs[j].ScheduledTime) })
	return occs, nil
}

// Upcoming is Materialize capped at the nearest limit occurrences.
func (m *Materializer) Upcoming(ctx context.Context, patientID uuid.UUID, now time.Time, limit int) ([]*Occurrence, error) {
	occs, err := m.Materialize(ctx, patientID, now)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(occs) > limit {
		occs = occs[:limit]
	}
	return occs, nil
}
