package doselog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medtrack/adherence/internal/platform/notification"
)

// sweepBatch bounds one pass so a long outage's backlog drains in chunks.
const sweepBatch = 500

// CaregiverContact is one caregiver to notify about a patient's missed dose.
// DeviceKey is nil when the caregiver has no push device registered; they
// still get an in-app alert.
type CaregiverContact struct {
	CaregiverID uuid.UUID
	DeviceKey   *string
}

// ConnectionSource lists the caregivers connected to a patient with
// notifications enabled. Implemented by the caregiver domain; the indirection
// avoids an import cycle.
type ConnectionSource interface {
	ListNotifiable(ctx context.Context, patientID uuid.UUID) ([]CaregiverContact, error)
}

// AlertSink records an in-app alert for a caregiver. Implemented by the
// alert domain.
type AlertSink interface {
	CreateMissedDoseAlert(ctx context.Context, caregiverID, patientID, doseLogID uuid.UUID, message string) error
}

// Sweeper flips pending dose logs past the missed threshold to missed and
// fans alerts out to connected caregivers. It is the only writer of the
// missed status.
type Sweeper struct {
	logs        Repository
	connections ConnectionSource
	alerts      AlertSink
	pusher      notification.Pusher
	missedAfter time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

func NewSweeper(logs Repository, connections ConnectionSource, alerts AlertSink, pusher notification.Pusher, missedAfter time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		logs:        logs,
		connections: connections,
		alerts:      alerts,
		pusher:      pusher,
		missedAfter: missedAfter,
		log:         log,
		now:         time.Now,
	}
}

// Run executes one sweep and logs the outcome. Suitable as a cron entry.
func (s *Sweeper) Run(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("missed-dose sweep failed")
		return
	}
	if n > 0 {
		s.log.Info().Int("marked_missed", n).Msg("missed-dose sweep complete")
	}
}

// Sweep marks overdue pending logs as missed and returns how many rows it
// flipped. The MarkMissed guard makes concurrent sweeps safe: only the
// winning update triggers alerts, so caregivers never see duplicates.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.missedAfter)
	overdue, err := s.logs.ListOverduePending(ctx, cutoff, sweepBatch)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, od := range overdue {
		won, err := s.logs.MarkMissed(ctx, od.ID)
		if err != nil {
			return marked, err
		}
		if !won {
			continue
		}
		marked++
		s.notify(ctx, od)
	}
	return marked, nil
}

func (s *Sweeper) notify(ctx context.Context, od *OverdueDose) {
	contacts, err := s.connections.ListNotifiable(ctx, od.PatientID)
	if err != nil {
		s.log.Error().Err(err).Str("patient_id", od.PatientID.String()).Msg("listing caregivers for missed-dose alert")
		return
	}

	message := fmt.Sprintf("Missed dose: %s scheduled at %s was not taken",
		od.MedicationName, od.ScheduledTime.Format("15:04 Jan 2"))

	for _, contact := range contacts {
		if err := s.alerts.CreateMissedDoseAlert(ctx, contact.CaregiverID, od.PatientID, od.ID, message); err != nil {
			s.log.Error().Err(err).Str("caregiver_id", contact.CaregiverID.String()).Msg("creating missed-dose alert")
			continue
		}
		if contact.DeviceKey == nil {
			continue
		}
		if err := s.pusher.Push(ctx, *contact.DeviceKey, "Missed dose", message); err != nil {
			// Push is best effort; the in-app alert already landed.
			s.log.Warn().Err(err).Str("caregiver_id", contact.CaregiverID.String()).Msg("push delivery failed")
		}
	}
}
