package doselog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medtrack/adherence/internal/domain/medication"
)

type mockConnections struct {
	contacts map[uuid.UUID][]CaregiverContact
}

func (m *mockConnections) ListNotifiable(_ context.Context, patientID uuid.UUID) ([]CaregiverContact, error) {
	return m.contacts[patientID], nil
}

type recordedAlert struct {
	caregiverID, patientID, doseLogID uuid.UUID
	message                           string
}

type mockAlerts struct{ created []recordedAlert }

func (m *mockAlerts) CreateMissedDoseAlert(_ context.Context, caregiverID, patientID, doseLogID uuid.UUID, message string) error {
	m.created = append(m.created, recordedAlert{caregiverID, patientID, doseLogID, message})
	return nil
}

type mockPusher struct{ sent []string }

func (m *mockPusher) Push(_ context.Context, deviceKey, _, message string) error {
	m.sent = append(m.sent, deviceKey+": "+message)
	return nil
}

func newTestSweeper(f *fixture, conns *mockConnections, alerts *mockAlerts, pusher *mockPusher, now time.Time) *Sweeper {
	s := NewSweeper(f.repo, conns, alerts, pusher, 2*time.Hour, zerolog.Nop())
	s.now = func() time.Time { return now }
	return s
}

func TestSweep_MarksOverdueAndAlerts(t *testing.T) {
	f := newFixture(&medication.Schedule{TimeOfDay: "08:00", Weekdays: []int32{1}})
	now := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	overdue := pendingLog(f, now.Add(-3*time.Hour))
	recent := pendingLog(f, now.Add(-30*time.Minute))

	deviceKey := "pushover-device-key"
	caregiverID := uuid.New()
	conns := &mockConnections{contacts: map[uuid.UUID][]CaregiverContact{
		f.patientID: {{CaregiverID: caregiverID, DeviceKey: &deviceKey}},
	}}
	alerts := &mockAlerts{}
	pusher := &mockPusher{}

	n, err := newTestSweeper(f, conns, alerts, pusher, now).Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row marked missed, got %d", n)
	}
	if f.repo.store[overdue.ID].Status != StatusMissed {
		t.Error("overdue log not marked missed")
	}
	if f.repo.store[recent.ID].Status != StatusPending {
		t.Error("recent pending log must stay pending")
	}
	if len(alerts.created) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts.created))
	}
	a := alerts.created[0]
	if a.caregiverID != caregiverID || a.patientID != f.patientID || a.doseLogID != overdue.ID {
		t.Errorf("alert wired to wrong ids: %+v", a)
	}
	if len(pusher.sent) != 1 {
		t.Errorf("expected 1 push, got %d", len(pusher.sent))
	}
}

func TestSweep_NoDeviceKeySkipsPush(t *testing.T) {
	f := newFixture(&medication.Schedule{TimeOfDay: "08:00", Weekdays: []int32{1}})
	now := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	pendingLog(f, now.Add(-3*time.Hour))

	conns := &mockConnections{contacts: map[uuid.UUID][]CaregiverContact{
		f.patientID: {{CaregiverID: uuid.New()}},
	}}
	alerts := &mockAlerts{}
	pusher := &mockPusher{}

	if _, err := newTestSweeper(f, conns, alerts, pusher, now).Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts.created) != 1 {
		t.Fatalf("expected in-app alert despite missing device key, got %d", len(alerts.created))
	}
	if len(pusher.sent) != 0 {
		t.Errorf("expected no push without a device key, got %d", len(pusher.sent))
	}
}

func TestSweep_TakenLogUntouched(t *testing.T) {
	f := newFixture(&medication.Schedule{TimeOfDay: "08:00", Weekdays: []int32{1}})
	now := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	dl := pendingLog(f, now.Add(-3*time.Hour))
	takenAt := now.Add(-170 * time.Minute)
	f.repo.SetStatus(context.Background(), dl.ID, StatusTaken, &takenAt, nil)

	conns := &mockConnections{contacts: map[uuid.UUID][]CaregiverContact{}}
	alerts := &mockAlerts{}
	pusher := &mockPusher{}

	n, err := newTestSweeper(f, conns, alerts, pusher, now).Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no rows marked, got %d", n)
	}
	if f.repo.store[dl.ID].Status != StatusTaken {
		t.Error("taken log must not be swept")
	}
}

func TestSweep_SecondRunIsNoop(t *testing.T) {
	f := newFixture(&medication.Schedule{TimeOfDay: "08:00", Weekdays: []int32{1}})
	now := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	pendingLog(f, now.Add(-3*time.Hour))

	conns := &mockConnections{contacts: map[uuid.UUID][]CaregiverContact{
		f.patientID: {{CaregiverID: uuid.New()}},
	}}
	alerts := &mockAlerts{}
	pusher := &mockPusher{}
	sw := newTestSweeper(f, conns, alerts, pusher, now)

	if _, err := sw.Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected second sweep to mark nothing, got %d", n)
	}
	if len(alerts.created) != 1 {
		t.Errorf("expected exactly 1 alert across sweeps, got %d", len(alerts.created))
	}
}
