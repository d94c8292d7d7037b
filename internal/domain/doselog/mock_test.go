package doselog

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/medtrack/adherence/internal/domain/medication"
)

// mockRepo keeps dose logs in memory and enforces the same minute-window
// uniqueness and pending-only transition rules as the real table.
type mockRepo struct {
	store         map[uuid.UUID]*DoseLog
	scheduleOwner map[uuid.UUID]uuid.UUID // schedule id -> patient id
	medName       map[uuid.UUID]string    // schedule id -> medication name
	creates       int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		store:         make(map[uuid.UUID]*DoseLog),
		scheduleOwner: make(map[uuid.UUID]uuid.UUID),
		medName:       make(map[uuid.UUID]string),
	}
}

func (m *mockRepo) Create(_ context.Context, scheduleID uuid.UUID, t time.Time) (*DoseLog, error) {
	start := t.Truncate(time.Minute)
	for _, dl := range m.store {
		if dl.ScheduleID == scheduleID && !dl.ScheduledTime.Before(start) && dl.ScheduledTime.Before(start.Add(time.Minute)) {
			return dl, nil
		}
	}
	m.creates++
	dl := &DoseLog{ID: uuid.New(), ScheduleID: scheduleID, ScheduledTime: t, Status: StatusPending, CreatedAt: t, UpdatedAt: t}
	m.store[dl.ID] = dl
	return dl, nil
}

func (m *mockRepo) FindInWindow(_ context.Context, scheduleID uuid.UUID, start, end time.Time) (*DoseLog, error) {
	for _, dl := range m.store {
		if dl.ScheduleID == scheduleID && !dl.ScheduledTime.Before(start) && dl.ScheduledTime.Before(end) {
			return dl, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) GetForPatient(_ context.Context, id, patientID uuid.UUID) (*DoseLog, error) {
	dl, ok := m.store[id]
	if !ok || m.scheduleOwner[dl.ScheduleID] != patientID {
		return nil, ErrNotFound
	}
	return dl, nil
}

func (m *mockRepo) SetStatus(_ context.Context, id uuid.UUID, status Status, takenAt *time.Time, notes *string) error {
	dl, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if dl.Status != StatusPending {
		return ErrTerminalStatus
	}
	dl.Status = status
	dl.TakenAt = takenAt
	if notes != nil {
		dl.Notes = notes
	}
	return nil
}

func (m *mockRepo) ListForPatientBetween(_ context.Context, patientID uuid.UUID, start, end time.Time) ([]*DoseLog, error) {
	var r []*DoseLog
	for _, dl := range m.store {
		if m.scheduleOwner[dl.ScheduleID] == patientID && !dl.ScheduledTime.Before(start) && dl.ScheduledTime.Before(end) {
			r = append(r, dl)
		}
	}
	sort.Slice(r, func(i, j int) bool { return r[i].ScheduledTime.Before(r[j].ScheduledTime) })
	return r, nil
}

func (m *mockRepo) ListOverduePending(_ context.Context, cutoff time.Time, limit int) ([]*OverdueDose, error) {
	var r []*OverdueDose
	for _, dl := range m.store {
		if dl.Status == StatusPending && dl.ScheduledTime.Before(cutoff) {
			r = append(r, &OverdueDose{
				DoseLog:        *dl,
				PatientID:      m.scheduleOwner[dl.ScheduleID],
				MedicationName: m.medName[dl.ScheduleID],
			})
		}
	}
	sort.Slice(r, func(i, j int) bool { return r[i].ScheduledTime.Before(r[j].ScheduledTime) })
	if limit > 0 && len(r) > limit {
		r = r[:limit]
	}
	return r, nil
}

func (m *mockRepo) MarkMissed(_ context.Context, id uuid.UUID) (bool, error) {
	dl, ok := m.store[id]
	if !ok || dl.Status != StatusPending {
		return false, nil
	}
	dl.Status = StatusMissed
	return true, nil
}

type mockMedSource struct {
	byPatient map[uuid.UUID][]*medication.MedicationWithSchedules
}

func (m *mockMedSource) ListActiveWithSchedules(_ context.Context, patientID uuid.UUID) ([]*medication.MedicationWithSchedules, error) {
	return m.byPatient[patientID], nil
}

// fixture builds one patient with a single medication and the given schedule
// slots, wired into both mocks.
type fixture struct {
	patientID uuid.UUID
	repo      *mockRepo
	meds      *mockMedSource
	schedules []*medication.Schedule
}

func newFixture(slots ...*medication.Schedule) *fixture {
	f := &fixture{
		patientID: uuid.New(),
		repo:      newMockRepo(),
		meds:      &mockMedSource{byPatient: make(map[uuid.UUID][]*medication.MedicationWithSchedules)},
		schedules: slots,
	}
	med := medication.Medication{ID: uuid.New(), PatientID: f.patientID, Name: "Lisinopril", Dosage: "10mg", Active: true}
	for _, s := range slots {
		s.ID = uuid.New()
		s.MedicationID = med.ID
		s.Active = true
		f.repo.scheduleOwner[s.ID] = f.patientID
		f.repo.medName[s.ID] = med.Name
	}
	f.meds.byPatient[f.patientID] = []*medication.MedicationWithSchedules{{Medication: med, Schedules: slots}}
	return f
}
