package medication

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type mockMedicationRepo struct {
	store    map[uuid.UUID]*Medication
	withLogs map[uuid.UUID]bool
}

func newMockMedicationRepo() *mockMedicationRepo {
	return &mockMedicationRepo{store: make(map[uuid.UUID]*Medication), withLogs: make(map[uuid.UUID]bool)}
}
func (m *mockMedicationRepo) Create(_ context.Context, med *Medication) error {
	med.ID = uuid.New(); m.store[med.ID] = med; return nil
}
func (m *mockMedicationRepo) GetByID(_ context.Context, id, patientID uuid.UUID) (*Medication, error) {
	med, ok := m.store[id]; if !ok || med.PatientID != patientID { return nil, ErrNotFound }; return med, nil
}
func (m *mockMedicationRepo) ListByPatient(_ context.Context, pid uuid.UUID, limit, offset int) ([]*Medication, int, error) {
	var r []*Medication; for _, med := range m.store { if med.PatientID == pid { r = append(r, med) } }; return r, len(r), nil
}
func (m *mockMedicationRepo) Update(_ context.Context, med *Medication) error {
	existing, ok := m.store[med.ID]; if !ok || existing.PatientID != med.PatientID { return ErrNotFound }; m.store[med.ID] = med; return nil
}
func (m *mockMedicationRepo) Delete(_ context.Context, id, patientID uuid.UUID) error {
	med, ok := m.store[id]; if !ok || med.PatientID != patientID { return ErrNotFound }; delete(m.store, id); return nil
}
func (m *mockMedicationRepo) HasDoseLogs(_ context.Context, id uuid.UUID) (bool, error) {
	return m.withLogs[id], nil
}
func (m *mockMedicationRepo) ListActiveWithSchedules(_ context.Context, pid uuid.UUID) ([]*MedicationWithSchedules, error) {
	var r []*MedicationWithSchedules
	for _, med := range m.store {
		if med.PatientID == pid && med.Active {
			r = append(r, &MedicationWithSchedules{Medication: *med})
		}
	}
	return r, nil
}

type mockScheduleRepo struct{ store map[uuid.UUID]*Schedule }

func newMockScheduleRepo() *mockScheduleRepo { return &mockScheduleRepo{store: make(map[uuid.UUID]*Schedule)} }
func (m *mockScheduleRepo) Create(_ context.Context, s *Schedule) error {
	s.ID = uuid.New(); m.store[s.ID] = s; return nil
}
func (m *mockScheduleRepo) GetByID(_ context.Context, id uuid.UUID) (*Schedule, error) {
	s, ok := m.store[id]; if !ok { return nil, ErrNotFound }; return s, nil
}
func (m *mockScheduleRepo) ListByMedication(_ context.Context, medID uuid.UUID) ([]*Schedule, error) {
	var r []*Schedule; for _, s := range m.store { if s.MedicationID == medID { r = append(r, s) } }; return r, nil
}
func (m *mockScheduleRepo) Update(_ context.Context, s *Schedule) error {
	if _, ok := m.store[s.ID]; !ok { return ErrNotFound }; m.store[s.ID] = s; return nil
}
func (m *mockScheduleRepo) Delete(_ context.Context, id uuid.UUID) error { delete(m.store, id); return nil }

func newTestService() (*Service, *mockMedicationRepo, *mockScheduleRepo) {
	meds := newMockMedicationRepo()
	scheds := newMockScheduleRepo()
	return NewService(meds, scheds), meds, scheds
}

func TestCreateMedication_Success(t *testing.T) {
	svc, _, _ := newTestService()
	m := &Medication{PatientID: uuid.New(), Name: "Aspirin", Dosage: "81mg"}
	if err := svc.CreateMedication(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Active {
		t.Error("new medication should be active")
	}
}

func TestCreateMedication_MissingFields(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.CreateMedication(context.Background(), &Medication{Name: "Aspirin", Dosage: "81mg"}); err == nil {
		t.Fatal("expected error for missing patient_id")
	}
	if err := svc.CreateMedication(context.Background(), &Medication{PatientID: uuid.New(), Dosage: "81mg"}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if err := svc.CreateMedication(context.Background(), &Medication{PatientID: uuid.New(), Name: "Aspirin"}); err == nil {
		t.Fatal("expected error for missing dosage")
	}
}

func TestGetMedication_WrongPatient(t *testing.T) {
	svc, _, _ := newTestService()
	m := &Medication{PatientID: uuid.New(), Name: "Aspirin", Dosage: "81mg"}
	svc.CreateMedication(context.Background(), m)
	if _, err := svc.GetMedication(context.Background(), m.ID, uuid.New()); err == nil {
		t.Fatal("expected not found for another patient's medication")
	}
}

func TestDeleteMedication_HardDeleteWithoutLogs(t *testing.T) {
	svc, meds, _ := newTestService()
	m := &Medication{PatientID: uuid.New(), Name: "Aspirin", Dosage: "81mg"}
	svc.CreateMedication(context.Background(), m)
	if err := svc.DeleteMedication(context.Background(), m.ID, m.PatientID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := meds.store[m.ID]; ok {
		t.Error("expected row to be removed")
	}
}

func TestDeleteMedication_SoftDisableWithLogs(t *testing.T) {
	svc, meds, _ := newTestService()
	m := &Medication{PatientID: uuid.New(), Name: "Aspirin", Dosage: "81mg"}
	svc.CreateMedication(context.Background(), m)
	meds.withLogs[m.ID] = true

	if err := svc.DeleteMedication(context.Background(), m.ID, m.PatientID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kept, ok := meds.store[m.ID]
	if !ok {
		t.Fatal("medication with logs must not be hard-deleted")
	}
	if kept.Active {
		t.Error("expected medication to be deactivated")
	}
}

func TestCreateSchedule_Success(t *testing.T) {
	svc, _, _ := newTestService()
	m := &Medication{PatientID: uuid.New(), Name: "Aspirin", Dosage: "81mg"}
	svc.CreateMedication(context.Background(), m)

	sch := &Schedule{MedicationID: m.ID, TimeOfDay: "08:00", Weekdays: []int32{1, 2, 3, 4, 5}}
	if err := svc.CreateSchedule(context.Background(), m.PatientID, sch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sch.Active {
		t.Error("new schedule should be active")
	}
}

func TestCreateSchedule_NotOwner(t *testing.T) {
	svc, _, _ := newTestService()
	m := &Medication{PatientID: uuid.New(), Name: "Aspirin", Dosage: "81mg"}
	svc.CreateMedication(context.Background(), m)

	sch := &Schedule{MedicationID: m.ID, TimeOfDay: "08:00", Weekdays: []int32{1}}
	if err := svc.CreateSchedule(context.Background(), uuid.New(), sch); err != ErrNotOwner {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestCreateSchedule_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	m := &Medication{PatientID: uuid.New(), Name: "Aspirin", Dosage: "81mg"}
	svc.CreateMedication(context.Background(), m)

	bad := []*Schedule{
		{MedicationID: m.ID, TimeOfDay: "24:00", Weekdays: []int32{1}},
		{MedicationID: m.ID, TimeOfDay: "nope", Weekdays: []int32{1}},
		{MedicationID: m.ID, TimeOfDay: "08:00", Weekdays: []int32{7}},
		{MedicationID: m.ID, TimeOfDay: "08:00", Weekdays: []int32{-1}},
		{MedicationID: m.ID, TimeOfDay: "08:00", Weekdays: []int32{1, 1}},
	}
	for i, sch := range bad {
		if err := svc.CreateSchedule(context.Background(), m.PatientID, sch); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCreateSchedule_EmptyWeekdaysAllowed(t *testing.T) {
	svc, _, _ := newTestService()
	m := &Medication{PatientID: uuid.New(), Name: "Aspirin", Dosage: "81mg"}
	svc.CreateMedication(context.Background(), m)

	// Structurally allowed; yields zero occurrences at materialization.
	sch := &Schedule{MedicationID: m.ID, TimeOfDay: "08:00"}
	if err := svc.CreateSchedule(context.Background(), m.PatientID, sch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateSchedule_NotOwner(t *testing.T) {
	svc, _, _ := newTestService()
	m := &Medication{PatientID: uuid.New(), Name: "Aspirin", Dosage: "81mg"}
	svc.CreateMedication(context.Background(), m)
	sch := &Schedule{MedicationID: m.ID, TimeOfDay: "08:00", Weekdays: []int32{1}}
	svc.CreateSchedule(context.Background(), m.PatientID, sch)

	upd := &Schedule{ID: sch.ID, TimeOfDay: "09:00", Weekdays: []int32{2}}
	if err := svc.UpdateSchedule(context.Background(), uuid.New(), upd); err != ErrNotOwner {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestDeleteSchedule(t *testing.T) {
	svc, _, scheds := newTestService()
	m := &Medication{PatientID: uuid.New(), Name: "Aspirin", Dosage: "81mg"}
	svc.CreateMedication(context.Background(), m)
	sch := &Schedule{MedicationID: m.ID, TimeOfDay: "08:00", Weekdays: []int32{1}}
	svc.CreateSchedule(context.Background(), m.PatientID, sch)

	if err := svc.DeleteSchedule(context.Background(), m.PatientID, sch.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := scheds.store[sch.ID]; ok {
		t.Error("expected schedule removed")
	}
}
