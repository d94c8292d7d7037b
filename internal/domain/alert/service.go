package alert

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateMissedDoseAlert records an in-app alert for a caregiver about a
// missed dose. Called by the sweeper through its sink interface.
func (s *Service) CreateMissedDoseAlert(ctx context.Context, caregiverID, patientID, doseLogID uuid.UUID, message string) error {
	if message == "" {
		return fmt.Errorf("message is required")
	}
	a := &Alert{
		CaregiverID: caregiverID,
		PatientID:   patientID,
		DoseLogID:   &doseLogID,
		Kind:        KindMissedDose,
		Message:     message,
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) List(ctx context.Context, caregiverID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Alert, int, error) {
	return s.repo.ListByCaregiver(ctx, caregiverID, unreadOnly, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, caregiverID, alertID uuid.UUID) error {
	return s.repo.MarkRead(ctx, alertID, caregiverID)
}

func (s *Service) UnreadCount(ctx context.Context, caregiverID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, caregiverID)
}
