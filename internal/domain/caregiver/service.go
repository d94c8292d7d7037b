package caregiver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotParticipant is returned when the caller is on neither side of the
// connection they are trying to change.
var ErrNotParticipant = errors.New("caller is not part of this connection")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Connect creates an active connection from the patient to a caregiver, with
// notifications on by default.
func (s *Service) Connect(ctx context.Context, patientID, caregiverID uuid.UUID, relationship *string) (*Connection, error) {
	if caregiverID == uuid.Nil {
		return nil, fmt.Errorf("caregiver_id is required")
	}
	if caregiverID == patientID {
		return nil, fmt.Errorf("cannot connect to yourself")
	}
	c := &Connection{PatientID: patientID, CaregiverID: caregiverID, Relationship: relationship, Active: true, Notify: true}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Connection, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListForCaregiver(ctx context.Context, caregiverID uuid.UUID) ([]*Connection, error) {
	return s.repo.ListByCaregiver(ctx, caregiverID)
}

// Disconnect removes a connection; only the owning patient may do so.
func (s *Service) Disconnect(ctx context.Context, patientID, connectionID uuid.UUID) error {
	return s.repo.Delete(ctx, connectionID, patientID)
}

// UpdateParams are the mutable connection fields. Nil means leave unchanged.
// Which fields apply depends on the caller's side: the patient owns the
// relationship label and the notify toggle, the caregiver owns their device
// key and may also mute their own notifications.
type UpdateParams struct {
	Notify       *bool   `json:"notify"`
	Relationship *string `json:"relationship"`
	DeviceKey    *string `json:"device_key"`
}

// Update applies the caller's side of the connection. Callers on neither side
// get ErrNotParticipant.
func (s *Service) Update(ctx context.Context, callerID, connectionID uuid.UUID, p UpdateParams) (*Connection, error) {
	c, err := s.repo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	switch callerID {
	case c.PatientID:
		if p.Relationship != nil {
			c.Relationship = p.Relationship
		}
		if p.Notify != nil {
			c.Notify = *p.Notify
		}
	case c.CaregiverID:
		if p.DeviceKey != nil {
			c.DeviceKey = p.DeviceKey
		}
		if p.Notify != nil {
			c.Notify = *p.Notify
		}
	default:
		return nil, ErrNotParticipant
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CanView reports whether an active connection lets the caregiver read the
// patient's data. Implements the access check the other domains consume.
func (s *Service) CanView(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error) {
	return s.repo.ActiveExists(ctx, caregiverID, patientID)
}

// ListNotifiable feeds the missed-dose sweeper.
func (s *Service) ListNotifiable(ctx context.Context, patientID uuid.UUID) ([]*Connection, error) {
	return s.repo.ListNotifiable(ctx, patientID)
}
