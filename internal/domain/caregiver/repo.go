package caregiver

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("connection not found")
	// ErrDuplicate is returned when a patient already has a connection with
	// the caregiver, active or not.
	ErrDuplicate = errors.New("connection already exists")
)

type Repository interface {
	Create(ctx context.Context, c *Connection) error
	GetByID(ctx context.Context, id uuid.UUID) (*Connection, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Connection, error)
	ListByCaregiver(ctx context.Context, caregiverID uuid.UUID) ([]*Connection, error)
	Update(ctx context.Context, c *Connection) error
	Delete(ctx context.Context, id, patientID uuid.UUID) error

	// ActiveExists reports whether an active connection links the pair.
	ActiveExists(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error)

	// ListNotifiable returns the patient's active connections with
	// notifications enabled.
	ListNotifiable(ctx context.Context, patientID uuid.UUID) ([]*Connection, error)
}
