package alert

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("alert not found")

type Repository interface {
	Create(ctx context.Context, a *Alert) error
	// ListByCaregiver returns the caregiver's alerts, newest first. With
	// unreadOnly set, read alerts are filtered out.
	ListByCaregiver(ctx context.Context, caregiverID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Alert, int, error)
	// MarkRead flips the read flag; scoped to the addressed caregiver.
	MarkRead(ctx context.Context, id, caregiverID uuid.UUID) error
	CountUnread(ctx context.Context, caregiverID uuid.UUID) (int, error)
}
