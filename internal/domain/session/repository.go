package session

import "context"

// Repository persists sessions.
type Repository interface {
	Create(ctx context.Context, item Session) (Session, error)
	GetByID(ctx context.Context, id string) (Session, bool, error)
	ListByTimeSlots(ctx context.Context, timeSlotIDs []string) ([]Session, error)
	Update(ctx context.Context, item Session) error
	Delete(ctx context.Context, id string) error
}
