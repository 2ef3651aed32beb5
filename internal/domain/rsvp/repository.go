package rsvp

import "context"

// Repository persists rsvp rows keyed by (session, user).
type Repository interface {
	ListBySessions(ctx context.Context, sessionIDs []string) ([]Rsvp, error)
	Upsert(ctx context.Context, item Rsvp) error
	Delete(ctx context.Context, sessionID, userID string) error
	// DeleteBySession removes every row of a session.
	DeleteBySession(ctx context.Context, sessionID string) error
	// Replace removes outgoingID's row and upserts incoming in one step.
	Replace(ctx context.Context, sessionID, outgoingID string, incoming Rsvp) error
}
