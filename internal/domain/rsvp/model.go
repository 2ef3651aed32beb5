package rsvp

import "time"

type Status string

const (
	// StatusUnset marks the absence of a row.
	StatusUnset    Status = ""
	StatusMaybe    Status = "maybe"
	StatusAccepted Status = "accepted"
	StatusNo       Status = "no"
)

// Committed reports whether the status blocks the player from overlapping sessions.
func (s Status) Committed() bool {
	return s == StatusAccepted || s == StatusMaybe
}

// Rsvp is one player's participation decision on a session.
type Rsvp struct {
	SessionID string
	UserID    string
	Status    Status
	UpdatedAt time.Time
}
