package session

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Session is a scheduled match bound to one time slot.
type Session struct {
	ID              string
	GroupID         string
	TimeSlotID      string
	Status          Status
	CreatorID       string
	ClubID          string
	CourtReserved   bool
	CourtReservedBy string
	CourtReservedAt *time.Time
	CreatedAt       time.Time
}
