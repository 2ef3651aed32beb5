package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type playerTableModel struct {
	ID              string          `db:"id"`
	GroupID         string          `db:"group_id"`
	Name            string          `db:"name"`
	Level           int             `db:"level"`
	Side            string          `db:"side"`
	HomeLat         sql.NullFloat64 `db:"home_lat"`
	HomeLon         sql.NullFloat64 `db:"home_lon"`
	WorkLat         sql.NullFloat64 `db:"work_lat"`
	WorkLon         sql.NullFloat64 `db:"work_lon"`
	ZoneID          string          `db:"zone_id"`
	AcceptedClubIDs pq.StringArray  `db:"accepted_club_ids"`
}

type clubTableModel struct {
	ID     string `db:"id"`
	ZoneID string `db:"zone_id"`
	Name   string `db:"name"`
}

type availabilityTableModel struct {
	GroupID string    `db:"group_id"`
	UserID  string    `db:"user_id"`
	StartAt time.Time `db:"start_at"`
	EndAt   time.Time `db:"end_at"`
	Status  string    `db:"status"`
}

type timeSlotTableModel struct {
	ID        string    `db:"id"`
	GroupID   string    `db:"group_id"`
	StartAt   time.Time `db:"start_at"`
	EndAt     time.Time `db:"end_at"`
	Seq       int       `db:"seq"`
	CreatedAt time.Time `db:"created_at"`
}

type sessionTableModel struct {
	ID              string         `db:"id"`
	GroupID         string         `db:"group_id"`
	TimeSlotID      string         `db:"time_slot_id"`
	Status          string         `db:"status"`
	CreatorID       string         `db:"creator_id"`
	ClubID          sql.NullString `db:"club_id"`
	CourtReserved   bool           `db:"court_reserved"`
	CourtReservedBy sql.NullString `db:"court_reserved_by"`
	CourtReservedAt *time.Time     `db:"court_reserved_at,omitnull"`
	CreatedAt       time.Time      `db:"created_at"`
}

type rsvpTableModel struct {
	SessionID string    `db:"session_id"`
	UserID    string    `db:"user_id"`
	Status    string    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

func optionalString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
