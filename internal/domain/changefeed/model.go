package changefeed

import (
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// SessionEvent is one row change on sessions, already filtered by group.
type SessionEvent struct {
	Op      Op
	Session session.Session
}

// RsvpEvent is one row change on rsvps. The feed is unfiltered; consumers filter by session.
type RsvpEvent struct {
	Op   Op
	Rsvp rsvp.Rsvp
}
