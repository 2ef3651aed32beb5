package changefeed

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"github.com/riskibarqy/matchmaker/internal/domain/changefeed"
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
)

const DefaultSubjectPrefix = "matchmaker.changes"

// Handler consumes decoded row changes.
type Handler interface {
	HandleSessionEvent(ev changefeed.SessionEvent)
	HandleRsvpEvent(ev changefeed.RsvpEvent)
}

type sessionMessage struct {
	Op      string        `json:"op"`
	Session sessionRecord `json:"record"`
}

type sessionRecord struct {
	ID              string     `json:"id"`
	GroupID         string     `json:"group_id"`
	TimeSlotID      string     `json:"time_slot_id"`
	Status          string     `json:"status"`
	CreatorID       string     `json:"creator_id"`
	ClubID          string     `json:"club_id"`
	CourtReserved   bool       `json:"court_reserved"`
	CourtReservedBy string     `json:"court_reserved_by"`
	CourtReservedAt *time.Time `json:"court_reserved_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

type rsvpMessage struct {
	Op   string     `json:"op"`
	Rsvp rsvpRecord `json:"record"`
}

type rsvpRecord struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionSubject is filtered by group on the publishing side.
func SessionSubject(prefix, groupID string) string {
	return subjectPrefix(prefix) + ".session." + groupID
}

// RsvpSubject carries every rsvp change; consumers filter by session.
func RsvpSubject(prefix string) string {
	return subjectPrefix(prefix) + ".rsvp"
}

func subjectPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return DefaultSubjectPrefix
	}
	return prefix
}

func parseOp(raw string) (changefeed.Op, error) {
	switch op := changefeed.Op(strings.ToLower(strings.TrimSpace(raw))); op {
	case changefeed.OpInsert, changefeed.OpUpdate, changefeed.OpDelete:
		return op, nil
	default:
		return "", crerr.Newf("unknown change op %q", raw)
	}
}

func DecodeSessionEvent(data []byte) (changefeed.SessionEvent, error) {
	var msg sessionMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return changefeed.SessionEvent{}, crerr.Wrap(err, "decode session change")
	}
	op, err := parseOp(msg.Op)
	if err != nil {
		return changefeed.SessionEvent{}, err
	}
	if msg.Session.ID == "" {
		return changefeed.SessionEvent{}, crerr.New("session change without id")
	}
	rec := msg.Session
	return changefeed.SessionEvent{
		Op: op,
		Session: session.Session{
			ID:              rec.ID,
			GroupID:         rec.GroupID,
			TimeSlotID:      rec.TimeSlotID,
			Status:          session.Status(rec.Status),
			CreatorID:       rec.CreatorID,
			ClubID:          rec.ClubID,
			CourtReserved:   rec.CourtReserved,
			CourtReservedBy: rec.CourtReservedBy,
			CourtReservedAt: rec.CourtReservedAt,
			CreatedAt:       rec.CreatedAt,
		},
	}, nil
}

func DecodeRsvpEvent(data []byte) (changefeed.RsvpEvent, error) {
	var msg rsvpMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return changefeed.RsvpEvent{}, crerr.Wrap(err, "decode rsvp change")
	}
	op, err := parseOp(msg.Op)
	if err != nil {
		return changefeed.RsvpEvent{}, err
	}
	if msg.Rsvp.SessionID == "" || msg.Rsvp.UserID == "" {
		return changefeed.RsvpEvent{}, crerr.New("rsvp change without session_id or user_id")
	}
	return changefeed.RsvpEvent{
		Op: op,
		Rsvp: rsvp.Rsvp{
			SessionID: msg.Rsvp.SessionID,
			UserID:    msg.Rsvp.UserID,
			Status:    rsvp.Status(msg.Rsvp.Status),
			UpdatedAt: msg.Rsvp.UpdatedAt,
		},
	}, nil
}

// Subscriber feeds NATS change events into a Handler.
type Subscriber struct {
	conn   *nats.Conn
	prefix string
	logger *logging.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewSubscriber(conn *nats.Conn, prefix string, logger *logging.Logger) *Subscriber {
	if logger == nil {
		logger = logging.Default()
	}
	return &Subscriber{conn: conn, prefix: subjectPrefix(prefix), logger: logger}
}

// Subscribe listens to the group's session subject and the shared rsvp subject.
// The returned func drops both subscriptions again.
func (s *Subscriber) Subscribe(groupID string, handler Handler) (func(), error) {
	if s.conn == nil {
		return nil, crerr.New("nats connection is required")
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, crerr.New("group id is required")
	}

	sessionSub, err := s.conn.Subscribe(SessionSubject(s.prefix, groupID), s.sessionHandler(handler))
	if err != nil {
		return nil, crerr.Wrapf(err, "subscribe session changes group=%s", groupID)
	}
	rsvpSub, err := s.conn.Subscribe(RsvpSubject(s.prefix), s.rsvpHandler(handler))
	if err != nil {
		_ = sessionSub.Unsubscribe()
		return nil, crerr.Wrap(err, "subscribe rsvp changes")
	}

	s.mu.Lock()
	s.subs = append(s.subs, sessionSub, rsvpSub)
	s.mu.Unlock()

	s.logger.Info("change feed subscribed",
		"session_subject", sessionSub.Subject,
		"rsvp_subject", rsvpSub.Subject,
	)
	return func() { s.unsubscribe(sessionSub, rsvpSub) }, nil
}

func (s *Subscriber) unsubscribe(subs ...*nats.Subscription) {
	s.mu.Lock()
	kept := s.subs[:0]
	for _, sub := range s.subs {
		if !slices.Contains(subs, sub) {
			kept = append(kept, sub)
		}
	}
	s.subs = kept
	s.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil && !crerr.Is(err, nats.ErrConnectionClosed) && !crerr.Is(err, nats.ErrBadSubscription) {
			s.logger.Warn("unsubscribe change feed failed", "subject", sub.Subject, "error", err)
		}
	}
}

func (s *Subscriber) sessionHandler(handler Handler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ev, err := DecodeSessionEvent(msg.Data)
		if err != nil {
			s.logger.Warn("drop session change", "subject", msg.Subject, "error", err)
			return
		}
		handler.HandleSessionEvent(ev)
	}
}

func (s *Subscriber) rsvpHandler(handler Handler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ev, err := DecodeRsvpEvent(msg.Data)
		if err != nil {
			s.logger.Warn("drop rsvp change", "subject", msg.Subject, "error", err)
			return
		}
		handler.HandleRsvpEvent(ev)
	}
}

// Close unsubscribes everything; the connection itself belongs to the caller.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	var errs error
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil && !crerr.Is(err, nats.ErrConnectionClosed) {
			errs = crerr.CombineErrors(errs, err)
		}
	}
	return errs
}
