package postgres

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	qb "github.com/riskibarqy/matchmaker/internal/platform/querybuilder"
)

var errSessionNotFound = crerr.New("session not found")

type SessionRepository struct {
	db *sqlx.DB
}

var sessionSelectColumns = []string{
	"id",
	"group_id",
	"time_slot_id",
	"status",
	"creator_id",
	"club_id",
	"court_reserved",
	"court_reserved_by",
	"court_reserved_at",
	"created_at",
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, item session.Session) (session.Session, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	query, args, err := qb.InsertModel("sessions", sessionToRow(item), "")
	if err != nil {
		return session.Session{}, crerr.Wrap(err, "build insert session query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return session.Session{}, crerr.Wrapf(err, "insert session id=%s", item.ID)
	}
	return item, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (session.Session, bool, error) {
	query, args, err := qb.Select(sessionSelectColumns...).From("sessions").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return session.Session{}, false, crerr.Wrap(err, "build get session query")
	}

	var row sessionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, crerr.Wrapf(err, "get session id=%s", id)
	}
	return sessionFromRow(row), true, nil
}

func (r *SessionRepository) ListByTimeSlots(ctx context.Context, timeSlotIDs []string) ([]session.Session, error) {
	if len(timeSlotIDs) == 0 {
		return []session.Session{}, nil
	}
	query, args, err := qb.Select(sessionSelectColumns...).From("sessions").
		Where(qb.In("time_slot_id", timeSlotIDs)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list sessions by time slots query")
	}

	var rows []sessionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrap(err, "list sessions by time slots")
	}

	out := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, sessionFromRow(row))
	}
	return out, nil
}

func (r *SessionRepository) Update(ctx context.Context, item session.Session) error {
	row := sessionToRow(item)
	query, args, err := qb.Update("sessions").
		Set("status", row.Status).
		Set("club_id", row.ClubID).
		Set("court_reserved", row.CourtReserved).
		Set("court_reserved_by", row.CourtReservedBy).
		Set("court_reserved_at", row.CourtReservedAt).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return crerr.Wrap(err, "build update session query")
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrapf(err, "update session id=%s", item.ID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return crerr.Wrapf(errSessionNotFound, "update session id=%s", item.ID)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query, args, err := qb.DeleteFrom("sessions").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return crerr.Wrap(err, "build delete session query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "delete session id=%s", id)
	}
	return nil
}

func sessionToRow(item session.Session) sessionTableModel {
	var reservedAt *time.Time
	if item.CourtReservedAt != nil {
		at := item.CourtReservedAt.UTC()
		reservedAt = &at
	}
	return sessionTableModel{
		ID:              item.ID,
		GroupID:         item.GroupID,
		TimeSlotID:      item.TimeSlotID,
		Status:          string(item.Status),
		CreatorID:       item.CreatorID,
		ClubID:          optionalString(item.ClubID),
		CourtReserved:   item.CourtReserved,
		CourtReservedBy: optionalString(item.CourtReservedBy),
		CourtReservedAt: reservedAt,
		CreatedAt:       item.CreatedAt.UTC(),
	}
}

func sessionFromRow(row sessionTableModel) session.Session {
	return session.Session{
		ID:              row.ID,
		GroupID:         row.GroupID,
		TimeSlotID:      row.TimeSlotID,
		Status:          session.Status(row.Status),
		CreatorID:       row.CreatorID,
		ClubID:          row.ClubID.String,
		CourtReserved:   row.CourtReserved,
		CourtReservedBy: row.CourtReservedBy.String,
		CourtReservedAt: row.CourtReservedAt,
		CreatedAt:       row.CreatedAt,
	}
}

type RsvpRepository struct {
	db *sqlx.DB
}

const rsvpUpsertSuffix = `ON CONFLICT (session_id, user_id)
DO UPDATE SET
    status = EXCLUDED.status,
    updated_at = EXCLUDED.updated_at`

func NewRsvpRepository(db *sqlx.DB) *RsvpRepository {
	return &RsvpRepository{db: db}
}

func (r *RsvpRepository) ListBySessions(ctx context.Context, sessionIDs []string) ([]rsvp.Rsvp, error) {
	if len(sessionIDs) == 0 {
		return []rsvp.Rsvp{}, nil
	}
	query, args, err := qb.Select("session_id", "user_id", "status", "updated_at").From("rsvps").
		Where(qb.In("session_id", sessionIDs)).
		OrderBy("session_id", "user_id").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list rsvps query")
	}

	var rows []rsvpTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrap(err, "list rsvps by sessions")
	}

	out := make([]rsvp.Rsvp, 0, len(rows))
	for _, row := range rows {
		out = append(out, rsvp.Rsvp{
			SessionID: row.SessionID,
			UserID:    row.UserID,
			Status:    rsvp.Status(row.Status),
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (r *RsvpRepository) Upsert(ctx context.Context, item rsvp.Rsvp) error {
	return upsertRsvp(ctx, r.db, item)
}

func (r *RsvpRepository) Delete(ctx context.Context, sessionID, userID string) error {
	return deleteRsvps(ctx, r.db, qb.Eq("session_id", sessionID), qb.Eq("user_id", userID))
}

func (r *RsvpRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	return deleteRsvps(ctx, r.db, qb.Eq("session_id", sessionID))
}

// Replace swaps the outgoing row for incoming inside one transaction.
func (r *RsvpRepository) Replace(ctx context.Context, sessionID, outgoingID string, incoming rsvp.Rsvp) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return crerr.Wrap(err, "begin replace rsvp transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = deleteRsvps(ctx, tx, qb.Eq("session_id", sessionID), qb.Eq("user_id", outgoingID)); err != nil {
		return err
	}
	incoming.SessionID = sessionID
	if err = upsertRsvp(ctx, tx, incoming); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return crerr.Wrap(err, "commit replace rsvp transaction")
	}
	return nil
}

func upsertRsvp(ctx context.Context, db sqlx.ExecerContext, item rsvp.Rsvp) error {
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now()
	}
	query, args, err := qb.InsertModel("rsvps", rsvpTableModel{
		SessionID: item.SessionID,
		UserID:    item.UserID,
		Status:    string(item.Status),
		UpdatedAt: item.UpdatedAt.UTC(),
	}, rsvpUpsertSuffix)
	if err != nil {
		return crerr.Wrap(err, "build upsert rsvp query")
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "upsert rsvp session=%s user=%s", item.SessionID, item.UserID)
	}
	return nil
}

func deleteRsvps(ctx context.Context, db sqlx.ExecerContext, conditions ...qb.Condition) error {
	query, args, err := qb.DeleteFrom("rsvps").Where(conditions...).ToSQL()
	if err != nil {
		return crerr.Wrap(err, "build delete rsvps query")
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrap(err, "delete rsvps")
	}
	return nil
}
