package postgres

import (
	"context"
	"sort"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	qb "github.com/riskibarqy/matchmaker/internal/platform/querybuilder"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

type TimeSlotRepository struct {
	db *sqlx.DB
}

var timeSlotSelectColumns = []string{"id", "group_id", "start_at", "end_at", "seq", "created_at"}

func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// Create relies on the unique index over (group_id, start_at, seq).
func (r *TimeSlotRepository) Create(ctx context.Context, slot timeslot.TimeSlot) (timeslot.TimeSlot, error) {
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now()
	}
	query, args, err := qb.InsertModel("time_slots", timeSlotTableModel{
		ID:        slot.ID,
		GroupID:   slot.GroupID,
		StartAt:   slot.Start.UTC(),
		EndAt:     slot.End.UTC(),
		Seq:       slot.Seq,
		CreatedAt: slot.CreatedAt.UTC(),
	}, "")
	if err != nil {
		return timeslot.TimeSlot{}, crerr.Wrap(err, "build insert time slot query")
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return timeslot.TimeSlot{}, crerr.Wrapf(timeslot.ErrDuplicateStart,
				"insert time slot group=%s start=%s seq=%d", slot.GroupID, slot.Start.UTC().Format(time.RFC3339), slot.Seq)
		}
		return timeslot.TimeSlot{}, crerr.Wrapf(err, "insert time slot id=%s", slot.ID)
	}
	return slot, nil
}

func (r *TimeSlotRepository) GetByID(ctx context.Context, id string) (timeslot.TimeSlot, bool, error) {
	query, args, err := qb.Select(timeSlotSelectColumns...).From("time_slots").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return timeslot.TimeSlot{}, false, crerr.Wrap(err, "build get time slot query")
	}

	var row timeSlotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return timeslot.TimeSlot{}, false, nil
		}
		return timeslot.TimeSlot{}, false, crerr.Wrapf(err, "get time slot id=%s", id)
	}
	return timeSlotFromRow(row), true, nil
}

func (r *TimeSlotRepository) FindByStart(ctx context.Context, groupID string, start time.Time, fuzz time.Duration) ([]timeslot.TimeSlot, error) {
	if fuzz < 0 {
		fuzz = -fuzz
	}
	query, args, err := qb.Select(timeSlotSelectColumns...).From("time_slots").
		Where(
			qb.Eq("group_id", groupID),
			qb.Between("start_at", start.Add(-fuzz).UTC(), start.Add(fuzz).UTC()),
		).
		OrderBy("start_at", "seq").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build find time slots by start query")
	}

	var rows []timeSlotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "find time slots group=%s", groupID)
	}

	out := timeSlotsFromRows(rows)
	sort.SliceStable(out, func(i, j int) bool {
		return absDuration(out[i].Start.Sub(start)) < absDuration(out[j].Start.Sub(start))
	})
	return out, nil
}

func (r *TimeSlotRepository) ListByGroup(ctx context.Context, groupID string, window timerange.Range) ([]timeslot.TimeSlot, error) {
	query, args, err := qb.Select(timeSlotSelectColumns...).From("time_slots").
		Where(
			qb.Eq("group_id", groupID),
			qb.Overlaps("start_at", "end_at", window.Start, window.End),
		).
		OrderBy("start_at", "seq").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list time slots query")
	}

	var rows []timeSlotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "list time slots group=%s", groupID)
	}
	return timeSlotsFromRows(rows), nil
}

func timeSlotFromRow(row timeSlotTableModel) timeslot.TimeSlot {
	return timeslot.TimeSlot{
		ID:        row.ID,
		GroupID:   row.GroupID,
		Start:     row.StartAt,
		End:       row.EndAt,
		Seq:       row.Seq,
		CreatedAt: row.CreatedAt,
	}
}

func timeSlotsFromRows(rows []timeSlotTableModel) []timeslot.TimeSlot {
	out := make([]timeslot.TimeSlot, 0, len(rows))
	for _, row := range rows {
		out = append(out, timeSlotFromRow(row))
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
