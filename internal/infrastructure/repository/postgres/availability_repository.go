package postgres

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	qb "github.com/riskibarqy/matchmaker/internal/platform/querybuilder"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// AvailabilityRepository reads the effective_availability view, which already merges
// recurring templates with one-off overrides.
type AvailabilityRepository struct {
	db *sqlx.DB
}

func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) ListEffective(ctx context.Context, groupID, userID string, window timerange.Range) ([]availability.Interval, error) {
	conditions := []qb.Condition{
		qb.Eq("group_id", groupID),
		qb.Overlaps("start_at", "end_at", window.Start, window.End),
	}
	if userID != "" {
		conditions = append(conditions, qb.Eq("user_id", userID))
	}

	query, args, err := qb.Select("group_id", "user_id", "start_at", "end_at", "status").
		From("effective_availability").
		Where(conditions...).
		OrderBy("user_id", "start_at").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build select availability query")
	}

	var rows []availabilityTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "select availability group=%s", groupID)
	}

	out := make([]availability.Interval, 0, len(rows))
	for _, row := range rows {
		out = append(out, availability.Interval{
			GroupID: row.GroupID,
			UserID:  row.UserID,
			Start:   row.StartAt,
			End:     row.EndAt,
			Status:  availability.Status(row.Status),
		})
	}
	return out, nil
}
