package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

var evening = time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

func TestTimeSlotRepository_UniqueOnGroupStartSeq(t *testing.T) {
	ctx := context.Background()
	repo := NewTimeSlotRepository()

	first := timeslot.TimeSlot{ID: "ts-1", GroupID: "g", Start: evening, End: evening.Add(time.Hour)}
	if _, err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create first slot: %v", err)
	}

	dup := first
	dup.ID = "ts-2"
	if _, err := repo.Create(ctx, dup); !errors.Is(err, timeslot.ErrDuplicateStart) {
		t.Fatalf("expected ErrDuplicateStart, got %v", err)
	}

	dup.Seq = 1
	if _, err := repo.Create(ctx, dup); err != nil {
		t.Fatalf("sibling slot should be accepted: %v", err)
	}

	other := first
	other.ID = "ts-3"
	other.GroupID = "h"
	if _, err := repo.Create(ctx, other); err != nil {
		t.Fatalf("same start in another group should be accepted: %v", err)
	}
}

func TestTimeSlotRepository_FindByStartClosestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewTimeSlotRepository()
	for _, s := range []timeslot.TimeSlot{
		{ID: "far", GroupID: "g", Start: evening.Add(4 * time.Minute), End: evening.Add(time.Hour)},
		{ID: "near", GroupID: "g", Start: evening.Add(-2 * time.Minute), End: evening.Add(time.Hour)},
		{ID: "out", GroupID: "g", Start: evening.Add(10 * time.Minute), End: evening.Add(time.Hour)},
	} {
		if _, err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create %s: %v", s.ID, err)
		}
	}

	got, err := repo.FindByStart(ctx, "g", evening, 5*time.Minute)
	if err != nil {
		t.Fatalf("find by start: %v", err)
	}
	if len(got) != 2 || got[0].ID != "near" || got[1].ID != "far" {
		t.Fatalf("unexpected order: %+v", got)
	}

	exact, _ := repo.FindByStart(ctx, "g", evening, 0)
	if len(exact) != 0 {
		t.Fatalf("expected no exact match, got %d", len(exact))
	}

	listed, _ := repo.ListByGroup(ctx, "g", timerange.Range{Start: evening, End: evening.Add(30 * time.Minute)})
	if len(listed) != 3 {
		t.Fatalf("expected all overlapping slots, got %d", len(listed))
	}
}

func TestRsvpRepository_ReplaceLeavesOtherRows(t *testing.T) {
	ctx := context.Background()
	repo := NewRsvpRepository()
	for _, id := range []string{"a", "b", "c", "d"} {
		_ = repo.Upsert(ctx, rsvp.Rsvp{SessionID: "s", UserID: id, Status: rsvp.StatusAccepted})
	}

	if err := repo.Replace(ctx, "s", "d", rsvp.Rsvp{UserID: "e", Status: rsvp.StatusAccepted}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	rows, _ := repo.ListBySessions(ctx, []string{"s"})
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[3].UserID != "e" || rows[3].SessionID != "s" {
		t.Fatalf("unexpected incoming row: %+v", rows[3])
	}

	if err := repo.Replace(ctx, "s", "zz", rsvp.Rsvp{UserID: "f"}); err == nil {
		t.Fatalf("replacing a missing row should fail")
	}
}
