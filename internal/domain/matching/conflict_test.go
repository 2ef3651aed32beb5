package matching

import (
	"testing"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

func TestConflictResolver_PendingRequiresContainmentOrSharedEdge(t *testing.T) {
	pending := booking("s-pending", session.StatusPending, window(18, 0, 19, 30), map[string]rsvp.Status{
		"a": rsvp.StatusAccepted,
	})
	resolver := NewConflictResolver([]Booking{pending}, time.UTC)

	tests := []struct {
		name    string
		window  timerange.Range
		blocked bool
	}{
		{name: "contained", window: window(18, 30, 19, 30), blocked: true},
		{name: "same start", window: window(18, 0, 19, 0), blocked: true},
		{name: "same end wider", window: window(17, 30, 19, 30), blocked: true},
		{name: "same start wider", window: window(18, 0, 20, 0), blocked: true},
		{name: "partial overlap", window: window(19, 0, 20, 0), blocked: false},
		{name: "partial overlap before", window: window(17, 30, 18, 30), blocked: false},
		{name: "disjoint", window: window(20, 0, 21, 0), blocked: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, blocked := resolver.Conflicting("a", tc.window, "")
			if blocked != tc.blocked {
				t.Fatalf("blocked=%v want %v", blocked, tc.blocked)
			}
		})
	}
}

func TestConflictResolver_ConfirmedBlocksAnySameDayOverlap(t *testing.T) {
	confirmed := booking("s-confirmed", session.StatusConfirmed, window(18, 0, 19, 0), map[string]rsvp.Status{
		"a": rsvp.StatusAccepted,
		"b": rsvp.StatusMaybe,
		"c": rsvp.StatusNo,
	})
	resolver := NewConflictResolver([]Booking{confirmed}, time.UTC)

	got := resolver.Exclude(NewPlayerSet("a", "b", "c", "d"), window(18, 30, 19, 30))
	if got.Has("a") || got.Has("b") {
		t.Fatalf("accepted and maybe players should be excluded: %v", got.Sorted())
	}
	if !got.Has("c") || !got.Has("d") {
		t.Fatalf("declined and unrelated players should stay: %v", got.Sorted())
	}

	touching := resolver.Exclude(NewPlayerSet("a"), window(19, 0, 20, 0))
	if !touching.Has("a") {
		t.Fatalf("back-to-back windows do not overlap")
	}

	nextDay := timerange.Range{Start: at(18, 30).Add(24 * time.Hour), End: at(19, 30).Add(24 * time.Hour)}
	if _, blocked := resolver.Conflicting("a", nextDay, ""); blocked {
		t.Fatalf("other day should not conflict")
	}
}

func TestConflictResolver_Idempotent(t *testing.T) {
	resolver := NewConflictResolver([]Booking{
		booking("s1", session.StatusConfirmed, window(18, 0, 19, 0), map[string]rsvp.Status{"a": rsvp.StatusAccepted}),
		booking("s2", session.StatusPending, window(18, 0, 19, 30), map[string]rsvp.Status{"b": rsvp.StatusMaybe}),
	}, time.UTC)

	set := NewPlayerSet("a", "b", "c", "d")
	w := window(18, 0, 19, 0)
	once := resolver.Exclude(set, w)
	twice := resolver.Exclude(once, w)

	if once.Len() != twice.Len() {
		t.Fatalf("exclude is not idempotent: %v vs %v", once.Sorted(), twice.Sorted())
	}
	for id := range once {
		if !twice.Has(id) {
			t.Fatalf("exclude is not idempotent: %v vs %v", once.Sorted(), twice.Sorted())
		}
	}
	if set.Len() != 4 {
		t.Fatalf("input set must not be modified")
	}
}

func TestConflictResolver_IgnoresOwnSession(t *testing.T) {
	resolver := NewConflictResolver([]Booking{
		booking("s1", session.StatusConfirmed, window(18, 0, 19, 0), map[string]rsvp.Status{"a": rsvp.StatusAccepted}),
	}, time.UTC)

	got := resolver.ExcludeIgnoring(NewPlayerSet("a"), window(18, 0, 19, 0), "s1")
	if !got.Has("a") {
		t.Fatalf("commitment to the ignored session should not block")
	}
}
