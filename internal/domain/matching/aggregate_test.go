package matching

import (
	"testing"

	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

func TestAvailabilityIndex_CoveringAll(t *testing.T) {
	index := NewAvailabilityIndex([]availability.Interval{
		available("a", 18, 0, 19, 30),
		available("b", 18, 0, 19, 0),
		available("c", 18, 0, 18, 30),
		available("c", 18, 30, 19, 30),
		available("d", 18, 1, 19, 30),
		{GroupID: testGroup, UserID: "e", Start: at(18, 0), End: at(19, 30), Status: availability.StatusUnavailable},
		{GroupID: testGroup, UserID: "f", Start: at(19, 0), End: at(18, 0), Status: availability.StatusAvailable},
		{GroupID: testGroup, UserID: "g", End: at(19, 0), Status: availability.StatusAvailable},
	})

	tests := []struct {
		name   string
		window timerange.Range
		want   []string
	}{
		{name: "sixty minutes", window: window(18, 0, 19, 0), want: []string{"a", "b", "c"}},
		{name: "ninety minutes", window: window(18, 0, 19, 30), want: []string{"a", "c"}},
		{name: "late half", window: window(18, 30, 19, 30), want: []string{"a", "c", "d"}},
		{name: "nobody", window: window(20, 0, 21, 0), want: []string{}},
		{name: "inverted", window: window(19, 0, 18, 0), want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := index.CoveringAll(tc.window).Sorted()
			if len(got) != len(tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v want %v", got, tc.want)
				}
			}
		})
	}
}

func TestAvailabilityIndex_MonotonicShrink(t *testing.T) {
	index := NewAvailabilityIndex([]availability.Interval{
		available("a", 17, 0, 21, 0),
		available("b", 18, 0, 19, 30),
		available("c", 18, 30, 20, 0),
		available("d", 19, 0, 20, 30),
	})

	outer := window(18, 0, 20, 0)
	subs := []timerange.Range{
		window(18, 0, 19, 0),
		window(18, 30, 20, 0),
		window(19, 0, 19, 30),
		window(19, 30, 20, 0),
	}

	whole := index.CoveringAll(outer)
	for _, sub := range subs {
		part := index.CoveringAll(sub)
		for id := range whole {
			if !part.Has(id) {
				t.Fatalf("player %s covers %s but not sub-window %s", id, outer, sub)
			}
		}
	}
}

func TestAvailabilityIndex_TickStarts(t *testing.T) {
	index := NewAvailabilityIndex([]availability.Interval{
		available("a", 18, 10, 19, 0),
		available("b", 18, 30, 19, 30),
	})

	got := index.TickStarts(window(0, 0, 23, 0))
	if len(got) != 2 {
		t.Fatalf("unexpected tick starts: %v", got)
	}
	if !got[0].Equal(at(18, 30)) || !got[1].Equal(at(19, 0)) {
		t.Fatalf("unexpected tick starts: %v", got)
	}

	clipped := index.TickStarts(window(19, 0, 23, 0))
	if len(clipped) != 1 || !clipped[0].Equal(at(19, 0)) {
		t.Fatalf("unexpected clipped tick starts: %v", clipped)
	}
}

func TestAvailabilityIndex_SkipsBrokenIntervals(t *testing.T) {
	tests := []struct {
		name     string
		interval availability.Interval
	}{
		{name: "zero start", interval: availability.Interval{GroupID: testGroup, UserID: "a", End: at(19, 0), Status: availability.StatusAvailable}},
		{name: "zero end", interval: availability.Interval{GroupID: testGroup, UserID: "a", Start: at(18, 0), Status: availability.StatusAvailable}},
		{name: "end before start", interval: availability.Interval{GroupID: testGroup, UserID: "a", Start: at(19, 0), End: at(18, 0), Status: availability.StatusAvailable}},
		{name: "empty", interval: availability.Interval{GroupID: testGroup, UserID: "a", Start: at(18, 0), End: at(18, 0), Status: availability.StatusAvailable}},
		{name: "no user", interval: available("", 18, 0, 19, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			index := NewAvailabilityIndex([]availability.Interval{tc.interval})

			if got := index.CoveringAll(window(18, 0, 19, 0)); got.Len() != 0 {
				t.Fatalf("broken interval should cover nothing, got %v", got.Sorted())
			}
			if got := index.TickStarts(window(0, 0, 23, 0)); len(got) != 0 {
				t.Fatalf("broken interval should yield no tick starts, got %v", got)
			}
		})
	}
}
