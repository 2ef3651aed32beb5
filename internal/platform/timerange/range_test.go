package timerange

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestRange_Ticks(t *testing.T) {
	r := Range{Start: at(18, 0), End: at(19, 30)}
	ticks := r.Ticks()
	if len(ticks) != 3 {
		t.Fatalf("unexpected tick count: %d", len(ticks))
	}
	if !ticks[2].Start.Equal(at(19, 0)) || !ticks[2].End.Equal(at(19, 30)) {
		t.Fatalf("unexpected last tick: %s", ticks[2])
	}

	partial := Range{Start: at(18, 0), End: at(18, 45)}.Ticks()
	if len(partial) != 2 || !partial[1].End.Equal(at(18, 45)) {
		t.Fatalf("unexpected partial ticks: %v", partial)
	}

	if got := (Range{Start: at(19, 0), End: at(18, 0)}).Ticks(); got != nil {
		t.Fatalf("expected no ticks for inverted range, got %v", got)
	}
}

func TestRange_OverlapAndContain(t *testing.T) {
	base := Range{Start: at(18, 0), End: at(19, 0)}

	tests := []struct {
		name     string
		other    Range
		overlaps bool
		contains bool
	}{
		{name: "identical", other: base, overlaps: true, contains: true},
		{name: "inside", other: Range{Start: at(18, 15), End: at(18, 45)}, overlaps: true, contains: true},
		{name: "partial", other: Range{Start: at(18, 30), End: at(19, 30)}, overlaps: true, contains: false},
		{name: "touching", other: Range{Start: at(19, 0), End: at(20, 0)}, overlaps: false, contains: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Overlaps(tc.other); got != tc.overlaps {
				t.Fatalf("overlaps=%v want %v", got, tc.overlaps)
			}
			if got := base.Contains(tc.other); got != tc.contains {
				t.Fatalf("contains=%v want %v", got, tc.contains)
			}
		})
	}
}

func TestRange_SameDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	a := Range{Start: time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)}
	b := Range{Start: time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)}

	if !a.SameDay(b, time.UTC) {
		t.Fatalf("expected same day in UTC")
	}
	if a.SameDay(b, jakarta) {
		t.Fatalf("expected different days in UTC+7")
	}
}

func TestAlignUp(t *testing.T) {
	if got := AlignUp(at(18, 10)); !got.Equal(at(18, 30)) {
		t.Fatalf("unexpected aligned time: %s", got)
	}
	if got := AlignUp(at(18, 30)); !got.Equal(at(18, 30)) {
		t.Fatalf("aligned time should stay: %s", got)
	}
}
