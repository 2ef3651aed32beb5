package usecase

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestEngineMode_Blocks(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		mode EngineMode
		want bool
	}{
		{name: "idle", mode: Idle(), want: false},
		{name: "creating", mode: Creating(now.Add(time.Second)), want: true},
		{name: "confirming", mode: ConfirmingUndo(now.Add(time.Second)), want: true},
		{name: "frozen lapsed", mode: Frozen(now.Add(-time.Second)), want: false},
		{name: "deadline reached", mode: Frozen(now), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.mode.Blocks(now); got != tc.want {
				t.Fatalf("Blocks() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestModeController_IdleOnlyAfterLastHold(t *testing.T) {
	c := NewModeController()
	var releases atomic.Int32
	c.OnRelease(func() { releases.Add(1) })

	first := c.Enter(Creating(time.Now().Add(time.Minute)))
	second := c.Enter(Frozen(time.Now().Add(2 * time.Minute)))
	if first == 0 || second == 0 || first == second {
		t.Fatalf("expected distinct tokens, got %d and %d", first, second)
	}

	if !c.Release(first) {
		t.Fatalf("first hold should release")
	}
	if !c.Blocked() {
		t.Fatalf("controller should still be blocked by the second hold")
	}
	if got := releases.Load(); got != 0 {
		t.Fatalf("listeners must wait for the last hold, got %d calls", got)
	}
	if !c.Release(second) {
		t.Fatalf("second hold should release")
	}
	if c.Release(second) {
		t.Fatalf("second release must be a no-op")
	}
	if got := releases.Load(); got != 1 {
		t.Fatalf("expected one release callback, got %d", got)
	}
	if c.Current().Kind != ModeIdle {
		t.Fatalf("expected idle, got %s", c.Current().Kind)
	}
}

func TestModeController_ShorterHoldKeepsLongerOne(t *testing.T) {
	c := NewModeController()
	long := c.Enter(ConfirmingUndo(time.Now().Add(time.Minute)))

	short := c.Enter(Frozen(time.Now().Add(time.Second)))
	if short == 0 {
		t.Fatalf("shorter mode should still get its own hold")
	}
	if c.Current().Kind != ModeConfirmingUndo {
		t.Fatalf("expected confirming_undo, got %s", c.Current().Kind)
	}
	if !c.Release(short) {
		t.Fatalf("short hold should release")
	}
	if !c.Blocked() {
		t.Fatalf("releasing the short hold must not unblock the long one")
	}
	if c.Release(0) {
		t.Fatalf("zero token never releases")
	}
	if !c.Release(long) {
		t.Fatalf("long hold should release")
	}
	if c.Blocked() {
		t.Fatalf("controller should be idle")
	}
}

func TestModeController_SwitchKeepsToken(t *testing.T) {
	c := NewModeController()
	creating := c.Enter(Creating(time.Now().Add(time.Minute)))

	confirming := c.Switch(creating, ConfirmingUndo(time.Now().Add(10*time.Second)))
	if confirming != creating {
		t.Fatalf("switch should keep the token, got %d want %d", confirming, creating)
	}
	if c.Current().Kind != ModeConfirmingUndo {
		t.Fatalf("expected confirming_undo, got %s", c.Current().Kind)
	}
	if !c.Release(confirming) {
		t.Fatalf("switched hold should release")
	}
	if c.Blocked() {
		t.Fatalf("switch must not leave the creating hold behind")
	}
}

func TestModeController_SwitchUnknownTokenEnters(t *testing.T) {
	c := NewModeController()
	token := c.Switch(42, Frozen(time.Now().Add(time.Minute)))
	if token == 0 || token == 42 {
		t.Fatalf("expected a fresh token, got %d", token)
	}
	if !c.Blocked() {
		t.Fatalf("switch without a hold should enter the mode")
	}
}

func TestModeController_FailedCreateKeepsOpenWindowBlocked(t *testing.T) {
	c := NewModeController()
	open := c.Switch(c.Enter(Creating(time.Now().Add(time.Minute))), ConfirmingUndo(time.Now().Add(time.Minute)))
	failed := c.Enter(Creating(time.Now().Add(2 * time.Minute)))

	c.Release(failed)
	if !c.Blocked() {
		t.Fatalf("a failed create must not unblock an open confirmation window")
	}
	if c.Current().Kind != ModeConfirmingUndo {
		t.Fatalf("expected confirming_undo, got %s", c.Current().Kind)
	}
	c.Release(open)
	if c.Blocked() {
		t.Fatalf("controller should be idle once the window closes")
	}
}

func TestModeController_UnsubscribeStopsListener(t *testing.T) {
	c := NewModeController()
	var calls atomic.Int32
	unsubscribe := c.OnRelease(func() { calls.Add(1) })

	c.Release(c.Enter(Frozen(time.Now().Add(time.Minute))))
	unsubscribe()
	c.Release(c.Enter(Frozen(time.Now().Add(time.Minute))))

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one call before unsubscribe, got %d", got)
	}
}

func TestModeController_LapsesAtDeadline(t *testing.T) {
	c := NewModeController()
	released := make(chan struct{})
	c.OnRelease(func() { close(released) })

	c.Enter(Frozen(time.Now().Add(20 * time.Millisecond)))

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatalf("mode did not lapse on its own")
	}
	if c.Blocked() {
		t.Fatalf("controller should be idle after lapse")
	}
}
