package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type completions struct {
	mu  sync.Mutex
	ids []string
}

func (c *completions) record(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, sessionID)
}

func (c *completions) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ids...)
}

func TestConfirmationWindows_ConfirmCompletesOnce(t *testing.T) {
	modes := NewModeController()
	w := NewConfirmationWindows(time.Minute, modes)
	done := &completions{}
	w.OnComplete(done.record)

	token := modes.Enter(Creating(time.Now().Add(time.Minute)))
	deadline := w.Open("s-1", token)
	require.False(t, deadline.IsZero())
	require.Equal(t, ModeConfirmingUndo, modes.Current().Kind)
	require.Equal(t, deadline, w.Open("s-1", token), "reopening keeps the first deadline")

	require.True(t, w.Confirm("s-1"))
	require.False(t, w.Confirm("s-1"))
	require.False(t, w.Cancel("s-1"))

	require.Equal(t, []string{"s-1"}, done.list())
	require.False(t, modes.Blocked())
}

func TestConfirmationWindows_CancelDoesNotComplete(t *testing.T) {
	modes := NewModeController()
	w := NewConfirmationWindows(time.Minute, modes)
	done := &completions{}
	w.OnComplete(done.record)

	w.Open("s-1", 0)
	require.True(t, w.IsOpen("s-1"))
	require.True(t, w.Cancel("s-1"))
	require.False(t, w.IsOpen("s-1"))
	require.Empty(t, done.list())
	require.False(t, modes.Blocked())
}

func TestConfirmationWindows_TimerCompletes(t *testing.T) {
	w := NewConfirmationWindows(20*time.Millisecond, nil)
	done := &completions{}
	w.OnComplete(done.record)

	w.Open("s-1", 0)
	w.Open("s-2", 0)

	require.Eventually(t, func() bool {
		return len(done.list()) == 2
	}, time.Second, 5*time.Millisecond)
	require.ElementsMatch(t, []string{"s-1", "s-2"}, done.list())
	require.False(t, w.Confirm("s-1"))
}

func TestConfirmationWindows_ConfirmAllFlushesOpenWindows(t *testing.T) {
	modes := NewModeController()
	w := NewConfirmationWindows(time.Hour, modes)
	done := &completions{}
	w.OnComplete(done.record)

	w.Open("s-1", 0)
	w.Open("s-2", 0)

	require.Equal(t, 2, w.ConfirmAll())
	require.ElementsMatch(t, []string{"s-1", "s-2"}, done.list())
	require.Equal(t, 0, w.ConfirmAll())
	require.False(t, modes.Blocked())
}

func TestConfirmationWindows_BlockedUntilLastWindowCloses(t *testing.T) {
	modes := NewModeController()
	w := NewConfirmationWindows(time.Minute, modes)

	w.Open("s-1", modes.Enter(Creating(time.Now().Add(time.Minute))))
	w.Open("s-2", modes.Enter(Creating(time.Now().Add(2*time.Minute))))

	require.True(t, w.Confirm("s-2"))
	require.True(t, modes.Blocked(), "s-1 is still open")
	require.True(t, w.Cancel("s-1"))
	require.False(t, modes.Blocked())
}
