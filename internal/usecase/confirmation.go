package usecase

import (
	"sync"
	"time"
)

const DefaultConfirmWindow = 10 * time.Second

// ConfirmationWindows tracks the reversible period after session creation. Each
// session completes at most once, either by Confirm or by its timer.
type ConfirmationWindows struct {
	mu       sync.Mutex
	duration time.Duration
	modes    *ModeController
	open     map[string]*confirmation
	complete func(sessionID string)
	now      func() time.Time
}

type confirmation struct {
	timer    *time.Timer
	token    uint64
	deadline time.Time
}

func NewConfirmationWindows(duration time.Duration, modes *ModeController) *ConfirmationWindows {
	if duration <= 0 {
		duration = DefaultConfirmWindow
	}
	return &ConfirmationWindows{
		duration: duration,
		modes:    modes,
		open:     make(map[string]*confirmation),
		now:      time.Now,
	}
}

// OnComplete sets the callback run once per session when its window closes by
// confirm or timeout. It runs outside the lock on its own goroutine for timeouts.
func (w *ConfirmationWindows) OnComplete(fn func(sessionID string)) {
	w.mu.Lock()
	w.complete = fn
	w.mu.Unlock()
}

// Open starts the window for sessionID. token is the caller's current mode token;
// the engine stays in ConfirmingUndo until the window closes.
func (w *ConfirmationWindows) Open(sessionID string, token uint64) time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.open[sessionID]; ok {
		return existing.deadline
	}

	deadline := w.now().Add(w.duration)
	if w.modes != nil {
		token = w.modes.Switch(token, ConfirmingUndo(deadline))
	}
	item := &confirmation{token: token, deadline: deadline}
	item.timer = time.AfterFunc(w.duration, func() {
		w.finish(sessionID, true)
	})
	w.open[sessionID] = item
	return deadline
}

// Confirm closes the window early and completes it. It reports false when no
// window is open for sessionID.
func (w *ConfirmationWindows) Confirm(sessionID string) bool {
	return w.finish(sessionID, true)
}

// Cancel closes the window without completing it.
func (w *ConfirmationWindows) Cancel(sessionID string) bool {
	return w.finish(sessionID, false)
}

// ConfirmAll completes every open window. Used on shutdown so pending
// sessions still get their notifications.
func (w *ConfirmationWindows) ConfirmAll() int {
	w.mu.Lock()
	ids := make([]string, 0, len(w.open))
	for sessionID := range w.open {
		ids = append(ids, sessionID)
	}
	w.mu.Unlock()

	completed := 0
	for _, sessionID := range ids {
		if w.finish(sessionID, true) {
			completed++
		}
	}
	return completed
}

func (w *ConfirmationWindows) IsOpen(sessionID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.open[sessionID]
	return ok
}

func (w *ConfirmationWindows) finish(sessionID string, completed bool) bool {
	w.mu.Lock()
	item, ok := w.open[sessionID]
	if !ok {
		w.mu.Unlock()
		return false
	}
	delete(w.open, sessionID)
	item.timer.Stop()
	complete := w.complete
	w.mu.Unlock()

	if completed && complete != nil {
		complete(sessionID)
	}
	if w.modes != nil {
		w.modes.Release(item.token)
	}
	return true
}
