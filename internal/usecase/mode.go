package usecase

import (
	"sync"
	"time"
)

type ModeKind string

const (
	ModeIdle           ModeKind = "idle"
	ModeCreating       ModeKind = "creating"
	ModeConfirmingUndo ModeKind = "confirming_undo"
	ModeFrozen         ModeKind = "frozen"
)

// EngineMode is the single source of truth for whether recomputation may write
// the view. Every non-idle mode carries the instant it lapses on its own.
type EngineMode struct {
	Kind     ModeKind
	Deadline time.Time
}

func Idle() EngineMode {
	return EngineMode{Kind: ModeIdle}
}

func Creating(deadline time.Time) EngineMode {
	return EngineMode{Kind: ModeCreating, Deadline: deadline}
}

func ConfirmingUndo(deadline time.Time) EngineMode {
	return EngineMode{Kind: ModeConfirmingUndo, Deadline: deadline}
}

func Frozen(until time.Time) EngineMode {
	return EngineMode{Kind: ModeFrozen, Deadline: until}
}

// Blocks reports whether recomputation must hold the last known-good view at now.
func (m EngineMode) Blocks(now time.Time) bool {
	return m.Kind != ModeIdle && now.Before(m.Deadline)
}

// ModeController tracks every live EngineMode hold. Each Enter gets its own token
// and deadline; the engine is blocked while any hold is live and returns to idle
// only when the last one is released or lapses.
type ModeController struct {
	mu        sync.Mutex
	holds     map[uint64]*modeHold
	token     uint64
	listeners map[uint64]func()
	listener  uint64
	now       func() time.Time
}

type modeHold struct {
	mode  EngineMode
	timer *time.Timer
}

func NewModeController() *ModeController {
	return &ModeController{
		holds:     make(map[uint64]*modeHold),
		listeners: make(map[uint64]func()),
		now:       time.Now,
	}
}

// OnRelease registers fn to run every time the controller returns to idle. The
// returned func unregisters it.
func (c *ModeController) OnRelease(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	c.listener++
	id := c.listener
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Enter adds a hold for mode and returns its token. A mode that does not block
// now yields the zero token.
func (c *ModeController) Enter(mode EngineMode) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !mode.Blocks(now) {
		return 0
	}
	c.token++
	c.hold(c.token, mode, now)
	return c.token
}

// Switch moves the hold behind token into mode, e.g. Creating to ConfirmingUndo,
// keeping the token. When token holds nothing it behaves like Enter.
func (c *ModeController) Switch(token uint64, mode EngineMode) uint64 {
	c.mu.Lock()
	now := c.now()
	_, held := c.holds[token]
	if held && mode.Blocks(now) {
		defer c.mu.Unlock()
		c.hold(token, mode, now)
		return token
	}
	c.mu.Unlock()
	if held {
		c.Release(token)
	}
	return c.Enter(mode)
}

// hold must be called with c.mu held.
func (c *ModeController) hold(token uint64, mode EngineMode, now time.Time) {
	if prev, ok := c.holds[token]; ok {
		prev.timer.Stop()
	}
	timer := time.AfterFunc(mode.Deadline.Sub(now), func() {
		c.Release(token)
	})
	c.holds[token] = &modeHold{mode: mode, timer: timer}
}

// Release drops the hold behind token. Listeners run once no live hold remains.
func (c *ModeController) Release(token uint64) bool {
	c.mu.Lock()
	h, ok := c.holds[token]
	if !ok {
		c.mu.Unlock()
		return false
	}
	h.timer.Stop()
	delete(c.holds, token)
	if c.blocked(c.now()) {
		c.mu.Unlock()
		return true
	}
	listeners := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return true
}

// Current is the live hold that lapses last, or idle.
func (c *ModeController) Current() EngineMode {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	current := Idle()
	for _, h := range c.holds {
		if h.mode.Blocks(now) && (current.Kind == ModeIdle || h.mode.Deadline.After(current.Deadline)) {
			current = h.mode
		}
	}
	return current
}

func (c *ModeController) Blocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked(c.now())
}

func (c *ModeController) blocked(now time.Time) bool {
	for _, h := range c.holds {
		if h.mode.Blocks(now) {
			return true
		}
	}
	return false
}
