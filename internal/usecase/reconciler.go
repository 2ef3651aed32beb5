package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/changefeed"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"github.com/riskibarqy/matchmaker/internal/platform/resilience"
)

const (
	DefaultRsvpDebounce    = 800 * time.Millisecond
	DefaultMinFetchSpacing = 400 * time.Millisecond
	DefaultFetchRetries    = 2
	DefaultFetchBackoff    = 500 * time.Millisecond
)

// Fetcher loads a fresh view. Errors wrapping ErrNetwork are retried.
type Fetcher func(ctx context.Context) (View, error)

type ReconcilerConfig struct {
	RsvpDebounce    time.Duration
	MinFetchSpacing time.Duration
	FetchRetries    int
	FetchBackoff    time.Duration
}

func normalizeReconcilerConfig(cfg ReconcilerConfig) ReconcilerConfig {
	if cfg.RsvpDebounce <= 0 {
		cfg.RsvpDebounce = DefaultRsvpDebounce
	}
	if cfg.MinFetchSpacing < 0 {
		cfg.MinFetchSpacing = DefaultMinFetchSpacing
	}
	if cfg.FetchRetries < 0 {
		cfg.FetchRetries = DefaultFetchRetries
	}
	if cfg.FetchBackoff <= 0 {
		cfg.FetchBackoff = DefaultFetchBackoff
	}
	return cfg
}

// Reconciler keeps one requester's view in step with the change feed. Feed events
// patch the view immediately; a coalesced refetch then replaces it. At most one
// fetch runs at a time and a request that arrives meanwhile replays it once.
type Reconciler struct {
	fetch       Fetcher
	invalidate  func()
	modes       *ModeController
	unsubscribe func()
	logger      *logging.Logger
	cfg         ReconcilerConfig
	now         func() time.Time

	mu        sync.Mutex
	view      View
	lastErr   error
	inFlight  bool
	pending   bool
	lastFetch time.Time
	scheduled *time.Timer
	closed    bool
}

func NewReconciler(fetch Fetcher, modes *ModeController, logger *logging.Logger, cfg ReconcilerConfig) *Reconciler {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Reconciler{
		fetch:  fetch,
		modes:  modes,
		logger: logger,
		cfg:    normalizeReconcilerConfig(cfg),
		now:    time.Now,
	}
	if modes != nil {
		r.unsubscribe = modes.OnRelease(r.replay)
	}
	return r
}

// SetInvalidator registers a hook run before every fetch, e.g. dropping cached profiles.
func (r *Reconciler) SetInvalidator(fn func()) {
	r.mu.Lock()
	r.invalidate = fn
	r.mu.Unlock()
}

// View returns the last known-good view.
func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// LastError is the error of the most recent fetch after retries, nil on success.
func (r *Reconciler) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// HandleSessionEvent patches the view and refetches right away; concurrent
// requests coalesce in Refresh.
func (r *Reconciler) HandleSessionEvent(ev changefeed.SessionEvent) {
	r.mu.Lock()
	if ev.Session.GroupID != "" && r.view.Query.GroupID != "" && ev.Session.GroupID != r.view.Query.GroupID {
		r.mu.Unlock()
		return
	}
	r.view = ApplyOptimisticPatch(r.view, ev)
	r.mu.Unlock()

	r.ScheduleReconciliation(0)
}

// HandleRsvpEvent patches the view and debounces the refetch. Rows of sessions
// outside the view are ignored.
func (r *Reconciler) HandleRsvpEvent(ev changefeed.RsvpEvent) {
	r.mu.Lock()
	if !r.view.hasSession(ev.Rsvp.SessionID) {
		r.mu.Unlock()
		return
	}
	r.view = ApplyOptimisticPatch(r.view, ev)
	r.mu.Unlock()

	r.ScheduleReconciliation(r.cfg.RsvpDebounce)
}

// ScheduleReconciliation (re)arms the delayed refetch. A later call replaces an
// earlier one that has not fired yet.
func (r *Reconciler) ScheduleReconciliation(delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.scheduled != nil {
		r.scheduled.Stop()
	}
	r.scheduled = time.AfterFunc(delay, func() {
		r.Refresh(context.Background())
	})
}

// CancelScheduled drops a scheduled refetch that has not fired yet.
func (r *Reconciler) CancelScheduled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduled == nil {
		return false
	}
	stopped := r.scheduled.Stop()
	r.scheduled = nil
	return stopped
}

// Refresh fetches and stores a new view. It returns immediately when a fetch is in
// flight or the engine mode blocks writes; both cases queue one replay.
func (r *Reconciler) Refresh(ctx context.Context) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.inFlight || r.blocked() {
		r.pending = true
		r.mu.Unlock()
		return
	}
	r.inFlight = true
	r.mu.Unlock()

	for {
		r.pass(ctx)

		r.mu.Lock()
		if !r.pending || r.closed || r.blocked() || ctx.Err() != nil {
			r.inFlight = false
			r.mu.Unlock()
			return
		}
		r.pending = false
		r.mu.Unlock()
	}
}

func (r *Reconciler) pass(ctx context.Context) {
	r.mu.Lock()
	var wait time.Duration
	if !r.lastFetch.IsZero() {
		wait = r.cfg.MinFetchSpacing - r.now().Sub(r.lastFetch)
	}
	invalidate := r.invalidate
	r.mu.Unlock()

	if !sleepContext(ctx, wait) {
		return
	}
	if invalidate != nil {
		invalidate()
	}

	view, err := r.fetchWithRetry(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFetch = r.now()
	if err != nil {
		r.lastErr = err
		r.logger.WarnContext(ctx, "reconciliation fetch failed", "error", err)
		return
	}
	if r.blocked() {
		// Hold the known-good view; the release hook refetches.
		r.pending = true
		return
	}
	r.lastErr = nil
	r.view = view
}

func (r *Reconciler) fetchWithRetry(ctx context.Context) (View, error) {
	var view View
	isNetwork := func(err error) bool { return errors.Is(err, ErrNetwork) }
	err := resilience.RetryLinear(ctx, r.cfg.FetchRetries, r.cfg.FetchBackoff, isNetwork, func(ctx context.Context) error {
		fetched, err := r.fetch(ctx)
		if err != nil {
			return err
		}
		view = fetched
		return nil
	})
	return view, err
}

// blocked must be called with r.mu held.
func (r *Reconciler) blocked() bool {
	return r.modes != nil && r.modes.Blocked()
}

func (r *Reconciler) replay() {
	r.mu.Lock()
	replay := r.pending && !r.inFlight && !r.closed
	if replay {
		r.pending = false
	}
	r.mu.Unlock()
	if replay {
		go r.Refresh(context.Background())
	}
}

func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.scheduled != nil {
		r.scheduled.Stop()
	}
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
