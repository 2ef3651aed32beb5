package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchmaker/internal/infrastructure/changefeed"
	basecache "github.com/riskibarqy/matchmaker/internal/platform/cache"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"github.com/riskibarqy/matchmaker/internal/usecase"
)

type viewLoader interface {
	Load(ctx context.Context, query usecase.ProposalQuery) (usecase.View, error)
}

type feedSubscriber interface {
	Subscribe(groupID string, handler changefeed.Handler) (func(), error)
}

const defaultLiveViewIdleTTL = 10 * time.Minute

// liveView is one registered reconciler and its feed subscription.
type liveView struct {
	reconciler *usecase.Reconciler

	mu          sync.Mutex
	unsubscribe func()
	closed      bool
}

// attach keeps unsubscribe for close; a view closed meanwhile drops it at once.
func (v *liveView) attach(unsubscribe func()) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		unsubscribe()
		return
	}
	v.unsubscribe = unsubscribe
	v.mu.Unlock()
}

func (v *liveView) close() {
	v.mu.Lock()
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.closed = true
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	v.reconciler.Close()
}

// liveViews keeps one reconciler per distinct proposal query. With a change feed
// the reconcilers are event driven; without one every read refetches. A view
// nobody watched for idleTTL is closed and dropped.
type liveViews struct {
	loader     viewLoader
	modes      *usecase.ModeController
	feed       feedSubscriber
	invalidate func()
	cfg        usecase.ReconcilerConfig
	logger     *logging.Logger

	mu    sync.Mutex
	views *basecache.Store
}

func newLiveViews(
	loader viewLoader,
	modes *usecase.ModeController,
	feed feedSubscriber,
	invalidate func(),
	cfg usecase.ReconcilerConfig,
	idleTTL time.Duration,
	logger *logging.Logger,
) *liveViews {
	if logger == nil {
		logger = logging.Default()
	}
	if idleTTL <= 0 {
		idleTTL = defaultLiveViewIdleTTL
	}
	views := basecache.NewStore(idleTTL)
	views.OnEvict(func(key string, value any) {
		if view, ok := value.(*liveView); ok {
			view.close()
			logger.Debug("live view evicted", "key", key)
		}
	})
	return &liveViews{
		loader:     loader,
		modes:      modes,
		feed:       feed,
		invalidate: invalidate,
		cfg:        cfg,
		logger:     logger,
		views:      views,
	}
}

func (l *liveViews) Watch(ctx context.Context, query usecase.ProposalQuery) (*usecase.Reconciler, error) {
	key := liveViewKey(query)
	l.views.Prune()

	if existing, ok := l.touch(ctx, key); ok {
		if l.feed == nil {
			existing.Refresh(ctx)
		}
		return existing, nil
	}

	reconciler := usecase.NewReconciler(func(ctx context.Context) (usecase.View, error) {
		return l.loader.Load(ctx, query)
	}, l.modes, l.logger, l.cfg)
	reconciler.SetInvalidator(l.invalidate)

	reconciler.Refresh(ctx)
	if reconciler.View().FetchedAt.IsZero() {
		err := reconciler.LastError()
		reconciler.Close()
		if err == nil {
			err = crerr.Wrap(usecase.ErrDependencyUnavailable, "initial proposals fetch deferred")
		}
		return nil, err
	}

	l.mu.Lock()
	if raced, ok := l.touchLocked(ctx, key); ok {
		l.mu.Unlock()
		reconciler.Close()
		return raced, nil
	}
	view := &liveView{reconciler: reconciler}
	l.views.Set(ctx, key, view)
	l.mu.Unlock()

	if l.feed != nil {
		unsubscribe, err := l.feed.Subscribe(query.GroupID, reconciler)
		if err != nil {
			l.logger.WarnContext(ctx, "subscribe live view failed, falling back to refetch on read",
				"group_id", query.GroupID,
				"requester_id", query.RequesterID,
				"error", err,
			)
			return reconciler, nil
		}
		view.attach(unsubscribe)
	}
	return reconciler, nil
}

// touch returns the registered reconciler for key and restarts its idle clock.
func (l *liveViews) touch(ctx context.Context, key string) (*usecase.Reconciler, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.touchLocked(ctx, key)
}

func (l *liveViews) touchLocked(ctx context.Context, key string) (*usecase.Reconciler, bool) {
	value, ok := l.views.Get(ctx, key)
	if !ok {
		return nil, false
	}
	l.views.Set(ctx, key, value)
	return value.(*liveView).reconciler, true
}

func (l *liveViews) Len() int {
	return l.views.Len()
}

func (l *liveViews) Close() {
	l.views.Purge()
}

func liveViewKey(query usecase.ProposalQuery) string {
	levels := make([]string, 0, len(query.Filters.Levels))
	for _, level := range query.Filters.Levels {
		levels = append(levels, strconv.Itoa(level))
	}
	sort.Strings(levels)

	geo := "-"
	if g := query.Filters.Geo; g != nil {
		geo = fmt.Sprintf("%.5f,%.5f,%.3f", g.Center.Lat, g.Center.Lon, g.RadiusKm)
	}

	return strings.Join([]string{
		query.GroupID,
		query.RequesterID,
		query.Week.Start.UTC().Format(time.RFC3339),
		strings.Join(levels, ","),
		geo,
	}, "|")
}
