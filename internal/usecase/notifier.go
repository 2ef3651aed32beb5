package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchmaker/internal/domain/notification"
	"github.com/riskibarqy/matchmaker/internal/platform/cache"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
)

const (
	defaultNotifyWorkers  = 4
	defaultNotifyDedupTTL = 24 * time.Hour
)

// Notifier delivers notification jobs on a bounded worker pool. Each
// (kind, session) pair is enqueued at most once per dedup period.
type Notifier struct {
	publisher notification.Publisher
	pool      *ants.Pool
	logger    *logging.Logger

	mu   sync.Mutex
	sent *cache.Store
	wg   sync.WaitGroup
}

func NewNotifier(publisher notification.Publisher, workers int, logger *logging.Logger) (*Notifier, error) {
	if workers <= 0 {
		workers = defaultNotifyWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create notifier worker pool: %w", err)
	}
	return &Notifier{
		publisher: publisher,
		pool:      pool,
		logger:    logger,
		sent:      cache.NewStore(defaultNotifyDedupTTL),
	}, nil
}

// Notify schedules job and reports whether it was accepted. Duplicate keys and
// jobs without recipients are skipped. Delivery errors are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, job notification.Job) bool {
	if n == nil || n.publisher == nil || len(job.RecipientIDs) == 0 {
		return false
	}

	key := job.DedupKey()
	n.mu.Lock()
	n.sent.Prune()
	if _, dup := n.sent.Get(ctx, key); dup {
		n.mu.Unlock()
		return false
	}
	n.sent.Set(ctx, key, struct{}{})
	n.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	task := func() {
		defer n.wg.Done()
		if err := n.publisher.Enqueue(ctx, job); err != nil {
			n.logger.WarnContext(ctx, "notification enqueue failed",
				"kind", string(job.Kind),
				"session_id", job.SessionID,
				"group_id", job.GroupID,
				"error", err,
			)
		}
	}
	if err := n.pool.Submit(task); err != nil {
		n.logger.WarnContext(ctx, "notifier pool rejected job, delivering inline",
			"kind", string(job.Kind),
			"session_id", job.SessionID,
			"error", err,
		)
		task()
	}
	return true
}

// Wait blocks until every accepted job has been handed to the publisher.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.wg.Wait()
	n.pool.Release()
}
