package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/notification"
	notificationmock "github.com/riskibarqy/matchmaker/internal/mocks/domain/notification"
	"github.com/riskibarqy/matchmaker/internal/platform/cache"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotifier_DeliversEachKeyOnce(t *testing.T) {
	publisher := notificationmock.NewPublisher(t)
	job := notification.Job{
		Kind:         notification.KindSessionParticipants,
		SessionID:    "s-1",
		GroupID:      testGroup,
		RecipientIDs: []string{"b", "c"},
	}
	publisher.On("Enqueue", mock.Anything, job).Return(nil).Once()

	n, err := NewNotifier(publisher, 1, logging.NewNop())
	require.NoError(t, err)
	defer n.Close()

	require.True(t, n.Notify(context.Background(), job))
	require.False(t, n.Notify(context.Background(), job))
	n.Wait()
}

func TestNotifier_SkipsJobsWithoutRecipients(t *testing.T) {
	publisher := notificationmock.NewPublisher(t)

	n, err := NewNotifier(publisher, 1, logging.NewNop())
	require.NoError(t, err)
	defer n.Close()

	require.False(t, n.Notify(context.Background(), notification.Job{
		Kind:      notification.KindSessionGroup,
		SessionID: "s-1",
	}))
	n.Wait()
	publisher.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestNotifier_EnqueueErrorIsSwallowed(t *testing.T) {
	publisher := notificationmock.NewPublisher(t)
	publisher.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("qstash down")).Once()

	n, err := NewNotifier(publisher, 1, logging.NewNop())
	require.NoError(t, err)
	defer n.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, n.Notify(ctx, notification.Job{
		Kind:         notification.KindSessionGroup,
		SessionID:    "s-2",
		RecipientIDs: []string{"e"},
	}))
	n.Wait()
}

func TestNotifier_NilIsSafe(t *testing.T) {
	var n *Notifier
	require.False(t, n.Notify(context.Background(), notification.Job{RecipientIDs: []string{"a"}}))
	n.Wait()
	n.Close()
}

func TestNotifier_DedupKeysExpire(t *testing.T) {
	publisher := notificationmock.NewPublisher(t)
	publisher.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Times(101)

	n, err := NewNotifier(publisher, 2, logging.NewNop())
	require.NoError(t, err)
	defer n.Close()
	n.sent = cache.NewStore(20 * time.Millisecond)

	for i := 0; i < 100; i++ {
		require.True(t, n.Notify(context.Background(), notification.Job{
			Kind:         notification.KindSessionGroup,
			SessionID:    fmt.Sprintf("s-%d", i),
			RecipientIDs: []string{"e"},
		}))
	}
	n.Wait()
	require.Equal(t, 100, n.sent.Len())

	time.Sleep(40 * time.Millisecond)
	require.True(t, n.Notify(context.Background(), notification.Job{
		Kind:         notification.KindSessionGroup,
		SessionID:    "s-0",
		RecipientIDs: []string{"e"},
	}), "an expired key may be delivered again")
	n.Wait()
	require.Equal(t, 1, n.sent.Len(), "expired keys should be dropped")
}
