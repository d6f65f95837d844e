package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/testutil"
	"github.com/paseoapp/walk-api/pkg/logger"
	"github.com/paseoapp/walk-api/pkg/messaging"
	"github.com/paseoapp/walk-api/pkg/metrics"
	"github.com/paseoapp/walk-api/pkg/worker"
)

type failingBroker struct {
	messaging.Broker
	calls int
}

func (b *failingBroker) Publish(context.Context, string, interface{}) error {
	b.calls++
	return errors.New("connection refused")
}

var cfg = worker.OutboxProcessorConfig{
	BatchSize:     10,
	PollInterval:  time.Second,
	RetryAttempts: 2,
	RetryDelay:    time.Millisecond,
}

func newEvent(t *testing.T, createdAt time.Time) *model.OutboxEvent {
	t.Helper()
	payload, err := model.NewPayload(model.PayoutCompleted{WalkerID: uuid.New(), WalkerAmount: 9000})
	require.NoError(t, err)
	return &model.OutboxEvent{EventType: model.EventPayoutCompleted, Payload: payload, CreatedAt: createdAt}
}

func TestOutboxProcessor_PublishesPendingEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := testutil.NewStore(t)
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	event := newEvent(t, now.Add(-time.Minute))
	require.NoError(t, store.Outbox().Create(ctx, event))

	broker := messaging.NewMemoryBroker()
	msgs, err := broker.Subscribe(ctx, model.EventPayoutCompleted)
	require.NoError(t, err)

	p, err := worker.NewOutboxProcessor(store.Outbox(), broker, cfg, logger.Nop(), metrics.NewNop())
	require.NoError(t, err)
	p.SetClock(func() time.Time { return now })

	n, err := p.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	select {
	case msg := <-msgs:
		assert.JSONEq(t, string(event.Payload), string(msg))
	case <-time.After(time.Second):
		t.Fatal("event not published")
	}

	stored, err := store.Outbox().Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxStatusProcessed, stored.Status)
	require.NotNil(t, stored.ProcessedAt)

	n, err = p.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutboxProcessor_RetriesWithBackoffThenFails(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	event := newEvent(t, now.Add(-time.Minute))
	require.NoError(t, store.Outbox().Create(ctx, event))

	broker := &failingBroker{}
	p, err := worker.NewOutboxProcessor(store.Outbox(), broker, cfg, logger.Nop(), metrics.NewNop())
	require.NoError(t, err)

	clock := now
	p.SetClock(func() time.Time { return clock })

	n, err := p.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, cfg.RetryAttempts, broker.calls)

	stored, err := store.Outbox().Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxStatusRetry, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "connection refused")

	// Not due yet.
	events, err := store.Outbox().GetPendingEvents(ctx, 10, now)
	require.NoError(t, err)
	assert.Empty(t, events)

	for i := 1; i < worker.MaxEventRetries; i++ {
		clock = clock.Add(time.Hour)
		_, err := p.ProcessPending(ctx)
		require.NoError(t, err)
	}

	stored, err = store.Outbox().Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxStatusFailed, stored.Status)
	assert.Equal(t, worker.MaxEventRetries, stored.RetryCount)

	clock = clock.Add(time.Hour)
	events, err = store.Outbox().GetPendingEvents(ctx, 10, clock)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestOutboxProcessor_Cleanup(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	old := newEvent(t, now.Add(-10*24*time.Hour))
	recent := newEvent(t, now.Add(-time.Hour))
	require.NoError(t, store.Outbox().Create(ctx, old))
	require.NoError(t, store.Outbox().Create(ctx, recent))
	require.NoError(t, store.Outbox().MarkProcessed(ctx, old.ID, now.Add(-9*24*time.Hour)))
	require.NoError(t, store.Outbox().MarkProcessed(ctx, recent.ID, now.Add(-time.Hour)))

	p, err := worker.NewOutboxProcessor(store.Outbox(), messaging.NewMemoryBroker(), cfg, logger.Nop(), metrics.NewNop())
	require.NoError(t, err)
	p.SetClock(func() time.Time { return now })

	n, err := p.Cleanup(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Outbox().Get(ctx, old.ID)
	assert.Error(t, err)
	_, err = store.Outbox().Get(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestNewOutboxProcessor_RejectsBadConfig(t *testing.T) {
	_, err := worker.NewOutboxProcessor(nil, nil, worker.OutboxProcessorConfig{}, logger.Nop(), metrics.NewNop())
	assert.Error(t, err)
}

func TestRetry(t *testing.T) {
	calls := 0
	err := worker.Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = worker.Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return errors.New("down")
	})
	assert.EqualError(t, err, "down")
	assert.Equal(t, 2, calls)
}
