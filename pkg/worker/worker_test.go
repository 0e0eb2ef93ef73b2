package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

type fakeBroker struct {
	mu        sync.Mutex
	failing   map[string]bool
	published map[string][][]byte
	calls     int
}

func newFakeBroker(failing ...string) *fakeBroker {
	b := &fakeBroker{failing: map[string]bool{}, published: map[string][][]byte{}}
	for _, ch := range failing {
		b.failing[ch] = true
	}
	return b
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.failing[channel] {
		return errors.New("broker unavailable")
	}
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *fakeBroker) Close() error { return nil }

func addEvent(t *testing.T, repos *repository.Repositories, eventType string) *model.OutboxEvent {
	t.Helper()
	e := &model.OutboxEvent{
		EventType:   eventType,
		AggregateID: uuid.New(),
		Payload:     json.RawMessage(`{"ok":true}`),
	}
	require.NoError(t, repos.Outbox.Create(context.Background(), e))
	return e
}

func testConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Millisecond,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}
}

func TestNewOutboxProcessor_ValidatesConfig(t *testing.T) {
	repos := memory.NewRepositories()
	cfg := testConfig()
	cfg.BatchSize = 0
	_, err := NewOutboxProcessor(repos.Tx, repos.Outbox, newFakeBroker(), cfg, nil)
	assert.Error(t, err)

	_, err = NewOutboxProcessor(repos.Tx, repos.Outbox, newFakeBroker(), DefaultOutboxProcessorConfig(), nil)
	assert.NoError(t, err)
}

func TestProcessBatch(t *testing.T) {
	repos := memory.NewRepositories()
	broker := newFakeBroker(model.EventDoctorDeleted)
	m := metrics.New("test", prometheus.NewRegistry())
	p, err := NewOutboxProcessor(repos.Tx, repos.Outbox, broker, testConfig(), m)
	require.NoError(t, err)

	booked := addEvent(t, repos, model.EventAppointmentBooked)
	addEvent(t, repos, model.EventDoctorDeleted)

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, broker.published[model.EventAppointmentBooked], 1)
	var msg messaging.Message
	require.NoError(t, json.Unmarshal(broker.published[model.EventAppointmentBooked][0], &msg))
	assert.Equal(t, booked.ID.String(), msg.ID)
	assert.Equal(t, booked.AggregateID.String(), msg.AggregateID)
	assert.JSONEq(t, `{"ok":true}`, string(msg.Payload))

	// 1 success plus 3 attempts for the failing event.
	assert.Equal(t, 4, broker.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxEventsProcessed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxEventsFailed))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OutboxRetries.WithLabelValues(model.EventDoctorDeleted)))

	pending, err := repos.Outbox.GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed events leave the pending queue")

	n, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessBatch_RespectsBatchSize(t *testing.T) {
	repos := memory.NewRepositories()
	cfg := testConfig()
	cfg.BatchSize = 2
	p, err := NewOutboxProcessor(repos.Tx, repos.Outbox, newFakeBroker(), cfg, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		addEvent(t, repos, model.EventAppointmentStatus)
	}

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOutboxProcessor_StartStopsOnCancel(t *testing.T) {
	repos := memory.NewRepositories()
	broker := newFakeBroker()
	p, err := NewOutboxProcessor(repos.Tx, repos.Outbox, broker, testConfig(), nil)
	require.NoError(t, err)
	addEvent(t, repos, model.EventAppointmentBooked)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		pending, _ := repos.Outbox.GetPendingEvents(context.Background(), 10)
		return len(pending) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processor did not stop")
	}
}

type fakeExpirer struct {
	calls int
	err   error
}

func (f *fakeExpirer) ExpireLapsed(ctx context.Context) (int64, error) {
	f.calls++
	return 1, f.err
}

func TestNewHousekeeper_RejectsBadSchedule(t *testing.T) {
	repos := memory.NewRepositories()
	_, err := NewHousekeeper(&fakeExpirer{}, repos.Outbox, HousekeepingConfig{ExpirySweepSpec: "whenever"})
	assert.Error(t, err)

	_, err = NewHousekeeper(&fakeExpirer{}, repos.Outbox, HousekeepingConfig{
		ExpirySweepSpec:   "@every 1m",
		OutboxCleanupSpec: "nope",
		OutboxRetention:   time.Hour,
	})
	assert.Error(t, err)
}

func TestHousekeeper(t *testing.T) {
	repos := memory.NewRepositories()
	ctx := context.Background()
	expirer := &fakeExpirer{err: errors.New("db down")}
	h, err := NewHousekeeper(expirer, repos.Outbox, HousekeepingConfig{
		ExpirySweepSpec:   "@every 1m",
		OutboxCleanupSpec: "@daily",
		OutboxRetention:   time.Hour,
	})
	require.NoError(t, err)

	h.SweepExpired(ctx)
	assert.Equal(t, 1, expirer.calls, "errors are logged, not fatal")

	done := addEvent(t, repos, model.EventAppointmentBooked)
	require.NoError(t, repos.Outbox.UpdateStatus(ctx, done.ID, model.OutboxStatusProcessed, nil))
	waiting := addEvent(t, repos, model.EventAppointmentBooked)

	h.CleanOutbox(ctx)
	pending, err := repos.Outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	h.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	h.CleanOutbox(ctx)
	// Only processed events past retention are removed.
	require.NoError(t, repos.Outbox.UpdateStatus(ctx, waiting.ID, model.OutboxStatusPending, nil))
	assert.ErrorIs(t, repos.Outbox.UpdateStatus(ctx, done.ID, model.OutboxStatusProcessed, nil), model.ErrNotFound)
}
