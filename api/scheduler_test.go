package api

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/store/memory"
	"github.com/warp/vacation-engine/timeoff"
)

type countingNotifier struct {
	mu   sync.Mutex
	sent []timeoff.Reminder
}

func (n *countingNotifier) NotifyExpiring(_ context.Context, r timeoff.Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, r)
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func newSchedulerService(t *testing.T, notifier timeoff.Notifier) *timeoff.Service {
	t.Helper()
	store := memory.New()
	svc, err := timeoff.NewService(store, timeoff.DefaultPolicy(),
		timeoff.WithAuditLog(store),
		timeoff.WithNotifier(notifier),
		timeoff.WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	_, err = svc.SaveEmployee(context.Background(), timeoff.Employee{
		Email:    ana,
		Name:     "Ana",
		HireDate: generic.NewTimePoint(2020, 1, 1),
	})
	require.NoError(t, err)
	return svc
}

func TestReminderScheduler_RunNow(t *testing.T) {
	// GIVEN: Year 3 (18 days) expires 2024-07-01
	notifier := &countingNotifier{}
	metrics := NewMetrics()
	rs := NewReminderScheduler(newSchedulerService(t, notifier), metrics)

	// WHEN: Running on the reminder date, two months before expiry
	sent, err := rs.RunNow(context.Background(), generic.NewTimePoint(2024, 5, 1))

	// THEN: One reminder goes out
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, notifier.count())

	sent, err = rs.RunNow(context.Background(), generic.NewTimePoint(2024, 5, 2))
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestReminderScheduler_ProcessesEachDateOnce(t *testing.T) {
	notifier := &countingNotifier{}
	rs := NewReminderScheduler(newSchedulerService(t, notifier), nil)
	rs.Today = func() generic.TimePoint { return generic.NewTimePoint(2024, 5, 1) }

	rs.checkAndProcess()
	rs.checkAndProcess()

	assert.Equal(t, 1, notifier.count())
}

func TestReminderScheduler_StartStop(t *testing.T) {
	notifier := &countingNotifier{}
	rs := NewReminderScheduler(newSchedulerService(t, notifier), nil)
	rs.CheckInterval = time.Hour
	rs.Today = func() generic.TimePoint { return generic.NewTimePoint(2024, 5, 1) }

	rs.Start()
	assert.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 10*time.Millisecond)
	rs.Stop()

	assert.Equal(t, 1, notifier.count())
}

func TestReminderScheduler_DisabledDoesNotRun(t *testing.T) {
	notifier := &countingNotifier{}
	rs := NewReminderScheduler(newSchedulerService(t, notifier), nil)
	rs.Enabled = false

	rs.Start()
	rs.Stop()

	assert.Zero(t, notifier.count())
}
