/*
scheduler.go - Automated expiry reminder scheduler

PURPOSE:
  Periodically sends reminders for vacation periods that expire within the
  policy's lead time and still have days available.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Processes each calendar date at most once per process, so an interval
    shorter than a day does not repeat reminders
  - Delivery and audit go through timeoff.Service.SendReminders

CONFIGURATION:
  - CheckInterval: How often to check (default: 24 hours)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReminderScheduler(service, metrics)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - timeoff/reminders.go: DueReminders and SendReminders
  - cmd/server/main.go: "reminders" subcommand (one-off run)
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/logger"
	"github.com/warp/vacation-engine/timeoff"
)

// ReminderScheduler sends expiry reminders on a ticker.
type ReminderScheduler struct {
	Service       *timeoff.Service
	Metrics       *Metrics
	CheckInterval time.Duration
	Enabled       bool

	// Today returns the date to process. Defaults to generic.Today.
	Today func() generic.TimePoint

	ticker  *time.Ticker
	stop    chan bool
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun generic.TimePoint
}

// NewReminderScheduler creates a new scheduler.
func NewReminderScheduler(svc *timeoff.Service, metrics *Metrics) *ReminderScheduler {
	return &ReminderScheduler{
		Service:       svc,
		Metrics:       metrics,
		CheckInterval: 24 * time.Hour,
		Enabled:       true,
		Today:         generic.Today,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *ReminderScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	log := logger.LoggerWrapper()
	if !rs.Enabled {
		log.Info("reminder scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	log.Info("reminder scheduler started", "interval", rs.CheckInterval.String())
}

// Stop stops the scheduler and waits for an in-flight run.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		logger.LoggerWrapper().Info("reminder scheduler stopped")
	}
}

func (rs *ReminderScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndProcess()

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndProcess()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReminderScheduler) checkAndProcess() {
	today := rs.Today()
	if !rs.lastRun.IsZero() && rs.lastRun.Equal(today) {
		return
	}
	if _, err := rs.RunNow(context.Background(), today); err != nil {
		return
	}
	rs.lastRun = today
}

// RunNow sends the reminders due on date, regardless of earlier runs.
func (rs *ReminderScheduler) RunNow(ctx context.Context, date generic.TimePoint) (int, error) {
	ctx = logger.With(ctx, "component", "reminder_scheduler", "date", date.String())

	sent, err := rs.Service.SendReminders(ctx, date)
	rs.Metrics.ObserveReminders(sent)
	if err != nil {
		logger.From(ctx).Error("reminder run failed", "sent", sent, "error", err)
		return sent, err
	}
	if sent > 0 {
		logger.From(ctx).Info("reminder run completed", "sent", sent)
	}
	return sent, nil
}

// NextRunTime returns when the next scheduled check will occur.
func (rs *ReminderScheduler) NextRunTime() time.Time {
	return time.Now().Add(rs.CheckInterval)
}
