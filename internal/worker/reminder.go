package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reminder emits reminders for approvals that have waited too long
type Reminder interface {
	RemindStale(ctx context.Context, staleAfter time.Duration) (int, error)
}

// ReminderConfig controls the stale approval sweep
type ReminderConfig struct {
	Schedule   string        // standard five-field cron expression
	StaleAfter time.Duration // age of an active step before it is reminded
	Timeout    time.Duration // upper bound for one sweep
}

// ReminderWorker runs the stale approval sweep on a cron schedule
type ReminderWorker struct {
	reminder Reminder
	cfg      ReminderConfig
	logger   *zap.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewReminderWorker creates a new reminder worker
func NewReminderWorker(reminder Reminder, cfg ReminderConfig, logger *zap.Logger) *ReminderWorker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	return &ReminderWorker{
		reminder: reminder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start validates the schedule and begins the sweep
func (w *ReminderWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler != nil {
		return fmt.Errorf("reminder worker is already running")
	}
	if w.cfg.StaleAfter <= 0 {
		return fmt.Errorf("stale_after must be positive, got %s", w.cfg.StaleAfter)
	}
	if _, err := cron.ParseStandard(w.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", w.cfg.Schedule, err)
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(w.cfg.Schedule, func() { w.RunOnce(w.ctx) }); err != nil {
		w.cancel()
		return fmt.Errorf("schedule reminders: %w", err)
	}
	scheduler.Start()
	w.scheduler = scheduler

	w.logger.Info("Reminder worker started",
		zap.String("schedule", w.cfg.Schedule),
		zap.Duration("stale_after", w.cfg.StaleAfter))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (w *ReminderWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler == nil {
		return
	}

	w.cancel()
	<-w.scheduler.Stop().Done()
	w.scheduler = nil
}

// Name returns the worker name for identification
func (w *ReminderWorker) Name() string {
	return "ReminderWorker"
}

// RunOnce performs one sweep and returns the number of reminders sent
func (w *ReminderWorker) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	count, err := w.reminder.RemindStale(ctx, w.cfg.StaleAfter)
	if err != nil {
		w.logger.Error("Stale approval sweep failed", zap.Error(err))
		return 0
	}
	if count > 0 {
		w.logger.Info("Stale approval sweep completed", zap.Int("reminders", count))
	}
	return count
}
