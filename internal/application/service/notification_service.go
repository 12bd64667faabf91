package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/workflow"
)

// NotificationService delivers and lists workflow notifications
type NotificationService interface {
	// Dispatch delivers notifications already stored in the feed. Delivery
	// failures are logged, never returned.
	Dispatch(ctx context.Context, notifications []entity.Notification)
	List(ctx context.Context, role string, limit int) ([]entity.Notification, error)
	// RemindStale emits a reminder for every in-flight invoice whose active
	// step has waited longer than staleAfter. An invoice is reminded again
	// only after a further staleAfter without a decision.
	RemindStale(ctx context.Context, staleAfter time.Duration) (int, error)
}

type notificationServiceImpl struct {
	invoiceRepo      port.InvoiceRepository
	notificationRepo port.NotificationRepository
	sender           port.NotificationSender
	txManager        port.TransactionManager
	engine           *workflow.Engine
	now              func() time.Time
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	invoiceRepo port.InvoiceRepository,
	notificationRepo port.NotificationRepository,
	sender port.NotificationSender,
	txManager port.TransactionManager,
	engine *workflow.Engine,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		invoiceRepo:      invoiceRepo,
		notificationRepo: notificationRepo,
		sender:           sender,
		txManager:        txManager,
		engine:           engine,
		now:              time.Now,
		logger:           logger,
	}
}

// Dispatch sends each notification through the configured sender
func (s *notificationServiceImpl) Dispatch(ctx context.Context, notifications []entity.Notification) {
	for _, n := range notifications {
		if err := s.sender.Send(ctx, n); err != nil {
			s.logger.Error("Failed to deliver notification",
				"error", err,
				"notification_id", n.ID,
				"invoice_id", n.InvoiceID,
				"target_role", n.TargetRole)
		}
	}
}

// List returns the newest notifications for role
func (s *notificationServiceImpl) List(ctx context.Context, role string, limit int) ([]entity.Notification, error) {
	notifications, err := s.notificationRepo.List(ctx, role, limit)
	if err != nil {
		s.logger.Error("Failed to list notifications", "error", err, "role", role)
		return nil, err
	}
	return notifications, nil
}

// RemindStale scans in-flight invoices for active steps older than staleAfter
func (s *notificationServiceImpl) RemindStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	now := s.now()
	cutoff := now.Add(-staleAfter)

	var reminders []entity.Notification
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		reminders = nil

		invoices, err := s.invoiceRepo.List(txCtx, port.InvoiceFilter{})
		if err != nil {
			return fmt.Errorf("list invoices: %w", err)
		}

		for _, inv := range invoices {
			activatedAt, ok := staleSince(inv, cutoff)
			if !ok {
				continue
			}

			reminders = append(reminders, s.engine.Reminder(inv, activatedAt))
			remindedAt := now
			inv.RemindedAt = &remindedAt
			if err := s.invoiceRepo.Update(txCtx, inv); err != nil {
				return fmt.Errorf("mark invoice %s reminded: %w", inv.ID, err)
			}
		}

		if len(reminders) == 0 {
			return nil
		}
		return s.notificationRepo.Append(txCtx, reminders...)
	})
	if err != nil {
		s.logger.Error("Failed to store reminders", "error", err)
		return 0, err
	}
	if len(reminders) == 0 {
		return 0, nil
	}

	s.Dispatch(ctx, reminders)

	s.logger.Info("Stale approval reminders sent", "count", len(reminders))
	return len(reminders), nil
}

// staleSince returns when inv's active step was activated if that step has
// waited past cutoff and no reminder went out since cutoff for it.
func staleSince(inv *entity.Invoice, cutoff time.Time) (time.Time, bool) {
	if inv.Status.IsTerminal() || inv.CurrentStepID == nil {
		return time.Time{}, false
	}
	active, ok := inv.HistoryFor(inv.CurrentStep())
	if !ok || active.Status != entity.StepStatusActive || active.Timestamp == nil {
		return time.Time{}, false
	}
	if active.Timestamp.After(cutoff) {
		return time.Time{}, false
	}
	if r := inv.RemindedAt; r != nil && !r.Before(*active.Timestamp) && r.After(cutoff) {
		return time.Time{}, false
	}
	return *active.Timestamp, true
}
