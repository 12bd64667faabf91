// Package notification delivers workflow notifications outside the in-app feed.
package notification

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
)

// LogSender writes each notification to the structured log
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the notification
func (s *LogSender) Send(ctx context.Context, n entity.Notification) error {
	s.logger.Info("Notification",
		zap.String("notification_id", n.ID),
		zap.String("type", string(n.Type)),
		zap.String("invoice_id", n.InvoiceID),
		zap.String("target_role", n.TargetRole),
		zap.String("message", n.Message))
	return nil
}

// Fanout delivers to every sender and joins their errors
type Fanout []port.NotificationSender

// Send delivers n to each sender in turn
func (f Fanout) Send(ctx context.Context, n entity.Notification) error {
	var errs []error
	for _, s := range f {
		if err := s.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ port.NotificationSender = (*LogSender)(nil)
	_ port.NotificationSender = Fanout(nil)
)
