package port

import (
	"context"

	"github.com/garyjia/freight-audit/internal/domain/entity"
)

// NotificationSender delivers a notification to the people holding its target role
type NotificationSender interface {
	Send(ctx context.Context, notification entity.Notification) error
}
