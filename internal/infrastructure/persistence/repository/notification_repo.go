package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
)

// maxNotifications bounds the stored feed; the oldest entries fall off
const maxNotifications = 1000

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	doc    document[[]entity.Notification]
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(store port.CollectionStore, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		doc:    document[[]entity.Notification]{store: store, key: port.CollectionNotifications, logger: logger},
		logger: logger,
	}
}

// Append adds notifications to the end of the feed
func (r *NotificationRepository) Append(ctx context.Context, notifications ...entity.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	feed, version, err := r.doc.load(ctx)
	if err != nil {
		return err
	}

	feed = append(feed, notifications...)
	if len(feed) > maxNotifications {
		feed = feed[len(feed)-maxNotifications:]
	}

	if err := r.doc.save(ctx, feed, version); err != nil {
		r.logger.Error("Failed to append notifications", zap.Int("count", len(notifications)), zap.Error(err))
		return fmt.Errorf("failed to append notifications: %w", err)
	}
	return nil
}

// List returns the newest notifications first. A non-empty role keeps only
// notifications targeted at that role or at nobody in particular.
func (r *NotificationRepository) List(ctx context.Context, role string, limit int) ([]entity.Notification, error) {
	feed, _, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]entity.Notification, 0)
	for i := len(feed) - 1; i >= 0; i-- {
		n := feed[i]
		if role != "" && n.TargetRole != "" && n.TargetRole != role {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
