package contract

import (
	"context"
	"errors"

	"idealab-be/internal/model"

	"github.com/google/uuid"
)

// ErrNotificationNotFound is returned when a notification does not exist or
// belongs to someone else.
var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *model.Notification) error
	GetNotificationsByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	// MarkAsRead only touches a notification owned by userID.
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error

	GetNotificationTypeByCode(ctx context.Context, code string) (*model.NotificationType, error)
	UpsertNotificationType(ctx context.Context, notifType *model.NotificationType) error
	GetPreference(ctx context.Context, userID uuid.UUID) (*model.UserNotificationPreference, error)
}
