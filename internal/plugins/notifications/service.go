package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// Notifier is the slice of the service other plugins use to fan out alerts.
type Notifier interface {
	CreateForUsers(ctx context.Context, userIDs []string, expertFormID, message string) error
}

// NotificationService handles business logic for notifications.
type NotificationService interface {
	Notifier

	List(ctx context.Context, userID string) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)

	// Subscribe opens the live feed for a user. Callers must Close it.
	Subscribe(ctx context.Context, userID string) *redis.PubSub
}

// notificationService implements NotificationService.
type notificationService struct {
	repo  NotificationRepository
	redis redis.UniversalClient
	now   func() time.Time
}

// NewNotificationService creates a new notification service.
func NewNotificationService(repo NotificationRepository, rdb redis.UniversalClient) NotificationService {
	return &notificationService{repo: repo, redis: rdb, now: time.Now}
}

// CreateForUsers stores one notification per user, then publishes each on
// the user's channel. Publish failures are logged; the rows remain.
func (s *notificationService) CreateForUsers(ctx context.Context, userIDs []string, expertFormID, message string) error {
	if len(userIDs) == 0 {
		return nil
	}

	var formID *string
	if expertFormID != "" {
		formID = &expertFormID
	}
	now := s.now().UTC()
	items := make([]Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		items = append(items, Notification{
			ID:           uuid.New().String(),
			UserID:       userID,
			ExpertFormID: formID,
			Message:      message,
			CreatedAt:    now,
		})
	}

	if err := s.repo.CreateMany(ctx, items); err != nil {
		return apperror.NewInternal(err)
	}

	for _, n := range items {
		payload, err := json.Marshal(n)
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("encoding notification: %w", err))
		}
		if err := s.redis.Publish(ctx, channelFor(n.UserID), payload).Err(); err != nil {
			slog.Warn("publishing notification failed",
				slog.String("user_id", n.UserID),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// List returns a user's notifications, newest first.
func (s *notificationService) List(ctx context.Context, userID string) ([]Notification, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return items, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return apperror.NewNotFound("Notification not found")
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

// Delete removes one of the user's notifications.
func (s *notificationService) Delete(ctx context.Context, id, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}

// UnreadCount returns the user's unread total.
func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperror.NewInternal(err)
	}
	return n, nil
}

// Subscribe opens the user's pub/sub channel.
func (s *notificationService) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return s.redis.Subscribe(ctx, channelFor(userID))
}
