package notifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// NotificationRepository defines the data access contract for notifications.
type NotificationRepository interface {
	// CreateMany inserts all notifications in one transaction.
	CreateMany(ctx context.Context, items []Notification) error
	FindByID(ctx context.Context, id string) (*Notification, error)
	ListByUser(ctx context.Context, userID string) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

// notificationRepository implements NotificationRepository with MariaDB queries.
type notificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// CreateMany inserts a batch of notifications.
func (r *notificationRepository) CreateMany(ctx context.Context, items []Notification) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, n := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notifications (id, user_id, expert_form_id, message, is_read, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			n.ID, n.UserID, n.ExpertFormID, n.Message, n.IsRead, n.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing notifications: %w", err)
	}
	return nil
}

const notificationColumns = `id, user_id, expert_form_id, message, is_read, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(s rowScanner) (*Notification, error) {
	n := &Notification{}
	var formID sql.NullString
	if err := s.Scan(&n.ID, &n.UserID, &formID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	if formID.Valid {
		n.ExpertFormID = &formID.String
	}
	return n, nil
}

// FindByID retrieves a notification.
func (r *notificationRepository) FindByID(ctx context.Context, id string) (*Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Notification not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying notification: %w", err)
	}
	return n, nil
}

// ListByUser returns a user's notifications, newest first.
func (r *notificationRepository) ListByUser(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	items := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		items = append(items, *n)
	}
	return items, rows.Err()
}

// MarkRead flags a notification as read. Marking twice is not an error.
func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = ?`, id); err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}

// Delete removes a notification owned by userID.
func (r *notificationRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NewNotFound("Notification not found")
	}
	return nil
}

// CountUnread returns how many of a user's notifications are unread.
func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}
