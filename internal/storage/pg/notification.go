package pg

import (
	"fmt"
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

func (s *Storage) CreateNotification(n domain.Notification) error {
	_, err := s.db.Exec(`
		INSERT INTO notifications (user_id, kind, title, body)
		VALUES ($1, $2, $3, $4)`,
		n.UserId, n.Kind, n.Title, n.Body)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *Storage) Notifications(userId domain.UserId, unreadOnly bool, page, limit int) ([]domain.Notification, int, error) {
	var total int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)`,
		userId, unreadOnly).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, kind, title, body, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		userId, unreadOnly, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var list []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.Id, &n.UserId, &n.Kind, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		list = append(list, n)
	}
	return list, total, rows.Err()
}

// MarkNotificationRead marks one of the user's own notifications as read.
func (s *Storage) MarkNotificationRead(id int64, userId domain.UserId) error {
	res, err := s.db.Exec(
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2",
		id, userId)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Benachrichtigung nicht gefunden", StatusCode: http.StatusNotFound}
	}
	return nil
}
