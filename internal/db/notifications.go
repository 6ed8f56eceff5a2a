package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// notificationPayload is the JSONB body of an inbox row
type notificationPayload struct {
	Actor   Actor         `json:"actor"`
	Rating  *RatingEvent  `json:"rating,omitempty"`
	Comment *CommentEvent `json:"comment,omitempty"`
	Answer  *AnswerEvent  `json:"answer,omitempty"`
}

// AppendNotification inserts the inbox row and increments the unread
// counter in a single transaction
func (s *PostgresStore) AppendNotification(ctx context.Context, userID uuid.UUID, n *Notification) error {
	if err := n.Check(); err != nil {
		return err
	}

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(notificationPayload{
		Actor:   n.Actor,
		Rating:  n.Rating,
		Comment: n.Comment,
		Answer:  n.Answer,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx,
			`UPDATE users SET unread_notifications = unread_notifications + 1 WHERE id = $1`,
			userID,
		)
		if err != nil {
			return fmt.Errorf("failed to bump unread counter: %w", err)
		}
		if err := rowsAffected(result); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO notifications (id, user_id, kind, payload, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, n.ID, userID, string(n.Kind), payload, n.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}

		return nil
	})
}

// ListNotifications returns a user's inbox in insertion order
func (s *PostgresStore) ListNotifications(ctx context.Context, userID uuid.UUID, page Page) ([]*Notification, error) {
	page = page.Normalize()

	query := `
		SELECT id, kind, payload, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY seq
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.Query(ctx, query, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*Notification{}
	for rows.Next() {
		var (
			n       Notification
			kind    string
			payload []byte
			body    notificationPayload
		)

		if err := rows.Scan(&n.ID, &kind, &payload, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification %s: %w", n.ID, err)
		}

		n.Kind = NotificationKind(kind)
		n.Actor = body.Actor
		n.Rating = body.Rating
		n.Comment = body.Comment
		n.Answer = body.Answer

		notifications = append(notifications, &n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// MarkNotificationsRead resets the unread counter
func (s *PostgresStore) MarkNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		`UPDATE users SET unread_notifications = 0, updated_at = now() WHERE id = $1 AND active`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return rowsAffected(result)
}
