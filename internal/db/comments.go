package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const commentColumns = `id, user_id, recording_id, text_comment, voice_comment, created_at, updated_at`

func scanComment(row pgx.Row) (*Comment, error) {
	c := &Comment{}
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.RecordingID,
		&c.TextComment,
		&c.VoiceComment,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateComment inserts a comment
func (s *PostgresStore) CreateComment(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (id, user_id, recording_id, text_comment, voice_comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()

	_, err := s.db.Exec(ctx, query, c.ID, c.UserID, c.RecordingID, c.TextComment, c.VoiceComment, now)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	c.CreatedAt = now
	c.UpdatedAt = now

	return nil
}

// GetCommentByID retrieves a comment. Comments have no visibility flag.
func (s *PostgresStore) GetCommentByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	c, err := scanComment(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return c, nil
}

// ListCommentsByRecording returns every comment of a recording, oldest first
func (s *PostgresStore) ListCommentsByRecording(ctx context.Context, recordingID uuid.UUID) ([]*Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE recording_id = $1
		ORDER BY created_at, id
	`

	rows, err := s.db.Query(ctx, query, recordingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

// UpdateComment writes the content fields of a comment
func (s *PostgresStore) UpdateComment(ctx context.Context, c *Comment) error {
	query := `
		UPDATE comments
		SET text_comment = $2, voice_comment = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := s.db.QueryRow(ctx, query, c.ID, c.TextComment, c.VoiceComment).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update comment: %w", err)
	}

	return nil
}

// DeleteComment removes a comment
func (s *PostgresStore) DeleteComment(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return rowsAffected(result)
}

// DeleteCommentsByRecording removes all comments of a recording
func (s *PostgresStore) DeleteCommentsByRecording(ctx context.Context, recordingID uuid.UUID) (int64, error) {
	result, err := s.db.Exec(ctx, `DELETE FROM comments WHERE recording_id = $1`, recordingID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}

	return result.RowsAffected(), nil
}
