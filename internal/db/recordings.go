package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const recordingColumns = `
	id, user_id, title, description, audio, active,
	ratings_average, ratings_quantity, comments_quantity,
	created_at, updated_at
`

func scanRecording(row pgx.Row) (*Recording, error) {
	r := &Recording{}
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.Description,
		&r.Audio,
		&r.Active,
		&r.RatingsAverage,
		&r.RatingsQuantity,
		&r.CommentsQuantity,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateRecording inserts a recording with neutral aggregates
func (s *PostgresStore) CreateRecording(ctx context.Context, rec *Recording) error {
	query := `
		INSERT INTO recordings (
			id, user_id, title, description, audio, active,
			ratings_average, ratings_quantity, comments_quantity,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, 0, 0, $7, $7)
	`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()

	_, err := s.db.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Title,
		rec.Description,
		rec.Audio,
		rec.RatingsAverage,
		now,
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("opration cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to create recording: %w", err)
	}

	rec.Active = true
	rec.RatingsQuantity = 0
	rec.CommentsQuantity = 0
	rec.CreatedAt = now
	rec.UpdatedAt = now

	return nil
}

// GetRecordingByID retrieves an active recording
func (s *PostgresStore) GetRecordingByID(ctx context.Context, id uuid.UUID) (*Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings WHERE id = $1 AND active`

	rec, err := scanRecording(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recording: %w", err)
	}

	return rec, nil
}

// ListRecordings returns active recordings, newest first
func (s *PostgresStore) ListRecordings(ctx context.Context, filter ListFilter) ([]*Recording, error) {
	page := filter.Page.Normalize()

	query := `
		SELECT ` + recordingColumns + `
		FROM recordings
		WHERE active AND ($1::uuid IS NULL OR user_id = $1)
		ORDER BY ` + filter.Sort.orderBy() + `
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.Query(ctx, query, filter.UserID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer rows.Close()

	recordings := []*Recording{}
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recording: %w", err)
		}
		recordings = append(recordings, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recordings: %w", err)
	}

	return recordings, nil
}

// UpdateRecording writes title and description of an active recording
func (s *PostgresStore) UpdateRecording(ctx context.Context, rec *Recording) error {
	query := `
		UPDATE recordings
		SET title = $2, description = $3, updated_at = now()
		WHERE id = $1 AND active
		RETURNING updated_at
	`

	err := s.db.QueryRow(ctx, query, rec.ID, rec.Title, rec.Description).Scan(&rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update recording: %w", err)
	}

	return nil
}

// DeleteRecording removes the recording row
func (s *PostgresStore) DeleteRecording(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM recordings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}

	return rowsAffected(result)
}

// DeactivateRecordingsByUser soft deletes every recording of a user
func (s *PostgresStore) DeactivateRecordingsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `UPDATE recordings SET active = FALSE, updated_at = now() WHERE user_id = $1 AND active`

	result, err := s.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate recordings: %w", err)
	}

	return result.RowsAffected(), nil
}

// lockRecording takes a row lock that serializes aggregate writers without
// blocking rating or comment inserts referencing the row.
func lockRecording(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM recordings WHERE id = $1 FOR NO KEY UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to lock recording: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecomputeRecordingRatings(
	ctx context.Context,
	id uuid.UUID,
	summarize func(RatingStats) RatingSummary,
) (RatingSummary, error) {
	var summary RatingSummary

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := lockRecording(ctx, tx, id); err != nil {
			return err
		}

		var stats RatingStats
		err := tx.QueryRow(ctx,
			`SELECT COUNT(*), COALESCE(SUM(rating), 0) FROM ratings WHERE recording_id = $1`,
			id,
		).Scan(&stats.Count, &stats.Sum)
		if err != nil {
			return fmt.Errorf("failed to aggregate ratings: %w", err)
		}

		summary = summarize(stats)

		_, err = tx.Exec(ctx,
			`UPDATE recordings SET ratings_quantity = $2, ratings_average = $3 WHERE id = $1`,
			id, summary.Quantity, summary.Average,
		)
		if err != nil {
			return fmt.Errorf("failed to store ratings aggregate: %w", err)
		}
		return nil
	})
	if err != nil {
		return RatingSummary{}, err
	}

	return summary, nil
}

func (s *PostgresStore) RecomputeRecordingComments(ctx context.Context, id uuid.UUID) (int, error) {
	var count int

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := lockRecording(ctx, tx, id); err != nil {
			return err
		}

		err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE recording_id = $1`, id).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count comments: %w", err)
		}

		_, err = tx.Exec(ctx, `UPDATE recordings SET comments_quantity = $2 WHERE id = $1`, id, count)
		if err != nil {
			return fmt.Errorf("failed to store comments aggregate: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}
