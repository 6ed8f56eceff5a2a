package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ratingColumns = `id, user_id, recording_id, rating, created_at, updated_at`

func scanRating(row pgx.Row) (*Rating, error) {
	r := &Rating{}
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.RecordingID,
		&r.Rating,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpsertRating keeps at most one rating per (recording, user).
// A concurrent second insert lands in the ON CONFLICT branch and
// overwrites the value instead of failing.
func (s *PostgresStore) UpsertRating(ctx context.Context, r *Rating) (bool, error) {
	query := `
		INSERT INTO ratings (id, user_id, recording_id, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (recording_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	var inserted bool
	err := s.db.QueryRow(ctx, query, r.ID, r.UserID, r.RecordingID, r.Rating).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert rating: %w", err)
	}

	return inserted, nil
}

// GetRatingByID retrieves a rating
func (s *PostgresStore) GetRatingByID(ctx context.Context, id uuid.UUID) (*Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE id = $1`

	r, err := scanRating(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}

	return r, nil
}

// GetUserRating retrieves the rating a user gave a recording
func (s *PostgresStore) GetUserRating(ctx context.Context, recordingID, userID uuid.UUID) (*Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE recording_id = $1 AND user_id = $2`

	r, err := scanRating(s.db.QueryRow(ctx, query, recordingID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user rating: %w", err)
	}

	return r, nil
}

// ListRatingsByRecording returns all ratings of a recording
func (s *PostgresStore) ListRatingsByRecording(ctx context.Context, recordingID uuid.UUID) ([]*Rating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM ratings
		WHERE recording_id = $1
		ORDER BY created_at, id
	`

	rows, err := s.db.Query(ctx, query, recordingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	ratings := []*Rating{}
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}

// DeleteRating removes a rating
func (s *PostgresStore) DeleteRating(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM ratings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}

	return rowsAffected(result)
}

// DeleteRatingsByRecording removes all ratings of a recording
func (s *PostgresStore) DeleteRatingsByRecording(ctx context.Context, recordingID uuid.UUID) (int64, error) {
	result, err := s.db.Exec(ctx, `DELETE FROM ratings WHERE recording_id = $1`, recordingID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete ratings: %w", err)
	}

	return result.RowsAffected(), nil
}
