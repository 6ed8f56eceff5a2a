package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const answerColumns = `id, user_id, question_id, text_answer, voice_answer, created_at, updated_at`

func scanAnswer(row pgx.Row) (*Answer, error) {
	a := &Answer{}
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.QuestionID,
		&a.TextAnswer,
		&a.VoiceAnswer,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAnswer inserts an answer
func (s *PostgresStore) CreateAnswer(ctx context.Context, a *Answer) error {
	query := `
		INSERT INTO answers (id, user_id, question_id, text_answer, voice_answer, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()

	_, err := s.db.Exec(ctx, query, a.ID, a.UserID, a.QuestionID, a.TextAnswer, a.VoiceAnswer, now)
	if err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}

	a.CreatedAt = now
	a.UpdatedAt = now

	return nil
}

// GetAnswerByID retrieves an answer
func (s *PostgresStore) GetAnswerByID(ctx context.Context, id uuid.UUID) (*Answer, error) {
	query := `SELECT ` + answerColumns + ` FROM answers WHERE id = $1`

	a, err := scanAnswer(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	return a, nil
}

// ListAnswersByQuestion returns every answer of a question, oldest first
func (s *PostgresStore) ListAnswersByQuestion(ctx context.Context, questionID uuid.UUID) ([]*Answer, error) {
	query := `
		SELECT ` + answerColumns + `
		FROM answers
		WHERE question_id = $1
		ORDER BY created_at, id
	`

	rows, err := s.db.Query(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	answers := []*Answer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answers: %w", err)
	}

	return answers, nil
}

// UpdateAnswer writes the content fields of an answer
func (s *PostgresStore) UpdateAnswer(ctx context.Context, a *Answer) error {
	query := `
		UPDATE answers
		SET text_answer = $2, voice_answer = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := s.db.QueryRow(ctx, query, a.ID, a.TextAnswer, a.VoiceAnswer).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update answer: %w", err)
	}

	return nil
}

// DeleteAnswer removes an answer
func (s *PostgresStore) DeleteAnswer(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM answers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}

	return rowsAffected(result)
}

// DeleteAnswersByQuestion removes all answers of a question
func (s *PostgresStore) DeleteAnswersByQuestion(ctx context.Context, questionID uuid.UUID) (int64, error) {
	result, err := s.db.Exec(ctx, `DELETE FROM answers WHERE question_id = $1`, questionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete answers: %w", err)
	}

	return result.RowsAffected(), nil
}
