package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const questionColumns = `
	id, user_id, title, text_question, voice_question,
	answers_quantity, active, created_at, updated_at
`

func scanQuestion(row pgx.Row) (*Question, error) {
	q := &Question{}
	err := row.Scan(
		&q.ID,
		&q.UserID,
		&q.Title,
		&q.TextQuestion,
		&q.VoiceQuestion,
		&q.AnswersQuantity,
		&q.Active,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// CreateQuestion inserts an active question with no answers
func (s *PostgresStore) CreateQuestion(ctx context.Context, q *Question) error {
	query := `
		INSERT INTO questions (
			id, user_id, title, text_question, voice_question,
			answers_quantity, active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, 0, TRUE, $6, $6)
	`

	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	now := time.Now().UTC()

	_, err := s.db.Exec(ctx, query, q.ID, q.UserID, q.Title, q.TextQuestion, q.VoiceQuestion, now)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	q.Active = true
	q.AnswersQuantity = 0
	q.CreatedAt = now
	q.UpdatedAt = now

	return nil
}

// GetQuestionByID retrieves an active question
func (s *PostgresStore) GetQuestionByID(ctx context.Context, id uuid.UUID) (*Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1 AND active`

	q, err := scanQuestion(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	return q, nil
}

// ListQuestions returns active questions, newest first
func (s *PostgresStore) ListQuestions(ctx context.Context, filter ListFilter) ([]*Question, error) {
	page := filter.Page.Normalize()

	query := `
		SELECT ` + questionColumns + `
		FROM questions
		WHERE active AND ($1::uuid IS NULL OR user_id = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.Query(ctx, query, filter.UserID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []*Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return questions, nil
}

// UpdateQuestion writes the content fields of an active question
func (s *PostgresStore) UpdateQuestion(ctx context.Context, q *Question) error {
	query := `
		UPDATE questions
		SET title = $2, text_question = $3, voice_question = $4, updated_at = now()
		WHERE id = $1 AND active
		RETURNING updated_at
	`

	err := s.db.QueryRow(ctx, query, q.ID, q.Title, q.TextQuestion, q.VoiceQuestion).Scan(&q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update question: %w", err)
	}

	return nil
}

// DeleteQuestion removes the question row
func (s *PostgresStore) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	return rowsAffected(result)
}

// DeactivateQuestionsByUser soft deletes every question of a user
func (s *PostgresStore) DeactivateQuestionsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `UPDATE questions SET active = FALSE, updated_at = now() WHERE user_id = $1 AND active`

	result, err := s.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate questions: %w", err)
	}

	return result.RowsAffected(), nil
}

func (s *PostgresStore) RecomputeQuestionAnswers(ctx context.Context, id uuid.UUID) (int, error) {
	var count int

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var locked uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM questions WHERE id = $1 FOR NO KEY UPDATE`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock question: %w", err)
		}

		err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM answers WHERE question_id = $1`, id).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count answers: %w", err)
		}

		_, err = tx.Exec(ctx, `UPDATE questions SET answers_quantity = $2 WHERE id = $1`, id, count)
		if err != nil {
			return fmt.Errorf("failed to store answers aggregate: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}
