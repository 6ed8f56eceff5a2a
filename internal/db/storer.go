package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no visible row matches
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique constraint violations
	ErrConflict = errors.New("record already exists")
)

// To abstract db methods from pgxpool api
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PostgresStore struct {
	db DBTX
}

func NewPostgresStore(pool DBTX) *PostgresStore {
	return &PostgresStore{
		db: pool,
	}
}

// Default reads of users, recordings and questions only see active rows.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	DeactivateUser(ctx context.Context, id uuid.UUID) error
}

type RecordingStore interface {
	CreateRecording(ctx context.Context, rec *Recording) error
	GetRecordingByID(ctx context.Context, id uuid.UUID) (*Recording, error)
	ListRecordings(ctx context.Context, filter ListFilter) ([]*Recording, error)
	UpdateRecording(ctx context.Context, rec *Recording) error
	DeleteRecording(ctx context.Context, id uuid.UUID) error
	DeactivateRecordingsByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// RecomputeRecordingRatings locks the recording, aggregates every rating
	// pointing at it and stores what summarize derives from the totals.
	RecomputeRecordingRatings(ctx context.Context, id uuid.UUID, summarize func(RatingStats) RatingSummary) (RatingSummary, error)
	// RecomputeRecordingComments locks the recording and stores its comment count.
	RecomputeRecordingComments(ctx context.Context, id uuid.UUID) (int, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, c *Comment) error
	GetCommentByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListCommentsByRecording(ctx context.Context, recordingID uuid.UUID) ([]*Comment, error)
	UpdateComment(ctx context.Context, c *Comment) error
	DeleteComment(ctx context.Context, id uuid.UUID) error
	DeleteCommentsByRecording(ctx context.Context, recordingID uuid.UUID) (int64, error)
}

type RatingStore interface {
	// UpsertRating inserts the rating or overwrites the value of the existing
	// (recording, user) pair. inserted reports which of the two happened.
	UpsertRating(ctx context.Context, r *Rating) (inserted bool, err error)
	GetRatingByID(ctx context.Context, id uuid.UUID) (*Rating, error)
	GetUserRating(ctx context.Context, recordingID, userID uuid.UUID) (*Rating, error)
	ListRatingsByRecording(ctx context.Context, recordingID uuid.UUID) ([]*Rating, error)
	DeleteRating(ctx context.Context, id uuid.UUID) error
	DeleteRatingsByRecording(ctx context.Context, recordingID uuid.UUID) (int64, error)
}

type QuestionStore interface {
	CreateQuestion(ctx context.Context, q *Question) error
	GetQuestionByID(ctx context.Context, id uuid.UUID) (*Question, error)
	ListQuestions(ctx context.Context, filter ListFilter) ([]*Question, error)
	UpdateQuestion(ctx context.Context, q *Question) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	DeactivateQuestionsByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// RecomputeQuestionAnswers locks the question and stores its answer count.
	RecomputeQuestionAnswers(ctx context.Context, id uuid.UUID) (int, error)
}

type AnswerStore interface {
	CreateAnswer(ctx context.Context, a *Answer) error
	GetAnswerByID(ctx context.Context, id uuid.UUID) (*Answer, error)
	ListAnswersByQuestion(ctx context.Context, questionID uuid.UUID) ([]*Answer, error)
	UpdateAnswer(ctx context.Context, a *Answer) error
	DeleteAnswer(ctx context.Context, id uuid.UUID) error
	DeleteAnswersByQuestion(ctx context.Context, questionID uuid.UUID) (int64, error)
}

type NotificationStore interface {
	// AppendNotification adds n to the end of the user's inbox and bumps
	// the unread counter in one step.
	AppendNotification(ctx context.Context, userID uuid.UUID, n *Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, page Page) ([]*Notification, error)
	MarkNotificationsRead(ctx context.Context, userID uuid.UUID) error
}

// Store is everything the content engine persists
type Store interface {
	UserStore
	RecordingStore
	CommentStore
	RatingStore
	QuestionStore
	AnswerStore
	NotificationStore
}

var _ Store = (*PostgresStore)(nil)

func CreatePostgresPool(parentCtx context.Context, dburl string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(parentCtx, time.Second*3)
	defer cancel()

	pool, err := pgxpool.New(ctx, dburl)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// rowsAffected turns a zero-row mutation into ErrNotFound
func rowsAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
