package content

import (
	"context"
	"errors"
	"math"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/db"
)

const (
	aggregateRatings  = "ratings"
	aggregateComments = "comments"
	aggregateAnswers  = "answers"
)

// SummarizeRatings derives the ratings aggregate from the totals.
// No ratings means the recording falls back to the neutral default score.
func SummarizeRatings(stats db.RatingStats) db.RatingSummary {
	if stats.Count <= 0 {
		return db.RatingSummary{Quantity: 0, Average: DefaultRatingAverage}
	}

	avg := math.Round(float64(stats.Sum) / float64(stats.Count))
	return db.RatingSummary{Quantity: stats.Count, Average: int(avg)}
}

// Maintainer recomputes derived counters from their source rows. Every
// recomputation re-aggregates all children under a parent row lock, so
// concurrent writers converge on the true value.
type Maintainer struct {
	store db.Store
	log   *log.Logger
}

func NewMaintainer(store db.Store, logger *log.Logger) *Maintainer {
	return &Maintainer{
		store: store,
		log:   logger.With("component", "aggregate"),
	}
}

// RecomputeRatings refreshes ratingsQuantity and ratingsAverage of a recording
func (m *Maintainer) RecomputeRatings(ctx context.Context, recordingID uuid.UUID) (db.RatingSummary, error) {
	summary, err := m.store.RecomputeRecordingRatings(ctx, recordingID, SummarizeRatings)
	if err != nil {
		return db.RatingSummary{}, m.fail(aggregateRatings, "recording", recordingID, err)
	}

	m.log.Debug("Ratings recomputed",
		"recording_id", recordingID,
		"quantity", summary.Quantity,
		"average", summary.Average,
	)
	return summary, nil
}

// RecomputeComments refreshes commentsQuantity of a recording
func (m *Maintainer) RecomputeComments(ctx context.Context, recordingID uuid.UUID) (int, error) {
	count, err := m.store.RecomputeRecordingComments(ctx, recordingID)
	if err != nil {
		return 0, m.fail(aggregateComments, "recording", recordingID, err)
	}

	m.log.Debug("Comments recomputed", "recording_id", recordingID, "quantity", count)
	return count, nil
}

// RecomputeAnswers refreshes answersQuantity of a question
func (m *Maintainer) RecomputeAnswers(ctx context.Context, questionID uuid.UUID) (int, error) {
	count, err := m.store.RecomputeQuestionAnswers(ctx, questionID)
	if err != nil {
		return 0, m.fail(aggregateAnswers, "question", questionID, err)
	}

	m.log.Debug("Answers recomputed", "question_id", questionID, "quantity", count)
	return count, nil
}

func (m *Maintainer) fail(aggregate, parent string, parentID uuid.UUID, err error) error {
	// The parent vanished, there is nothing left to keep in sync
	if errors.Is(err, db.ErrNotFound) {
		return NewNotFoundError(parent)
	}

	aggregateFailuresTotal.WithLabelValues(aggregate).Inc()
	m.log.Error("Aggregate recomputation failed",
		"aggregate", aggregate,
		"parent", parent,
		"parent_id", parentID,
		"error", err,
	)

	return &AggregateError{Aggregate: aggregate, ParentID: parentID.String(), Err: err}
}
