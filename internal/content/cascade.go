package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/db"
	"github.com/rx3lixir/golos/pkg/s3storage"
)

// Cascade owns every destructive operation. Each delete walks
// authorize -> collect children -> drop blobs -> delete rows -> recompute.
// The steps are not one transaction: blob cleanup is best effort, and row
// deletion is idempotent per id so a failed cascade can be retried.
type Cascade struct {
	store      db.Store
	blobs      *blobManager
	maintainer *Maintainer
	users      *UserCache
	log        *log.Logger
}

func NewCascade(store db.Store, blobs *blobManager, maintainer *Maintainer, users *UserCache, logger *log.Logger) *Cascade {
	return &Cascade{
		store:      store,
		blobs:      blobs,
		maintainer: maintainer,
		users:      users,
		log:        logger.With("component", "cascade"),
	}
}

// DeleteRecording removes a recording with its comments, ratings and blobs
func (c *Cascade) DeleteRecording(ctx context.Context, actorID, recordingID uuid.UUID) error {
	rec, err := c.store.GetRecordingByID(ctx, recordingID)
	if err != nil {
		return notFound(err, "recording")
	}
	if rec.UserID != actorID {
		return NewAuthorizationError()
	}

	comments, err := c.store.ListCommentsByRecording(ctx, recordingID)
	if err != nil {
		return fmt.Errorf("failed to collect comments: %w", err)
	}

	for _, cm := range comments {
		c.blobs.drop(ctx, s3storage.KindVoice, cm.VoiceComment)
	}
	c.blobs.drop(ctx, s3storage.KindRecording, rec.Audio)

	var errs []error
	removedComments, err := c.store.DeleteCommentsByRecording(ctx, recordingID)
	if err != nil {
		errs = append(errs, err)
	}
	removedRatings, err := c.store.DeleteRatingsByRecording(ctx, recordingID)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to delete recording %s: %w", recordingID, errors.Join(errs...))
	}

	if err := c.store.DeleteRecording(ctx, recordingID); err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("failed to delete recording %s: %w", recordingID, err)
	}

	c.log.Info("Recording deleted",
		"recording_id", recordingID,
		"comments", removedComments,
		"ratings", removedRatings,
	)
	return nil
}

// DeleteQuestion removes a question with its answers and blobs
func (c *Cascade) DeleteQuestion(ctx context.Context, actorID, questionID uuid.UUID) error {
	q, err := c.store.GetQuestionByID(ctx, questionID)
	if err != nil {
		return notFound(err, "question")
	}
	if q.UserID != actorID {
		return NewAuthorizationError()
	}

	answers, err := c.store.ListAnswersByQuestion(ctx, questionID)
	if err != nil {
		return fmt.Errorf("failed to collect answers: %w", err)
	}

	for _, a := range answers {
		c.blobs.drop(ctx, s3storage.KindVoice, a.VoiceAnswer)
	}
	c.blobs.drop(ctx, s3storage.KindVoice, q.VoiceQuestion)

	removedAnswers, err := c.store.DeleteAnswersByQuestion(ctx, questionID)
	if err != nil {
		return fmt.Errorf("failed to delete question %s: %w", questionID, err)
	}

	if err := c.store.DeleteQuestion(ctx, questionID); err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("failed to delete question %s: %w", questionID, err)
	}

	c.log.Info("Question deleted", "question_id", questionID, "answers", removedAnswers)
	return nil
}

// DeleteComment can be done by the comment's author or the recording's owner
func (c *Cascade) DeleteComment(ctx context.Context, actorID, commentID uuid.UUID) error {
	cm, err := c.store.GetCommentByID(ctx, commentID)
	if err != nil {
		return notFound(err, "comment")
	}

	if cm.UserID != actorID {
		rec, err := c.store.GetRecordingByID(ctx, cm.RecordingID)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("failed to load recording: %w", err)
		}
		if rec == nil || rec.UserID != actorID {
			return NewAuthorizationError()
		}
	}

	c.blobs.drop(ctx, s3storage.KindVoice, cm.VoiceComment)

	if err := c.store.DeleteComment(ctx, commentID); err != nil {
		return notFound(err, "comment")
	}

	_, err = c.maintainer.RecomputeComments(ctx, cm.RecordingID)
	return c.settle(err)
}

// DeleteRating removes the caller's own rating
func (c *Cascade) DeleteRating(ctx context.Context, actorID, ratingID uuid.UUID) error {
	r, err := c.store.GetRatingByID(ctx, ratingID)
	if err != nil {
		return notFound(err, "rating")
	}
	if r.UserID != actorID {
		return NewAuthorizationError()
	}

	if err := c.store.DeleteRating(ctx, ratingID); err != nil {
		return notFound(err, "rating")
	}

	_, err = c.maintainer.RecomputeRatings(ctx, r.RecordingID)
	return c.settle(err)
}

// DeleteAnswer removes the caller's own answer
func (c *Cascade) DeleteAnswer(ctx context.Context, actorID, answerID uuid.UUID) error {
	a, err := c.store.GetAnswerByID(ctx, answerID)
	if err != nil {
		return notFound(err, "answer")
	}
	if a.UserID != actorID {
		return NewAuthorizationError()
	}

	c.blobs.drop(ctx, s3storage.KindVoice, a.VoiceAnswer)

	if err := c.store.DeleteAnswer(ctx, answerID); err != nil {
		return notFound(err, "answer")
	}

	_, err = c.maintainer.RecomputeAnswers(ctx, a.QuestionID)
	return c.settle(err)
}

// DeactivateUser soft deletes the caller together with their recordings and
// questions. Comments, ratings and answers they wrote elsewhere stay and keep
// counting towards other users' aggregates.
// The user row goes last: while it is active the caller can still sign in
// and retry a partially failed deactivation.
func (c *Cascade) DeactivateUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID != userID {
		return NewAuthorizationError()
	}

	var errs []error
	recordings, err := c.store.DeactivateRecordingsByUser(ctx, userID)
	if err != nil {
		errs = append(errs, err)
	}
	questions, err := c.store.DeactivateQuestionsByUser(ctx, userID)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to deactivate content of user %s: %w", userID, errors.Join(errs...))
	}

	if err := c.store.DeactivateUser(ctx, userID); err != nil {
		return notFound(err, "user")
	}
	c.users.Invalidate(userID)

	c.log.Info("User deactivated",
		"user_id", userID,
		"recordings", recordings,
		"questions", questions,
	)
	return nil
}

// settle ignores a recomputation whose parent is already gone
func (c *Cascade) settle(err error) error {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nil
	}
	return err
}
