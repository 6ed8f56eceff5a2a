package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/db"
)

// Rate sets the caller's score for a recording. A second call by the same
// user overwrites the first one instead of adding another rating.
// Only the first rating notifies the owner; re-rating updates silently.
func (s *Service) Rate(ctx context.Context, actorID, recordingID uuid.UUID, value int) (*db.Rating, error) {
	if err := validateRating(value); err != nil {
		return nil, err
	}

	rec, err := s.store.GetRecordingByID(ctx, recordingID)
	if err != nil {
		return nil, notFound(err, "recording")
	}

	r := &db.Rating{
		UserID:      actorID,
		RecordingID: recordingID,
		Rating:      value,
	}

	inserted, err := s.store.UpsertRating(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}

	if _, err := s.maintainer.RecomputeRatings(ctx, recordingID); err != nil {
		return nil, err
	}

	if inserted && rec.UserID != actorID {
		s.notifier.Notify(ctx, rec.UserID, &db.Notification{
			Kind:  db.NotificationRating,
			Actor: s.actor(ctx, actorID),
			Rating: &db.RatingEvent{
				RecordingID:    rec.ID,
				RecordingTitle: rec.Title,
				Rating:         value,
			},
		})
	}

	return r, nil
}

// MyRating returns the caller's rating of a recording
func (s *Service) MyRating(ctx context.Context, actorID, recordingID uuid.UUID) (*db.Rating, error) {
	if _, err := s.store.GetRecordingByID(ctx, recordingID); err != nil {
		return nil, notFound(err, "recording")
	}

	r, err := s.store.GetUserRating(ctx, recordingID, actorID)
	if err != nil {
		return nil, notFound(err, "rating")
	}
	return r, nil
}

func (s *Service) ListRatings(ctx context.Context, recordingID uuid.UUID) ([]*db.Rating, error) {
	if _, err := s.store.GetRecordingByID(ctx, recordingID); err != nil {
		return nil, notFound(err, "recording")
	}
	return s.store.ListRatingsByRecording(ctx, recordingID)
}

func (s *Service) DeleteRating(ctx context.Context, actorID, id uuid.UUID) error {
	return s.cascade.DeleteRating(ctx, actorID, id)
}
