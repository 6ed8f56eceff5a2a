package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/db"
	"github.com/rx3lixir/golos/pkg/s3storage"
)

type RecordingInput struct {
	Title       string
	Description string
	Audio       *Upload
}

// RecordingPatch holds the fields an update touches; nil means untouched
type RecordingPatch struct {
	Title       *string
	Description *string
}

// CreateRecording uploads the audio, then inserts the row. A failed insert
// removes the freshly uploaded blob.
func (s *Service) CreateRecording(ctx context.Context, actorID uuid.UUID, in RecordingInput) (*db.Recording, error) {
	if err := validateRecordingTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateRecordingDescription(in.Description); err != nil {
		return nil, err
	}
	if in.Audio == nil {
		return nil, NewValidationError("audio", "audio is required")
	}

	key, err := s.blobs.put(ctx, s3storage.KindRecording, "audio", in.Audio)
	if err != nil {
		return nil, err
	}

	rec := &db.Recording{
		UserID:         actorID,
		Title:          in.Title,
		Description:    in.Description,
		Audio:          key,
		RatingsAverage: DefaultRatingAverage,
	}

	if err := s.store.CreateRecording(ctx, rec); err != nil {
		s.blobs.drop(ctx, s3storage.KindRecording, key)
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	s.log.Info("Recording created", "recording_id", rec.ID, "user_id", actorID)

	s.notifier.NewPost(ctx, &Post{
		Kind:      PostRecording,
		ID:        rec.ID,
		UserID:    rec.UserID,
		Title:     rec.Title,
		CreatedAt: rec.CreatedAt,
	})

	return rec, nil
}

func (s *Service) GetRecording(ctx context.Context, id uuid.UUID) (*db.Recording, error) {
	rec, err := s.store.GetRecordingByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "recording")
	}
	return rec, nil
}

func (s *Service) ListRecordings(ctx context.Context, filter db.ListFilter) ([]*db.Recording, error) {
	if !filter.Sort.Valid() {
		return nil, NewValidationError("sort", "unknown sort order %q", filter.Sort)
	}
	return s.store.ListRecordings(ctx, filter)
}

func (s *Service) UpdateRecording(ctx context.Context, actorID, id uuid.UUID, patch RecordingPatch) (*db.Recording, error) {
	rec, err := s.store.GetRecordingByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "recording")
	}
	if rec.UserID != actorID {
		return nil, NewAuthorizationError()
	}

	if patch.Title != nil {
		if err := validateRecordingTitle(*patch.Title); err != nil {
			return nil, err
		}
		rec.Title = *patch.Title
	}
	if patch.Description != nil {
		if err := validateRecordingDescription(*patch.Description); err != nil {
			return nil, err
		}
		rec.Description = *patch.Description
	}

	if err := s.store.UpdateRecording(ctx, rec); err != nil {
		return nil, notFound(err, "recording")
	}

	return rec, nil
}

func (s *Service) DeleteRecording(ctx context.Context, actorID, id uuid.UUID) error {
	return s.cascade.DeleteRecording(ctx, actorID, id)
}

// OpenRecordingAudio streams the audio of a visible recording
func (s *Service) OpenRecordingAudio(ctx context.Context, id uuid.UUID) (*s3storage.Object, error) {
	rec, err := s.store.GetRecordingByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "recording")
	}
	return s.blobs.open(ctx, s3storage.KindRecording, rec.Audio)
}
