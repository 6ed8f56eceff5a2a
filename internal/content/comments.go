package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/db"
	"github.com/rx3lixir/golos/pkg/s3storage"
)

type CommentInput struct {
	Text  string
	Voice *Upload
}

// CommentPatch replaces the text, the voice, or drops the voice
type CommentPatch struct {
	Text        *string
	Voice       *Upload
	RemoveVoice bool
}

func (s *Service) CreateComment(ctx context.Context, actorID, recordingID uuid.UUID, in CommentInput) (*db.Comment, error) {
	if err := requireTextOrVoice("text_comment", in.Text != "", "voice_comment", in.Voice != nil); err != nil {
		return nil, err
	}
	if err := validateOptionalText("text_comment", in.Text, CommentTextMax); err != nil {
		return nil, err
	}

	rec, err := s.store.GetRecordingByID(ctx, recordingID)
	if err != nil {
		return nil, notFound(err, "recording")
	}

	c := &db.Comment{
		UserID:      actorID,
		RecordingID: recordingID,
		TextComment: in.Text,
	}

	if in.Voice != nil {
		key, err := s.blobs.put(ctx, s3storage.KindVoice, "voice_comment", in.Voice)
		if err != nil {
			return nil, err
		}
		c.VoiceComment = key
	}

	if err := s.store.CreateComment(ctx, c); err != nil {
		s.blobs.drop(ctx, s3storage.KindVoice, c.VoiceComment)
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if _, err := s.maintainer.RecomputeComments(ctx, recordingID); err != nil {
		return nil, err
	}

	if rec.UserID != actorID {
		s.notifier.Notify(ctx, rec.UserID, &db.Notification{
			Kind:  db.NotificationComment,
			Actor: s.actor(ctx, actorID),
			Comment: &db.CommentEvent{
				RecordingID:    rec.ID,
				RecordingTitle: rec.Title,
				CommentID:      c.ID,
				TextComment:    c.TextComment,
				HasVoice:       c.VoiceComment != "",
			},
		})
	}

	return c, nil
}

func (s *Service) GetComment(ctx context.Context, id uuid.UUID) (*db.Comment, error) {
	c, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "comment")
	}
	return c, nil
}

func (s *Service) ListComments(ctx context.Context, recordingID uuid.UUID) ([]*db.Comment, error) {
	if _, err := s.store.GetRecordingByID(ctx, recordingID); err != nil {
		return nil, notFound(err, "recording")
	}
	return s.store.ListCommentsByRecording(ctx, recordingID)
}

func (s *Service) UpdateComment(ctx context.Context, actorID, id uuid.UUID, patch CommentPatch) (*db.Comment, error) {
	c, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "comment")
	}
	if c.UserID != actorID {
		return nil, NewAuthorizationError()
	}

	text, voice := c.TextComment, c.VoiceComment
	if patch.Text != nil {
		if err := validateOptionalText("text_comment", *patch.Text, CommentTextMax); err != nil {
			return nil, err
		}
		text = *patch.Text
	}

	contentTouched := patch.Text != nil || patch.Voice != nil || patch.RemoveVoice
	if contentTouched {
		hasVoice := patch.Voice != nil || (voice != "" && !patch.RemoveVoice)
		if err := requireTextOrVoice("text_comment", text != "", "voice_comment", hasVoice); err != nil {
			return nil, err
		}
	}

	newVoice, oldVoice, err := s.swapVoice(ctx, "voice_comment", voice, patch.Voice, patch.RemoveVoice)
	if err != nil {
		return nil, err
	}

	c.TextComment = text
	c.VoiceComment = newVoice

	if err := s.store.UpdateComment(ctx, c); err != nil {
		if newVoice != voice {
			s.blobs.drop(ctx, s3storage.KindVoice, newVoice)
		}
		return nil, notFound(err, "comment")
	}
	s.blobs.drop(ctx, s3storage.KindVoice, oldVoice)

	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, actorID, id uuid.UUID) error {
	return s.cascade.DeleteComment(ctx, actorID, id)
}

func (s *Service) OpenCommentVoice(ctx context.Context, id uuid.UUID) (*s3storage.Object, error) {
	c, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "comment")
	}
	return s.blobs.open(ctx, s3storage.KindVoice, c.VoiceComment)
}

// swapVoice uploads a replacement voice blob. It returns the key to store and
// the key that becomes garbage once the row update succeeds.
func (s *Service) swapVoice(ctx context.Context, field, current string, replacement *Upload, remove bool) (string, string, error) {
	switch {
	case replacement != nil:
		key, err := s.blobs.put(ctx, s3storage.KindVoice, field, replacement)
		if err != nil {
			return "", "", err
		}
		return key, current, nil
	case remove:
		return "", current, nil
	default:
		return current, "", nil
	}
}
