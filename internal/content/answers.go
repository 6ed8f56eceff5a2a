package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/db"
	"github.com/rx3lixir/golos/pkg/s3storage"
)

type AnswerInput struct {
	Text  string
	Voice *Upload
}

type AnswerPatch struct {
	Text        *string
	Voice       *Upload
	RemoveVoice bool
}

func (s *Service) CreateAnswer(ctx context.Context, actorID, questionID uuid.UUID, in AnswerInput) (*db.Answer, error) {
	if err := requireTextOrVoice("text_answer", in.Text != "", "voice_answer", in.Voice != nil); err != nil {
		return nil, err
	}
	if err := validateOptionalText("text_answer", in.Text, AnswerTextMax); err != nil {
		return nil, err
	}

	q, err := s.store.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, notFound(err, "question")
	}

	a := &db.Answer{
		UserID:     actorID,
		QuestionID: questionID,
		TextAnswer: in.Text,
	}

	if in.Voice != nil {
		key, err := s.blobs.put(ctx, s3storage.KindVoice, "voice_answer", in.Voice)
		if err != nil {
			return nil, err
		}
		a.VoiceAnswer = key
	}

	if err := s.store.CreateAnswer(ctx, a); err != nil {
		s.blobs.drop(ctx, s3storage.KindVoice, a.VoiceAnswer)
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}

	if _, err := s.maintainer.RecomputeAnswers(ctx, questionID); err != nil {
		return nil, err
	}

	if q.UserID != actorID {
		s.notifier.Notify(ctx, q.UserID, &db.Notification{
			Kind:  db.NotificationAnswer,
			Actor: s.actor(ctx, actorID),
			Answer: &db.AnswerEvent{
				QuestionID:    q.ID,
				QuestionTitle: q.Title,
				AnswerID:      a.ID,
				TextAnswer:    a.TextAnswer,
				HasVoice:      a.VoiceAnswer != "",
			},
		})
	}

	return a, nil
}

func (s *Service) GetAnswer(ctx context.Context, id uuid.UUID) (*db.Answer, error) {
	a, err := s.store.GetAnswerByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "answer")
	}
	return a, nil
}

func (s *Service) ListAnswers(ctx context.Context, questionID uuid.UUID) ([]*db.Answer, error) {
	if _, err := s.store.GetQuestionByID(ctx, questionID); err != nil {
		return nil, notFound(err, "question")
	}
	return s.store.ListAnswersByQuestion(ctx, questionID)
}

func (s *Service) UpdateAnswer(ctx context.Context, actorID, id uuid.UUID, patch AnswerPatch) (*db.Answer, error) {
	a, err := s.store.GetAnswerByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "answer")
	}
	if a.UserID != actorID {
		return nil, NewAuthorizationError()
	}

	text, voice := a.TextAnswer, a.VoiceAnswer
	if patch.Text != nil {
		if err := validateOptionalText("text_answer", *patch.Text, AnswerTextMax); err != nil {
			return nil, err
		}
		text = *patch.Text
	}

	if patch.Text != nil || patch.Voice != nil || patch.RemoveVoice {
		hasVoice := patch.Voice != nil || (voice != "" && !patch.RemoveVoice)
		if err := requireTextOrVoice("text_answer", text != "", "voice_answer", hasVoice); err != nil {
			return nil, err
		}
	}

	newVoice, oldVoice, err := s.swapVoice(ctx, "voice_answer", voice, patch.Voice, patch.RemoveVoice)
	if err != nil {
		return nil, err
	}

	a.TextAnswer = text
	a.VoiceAnswer = newVoice

	if err := s.store.UpdateAnswer(ctx, a); err != nil {
		if newVoice != voice {
			s.blobs.drop(ctx, s3storage.KindVoice, newVoice)
		}
		return nil, notFound(err, "answer")
	}
	s.blobs.drop(ctx, s3storage.KindVoice, oldVoice)

	return a, nil
}

func (s *Service) DeleteAnswer(ctx context.Context, actorID, id uuid.UUID) error {
	return s.cascade.DeleteAnswer(ctx, actorID, id)
}

func (s *Service) OpenAnswerVoice(ctx context.Context, id uuid.UUID) (*s3storage.Object, error) {
	a, err := s.store.GetAnswerByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "answer")
	}
	return s.blobs.open(ctx, s3storage.KindVoice, a.VoiceAnswer)
}
