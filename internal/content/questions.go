package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/db"
	"github.com/rx3lixir/golos/pkg/s3storage"
)

type QuestionInput struct {
	Title string
	Text  string
	Voice *Upload
}

type QuestionPatch struct {
	Title       *string
	Text        *string
	Voice       *Upload
	RemoveVoice bool
}

func (s *Service) CreateQuestion(ctx context.Context, actorID uuid.UUID, in QuestionInput) (*db.Question, error) {
	if err := validateQuestionTitle(in.Title); err != nil {
		return nil, err
	}
	if err := requireTextOrVoice("text_question", in.Text != "", "voice_question", in.Voice != nil); err != nil {
		return nil, err
	}
	if err := validateOptionalText("text_question", in.Text, QuestionTextMax); err != nil {
		return nil, err
	}

	q := &db.Question{
		UserID:       actorID,
		Title:        in.Title,
		TextQuestion: in.Text,
	}

	if in.Voice != nil {
		key, err := s.blobs.put(ctx, s3storage.KindVoice, "voice_question", in.Voice)
		if err != nil {
			return nil, err
		}
		q.VoiceQuestion = key
	}

	if err := s.store.CreateQuestion(ctx, q); err != nil {
		s.blobs.drop(ctx, s3storage.KindVoice, q.VoiceQuestion)
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.log.Info("Question created", "question_id", q.ID, "user_id", actorID)

	s.notifier.NewPost(ctx, &Post{
		Kind:      PostQuestion,
		ID:        q.ID,
		UserID:    q.UserID,
		Title:     q.Title,
		CreatedAt: q.CreatedAt,
	})

	return q, nil
}

func (s *Service) GetQuestion(ctx context.Context, id uuid.UUID) (*db.Question, error) {
	q, err := s.store.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "question")
	}
	return q, nil
}

func (s *Service) ListQuestions(ctx context.Context, filter db.ListFilter) ([]*db.Question, error) {
	return s.store.ListQuestions(ctx, filter)
}

func (s *Service) UpdateQuestion(ctx context.Context, actorID, id uuid.UUID, patch QuestionPatch) (*db.Question, error) {
	q, err := s.store.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "question")
	}
	if q.UserID != actorID {
		return nil, NewAuthorizationError()
	}

	if patch.Title != nil {
		if err := validateQuestionTitle(*patch.Title); err != nil {
			return nil, err
		}
		q.Title = *patch.Title
	}

	text, voice := q.TextQuestion, q.VoiceQuestion
	if patch.Text != nil {
		if err := validateOptionalText("text_question", *patch.Text, QuestionTextMax); err != nil {
			return nil, err
		}
		text = *patch.Text
	}

	if patch.Text != nil || patch.Voice != nil || patch.RemoveVoice {
		hasVoice := patch.Voice != nil || (voice != "" && !patch.RemoveVoice)
		if err := requireTextOrVoice("text_question", text != "", "voice_question", hasVoice); err != nil {
			return nil, err
		}
	}

	newVoice, oldVoice, err := s.swapVoice(ctx, "voice_question", voice, patch.Voice, patch.RemoveVoice)
	if err != nil {
		return nil, err
	}

	q.TextQuestion = text
	q.VoiceQuestion = newVoice

	if err := s.store.UpdateQuestion(ctx, q); err != nil {
		if newVoice != voice {
			s.blobs.drop(ctx, s3storage.KindVoice, newVoice)
		}
		return nil, notFound(err, "question")
	}
	s.blobs.drop(ctx, s3storage.KindVoice, oldVoice)

	return q, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, actorID, id uuid.UUID) error {
	return s.cascade.DeleteQuestion(ctx, actorID, id)
}

func (s *Service) OpenQuestionVoice(ctx context.Context, id uuid.UUID) (*s3storage.Object, error) {
	q, err := s.store.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "question")
	}
	return s.blobs.open(ctx, s3storage.KindVoice, q.VoiceQuestion)
}
