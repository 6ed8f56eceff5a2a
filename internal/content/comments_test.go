package content_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rx3lixir/golos/internal/content"
	"github.com/rx3lixir/golos/pkg/s3storage"
)

func TestCreateCommentTextOrVoice(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	rec := f.recording(t, alice.ID)

	tests := []struct {
		name    string
		input   content.CommentInput
		wantErr bool
	}{
		{"neither", content.CommentInput{}, true},
		{"text only", content.CommentInput{Text: "hi"}, false},
		{"voice only", content.CommentInput{Voice: audio("ogg")}, false},
		{"both", content.CommentInput{Text: "hi", Voice: audio("ogg")}, false},
		{"text too long", content.CommentInput{Text: strings.Repeat("x", content.CommentTextMax+1)}, true},
		{"text at limit", content.CommentInput{Text: strings.Repeat("ж", content.CommentTextMax)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateComment(ctx, alice.ID, rec.ID, tt.input)
			if tt.wantErr {
				requireErrorAs[*content.ValidationError](t, err)
				return
			}
			require.NoError(t, err)
		})
	}

	got, err := f.svc.GetRecording(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.CommentsQuantity)
}

func TestCreateQuestionAndAnswerTextOrVoice(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	const title = "How do I record outdoors?"

	questions := []struct {
		name    string
		input   content.QuestionInput
		wantErr bool
	}{
		{"neither", content.QuestionInput{Title: title}, true},
		{"text only", content.QuestionInput{Title: title, Text: "wind noise"}, false},
		{"voice only", content.QuestionInput{Title: title, Voice: audio("ogg")}, false},
		{"both", content.QuestionInput{Title: title, Text: "wind noise", Voice: audio("ogg")}, false},
	}

	for _, tt := range questions {
		t.Run("question "+tt.name, func(t *testing.T) {
			_, err := f.svc.CreateQuestion(ctx, alice.ID, tt.input)
			if tt.wantErr {
				ve := requireErrorAs[*content.ValidationError](t, err)
				assert.Equal(t, "text_question", ve.Field)
				return
			}
			require.NoError(t, err)
		})
	}

	q := f.question(t, alice.ID)

	answers := []struct {
		name    string
		input   content.AnswerInput
		wantErr bool
	}{
		{"neither", content.AnswerInput{}, true},
		{"text only", content.AnswerInput{Text: "use a dead cat"}, false},
		{"voice only", content.AnswerInput{Voice: audio("mp3")}, false},
		{"both", content.AnswerInput{Text: "use a dead cat", Voice: audio("mp3")}, false},
	}

	for _, tt := range answers {
		t.Run("answer "+tt.name, func(t *testing.T) {
			_, err := f.svc.CreateAnswer(ctx, bob.ID, q.ID, tt.input)
			if tt.wantErr {
				ve := requireErrorAs[*content.ValidationError](t, err)
				assert.Equal(t, "text_answer", ve.Field)
				return
			}
			require.NoError(t, err)
		})
	}

	got, err := f.svc.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AnswersQuantity)
}

func TestUpdateComment(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	rec := f.recording(t, alice.ID)

	c, err := f.svc.CreateComment(ctx, bob.ID, rec.ID, content.CommentInput{Voice: audio("ogg")})
	require.NoError(t, err)
	oldVoice := c.VoiceComment

	t.Run("only owner", func(t *testing.T) {
		text := "hijack"
		_, err := f.svc.UpdateComment(ctx, alice.ID, c.ID, content.CommentPatch{Text: &text})
		requireErrorAs[*content.AuthorizationError](t, err)
	})

	t.Run("cannot drop the only content", func(t *testing.T) {
		_, err := f.svc.UpdateComment(ctx, bob.ID, c.ID, content.CommentPatch{RemoveVoice: true})
		requireErrorAs[*content.ValidationError](t, err)
		assert.True(t, f.blobs.Has(s3storage.KindVoice, oldVoice))
	})

	t.Run("replace voice with text", func(t *testing.T) {
		text := "typed instead"
		updated, err := f.svc.UpdateComment(ctx, bob.ID, c.ID, content.CommentPatch{Text: &text, RemoveVoice: true})
		require.NoError(t, err)
		assert.Equal(t, text, updated.TextComment)
		assert.Empty(t, updated.VoiceComment)
		assert.False(t, f.blobs.Has(s3storage.KindVoice, oldVoice))
	})

	t.Run("swap in a new voice", func(t *testing.T) {
		updated, err := f.svc.UpdateComment(ctx, bob.ID, c.ID, content.CommentPatch{Voice: audio("opus")})
		require.NoError(t, err)
		assert.Equal(t, "typed instead", updated.TextComment)
		assert.True(t, f.blobs.Has(s3storage.KindVoice, updated.VoiceComment))
	})

	got, err := f.svc.GetRecording(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentsQuantity)
}

func TestOpenCommentVoiceWithoutVoice(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	rec := f.recording(t, alice.ID)

	c, err := f.svc.CreateComment(ctx, alice.ID, rec.ID, content.CommentInput{Text: "text only"})
	require.NoError(t, err)

	_, err = f.svc.OpenCommentVoice(ctx, c.ID)
	requireErrorAs[*content.NotFoundError](t, err)
}

func TestQuestionAndAnswerUpdates(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	q := f.question(t, alice.ID)

	short := "too short"
	_, err := f.svc.UpdateQuestion(ctx, alice.ID, q.ID, content.QuestionPatch{Title: &short})
	requireErrorAs[*content.ValidationError](t, err)

	empty := ""
	_, err = f.svc.UpdateQuestion(ctx, alice.ID, q.ID, content.QuestionPatch{Text: &empty})
	requireErrorAs[*content.ValidationError](t, err)

	updated, err := f.svc.UpdateQuestion(ctx, alice.ID, q.ID, content.QuestionPatch{Text: &empty, Voice: audio("mp3")})
	require.NoError(t, err)
	assert.Empty(t, updated.TextQuestion)
	assert.NotEmpty(t, updated.VoiceQuestion)

	a, err := f.svc.CreateAnswer(ctx, bob.ID, q.ID, content.AnswerInput{Text: "try a blimp"})
	require.NoError(t, err)

	text := "try a dead cat windscreen"
	got, err := f.svc.UpdateAnswer(ctx, bob.ID, a.ID, content.AnswerPatch{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, text, got.TextAnswer)

	_, err = f.svc.UpdateAnswer(ctx, alice.ID, a.ID, content.AnswerPatch{Text: &text})
	requireErrorAs[*content.AuthorizationError](t, err)

	answers, err := f.svc.ListAnswers(ctx, q.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}
