package content_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rx3lixir/golos/internal/content"
	"github.com/rx3lixir/golos/internal/db"
	"github.com/rx3lixir/golos/pkg/s3storage"
)

// populate gives rec three comments (two with voice) and two ratings
func populate(t *testing.T, f *fixture, rec *db.Recording) []*db.Comment {
	t.Helper()

	bob := f.user(t, "Bob")
	carol := f.user(t, "Carol")

	var comments []*db.Comment
	for _, in := range []content.CommentInput{
		{Text: "lovely"},
		{Voice: audio("ogg")},
		{Text: "listen to this", Voice: audio("opus")},
	} {
		c, err := f.svc.CreateComment(ctx, bob.ID, rec.ID, in)
		require.NoError(t, err)
		comments = append(comments, c)
	}

	_, err := f.svc.Rate(ctx, bob.ID, rec.ID, 12)
	require.NoError(t, err)
	_, err = f.svc.Rate(ctx, carol.ID, rec.ID, 18)
	require.NoError(t, err)

	return comments
}

func TestDeleteRecordingCascade(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	rec := f.recording(t, alice.ID)
	comments := populate(t, f, rec)

	require.Equal(t, 2, f.blobs.Len(s3storage.KindVoice))

	require.NoError(t, f.svc.DeleteRecording(ctx, alice.ID, rec.ID))

	assert.Empty(t, f.store.Recordings)
	assert.Empty(t, f.store.Comments)
	assert.Empty(t, f.store.Ratings)
	assert.False(t, f.blobs.Has(s3storage.KindRecording, rec.Audio))
	for _, c := range comments {
		if c.VoiceComment != "" {
			assert.False(t, f.blobs.Has(s3storage.KindVoice, c.VoiceComment))
		}
	}

	_, err := f.svc.GetRecording(ctx, rec.ID)
	requireErrorAs[*content.NotFoundError](t, err)
}

func TestDeleteRecordingRequiresOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	mallory := f.user(t, "Mallory")
	rec := f.recording(t, alice.ID)
	populate(t, f, rec)

	err := f.svc.DeleteRecording(ctx, mallory.ID, rec.ID)
	requireErrorAs[*content.AuthorizationError](t, err)

	assert.Len(t, f.store.Recordings, 1)
	assert.Len(t, f.store.Comments, 3)
	assert.Len(t, f.store.Ratings, 2)
	assert.True(t, f.blobs.Has(s3storage.KindRecording, rec.Audio))
}

func TestDeleteRecordingIgnoresBlobFailures(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	rec := f.recording(t, alice.ID)
	populate(t, f, rec)

	f.blobs.DeleteErr = errors.New("bucket unreachable")

	require.NoError(t, f.svc.DeleteRecording(ctx, alice.ID, rec.ID))
	assert.Empty(t, f.store.Recordings)
	assert.Empty(t, f.store.Comments)
	assert.Empty(t, f.store.Ratings)
}

func TestDeleteRecordingChildFailureKeepsRoot(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	rec := f.recording(t, alice.ID)
	populate(t, f, rec)

	ratingsErr := errors.New("ratings table locked")
	f.store.FailOn("DeleteRatingsByRecording", ratingsErr)

	err := f.svc.DeleteRecording(ctx, alice.ID, rec.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ratingsErr)
	assert.Len(t, f.store.Recordings, 1)

	// retry finishes the job
	f.store.FailOn("DeleteRatingsByRecording", nil)
	require.NoError(t, f.svc.DeleteRecording(ctx, alice.ID, rec.ID))
	assert.Empty(t, f.store.Recordings)
	assert.Empty(t, f.store.Ratings)
}

func TestDeleteQuestionCascade(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")

	q, err := f.svc.CreateQuestion(ctx, alice.ID, content.QuestionInput{
		Title: "Which microphone for field work?",
		Voice: audio("m4a"),
	})
	require.NoError(t, err)

	_, err = f.svc.CreateAnswer(ctx, bob.ID, q.ID, content.AnswerInput{Text: "A shotgun mic"})
	require.NoError(t, err)
	voiced, err := f.svc.CreateAnswer(ctx, bob.ID, q.ID, content.AnswerInput{Voice: audio("webm")})
	require.NoError(t, err)

	got, err := f.svc.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AnswersQuantity)

	err = f.svc.DeleteQuestion(ctx, bob.ID, q.ID)
	requireErrorAs[*content.AuthorizationError](t, err)

	require.NoError(t, f.svc.DeleteQuestion(ctx, alice.ID, q.ID))
	assert.Empty(t, f.store.Questions)
	assert.Empty(t, f.store.Answers)
	assert.False(t, f.blobs.Has(s3storage.KindVoice, q.VoiceQuestion))
	assert.False(t, f.blobs.Has(s3storage.KindVoice, voiced.VoiceAnswer))
}

func TestDeleteComment(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	mallory := f.user(t, "Mallory")
	rec := f.recording(t, alice.ID)
	comments := populate(t, f, rec)

	t.Run("stranger is rejected", func(t *testing.T) {
		err := f.svc.DeleteComment(ctx, mallory.ID, comments[0].ID)
		requireErrorAs[*content.AuthorizationError](t, err)
	})

	t.Run("recording owner may delete", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteComment(ctx, alice.ID, comments[1].ID))
		assert.False(t, f.blobs.Has(s3storage.KindVoice, comments[1].VoiceComment))

		got, err := f.svc.GetRecording(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.CommentsQuantity)
	})

	t.Run("author may delete", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteComment(ctx, comments[0].UserID, comments[0].ID))

		got, err := f.svc.GetRecording(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CommentsQuantity)
	})

	t.Run("already gone", func(t *testing.T) {
		err := f.svc.DeleteComment(ctx, alice.ID, comments[0].ID)
		requireErrorAs[*content.NotFoundError](t, err)
	})
}

func TestDeleteAnswerRecomputes(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	q := f.question(t, alice.ID)

	a, err := f.svc.CreateAnswer(ctx, bob.ID, q.ID, content.AnswerInput{Text: "Use a windscreen"})
	require.NoError(t, err)

	err = f.svc.DeleteAnswer(ctx, alice.ID, a.ID)
	requireErrorAs[*content.AuthorizationError](t, err)

	require.NoError(t, f.svc.DeleteAnswer(ctx, bob.ID, a.ID))

	got, err := f.svc.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AnswersQuantity)
}

func TestDeactivateUserHidesContent(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")

	aliceRec := f.recording(t, alice.ID)
	aliceQ := f.question(t, alice.ID)
	bobRec := f.recording(t, bob.ID)

	_, err := f.svc.CreateComment(ctx, alice.ID, bobRec.ID, content.CommentInput{Text: "great take"})
	require.NoError(t, err)
	_, err = f.svc.Rate(ctx, alice.ID, bobRec.ID, 16)
	require.NoError(t, err)
	onAlice, err := f.svc.CreateComment(ctx, bob.ID, aliceRec.ID, content.CommentInput{Text: "nice"})
	require.NoError(t, err)

	err = f.svc.Deactivate(ctx, bob.ID, alice.ID)
	requireErrorAs[*content.AuthorizationError](t, err)

	require.NoError(t, f.svc.Deactivate(ctx, alice.ID, alice.ID))

	_, err = f.svc.GetRecording(ctx, aliceRec.ID)
	requireErrorAs[*content.NotFoundError](t, err)
	_, err = f.svc.GetQuestion(ctx, aliceQ.ID)
	requireErrorAs[*content.NotFoundError](t, err)
	_, err = f.svc.GetUser(ctx, alice.ID)
	requireErrorAs[*content.NotFoundError](t, err)

	// children of a hidden recording stay reachable by id
	kept, err := f.svc.GetComment(ctx, onAlice.ID)
	require.NoError(t, err)
	assert.Equal(t, aliceRec.ID, kept.RecordingID)
	_, err = f.svc.ListComments(ctx, aliceRec.ID)
	requireErrorAs[*content.NotFoundError](t, err)

	recs, err := f.svc.ListRecordings(ctx, db.ListFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, bobRec.ID, recs[0].ID)

	questions, err := f.svc.ListQuestions(ctx, db.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, questions)

	// rows are kept, and alice's activity on bob's recording still counts
	assert.Len(t, f.store.Recordings, 2)
	got, err := f.svc.GetRecording(ctx, bobRec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentsQuantity)
	assert.Equal(t, 1, got.RatingsQuantity)
	assert.Equal(t, 16, got.RatingsAverage)

	_, err = f.svc.Current(ctx, alice.ID)
	requireErrorAs[*content.AuthenticationError](t, err)
	_, err = f.svc.Authenticate(ctx, alice.Email, "Secret123!")
	requireErrorAs[*content.AuthenticationError](t, err)
}

func TestDeactivateUserRetryAfterFailure(t *testing.T) {
	tests := []struct {
		name string
		op   string
	}{
		{"recordings step", "DeactivateRecordingsByUser"},
		{"questions step", "DeactivateQuestionsByUser"},
		{"user step", "DeactivateUser"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			alice := f.user(t, "Alice")
			rec := f.recording(t, alice.ID)
			q := f.question(t, alice.ID)

			f.store.FailOn(tt.op, errors.New("connection reset"))
			require.Error(t, f.svc.Deactivate(ctx, alice.ID, alice.ID))
			f.store.FailOn(tt.op, nil)

			// the account survives a failed attempt so the owner can retry
			_, err := f.svc.Current(ctx, alice.ID)
			require.NoError(t, err)

			require.NoError(t, f.svc.Deactivate(ctx, alice.ID, alice.ID))

			_, err = f.svc.GetRecording(ctx, rec.ID)
			requireErrorAs[*content.NotFoundError](t, err)
			_, err = f.svc.GetQuestion(ctx, q.ID)
			requireErrorAs[*content.NotFoundError](t, err)
			_, err = f.svc.Current(ctx, alice.ID)
			requireErrorAs[*content.AuthenticationError](t, err)
		})
	}
}

func TestInactiveRecordingRejectsNewChildren(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	rec := f.recording(t, alice.ID)

	require.NoError(t, f.svc.Deactivate(ctx, alice.ID, alice.ID))

	_, err := f.svc.CreateComment(ctx, bob.ID, rec.ID, content.CommentInput{Text: "hello?"})
	requireErrorAs[*content.NotFoundError](t, err)
	_, err = f.svc.Rate(ctx, bob.ID, rec.ID, 5)
	requireErrorAs[*content.NotFoundError](t, err)
	_, err = f.svc.ListComments(ctx, rec.ID)
	requireErrorAs[*content.NotFoundError](t, err)
}
