package content_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rx3lixir/golos/internal/content"
	"github.com/rx3lixir/golos/internal/db"
)

func TestCommentNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	rec := f.recording(t, alice.ID)

	c, err := f.svc.CreateComment(ctx, bob.ID, rec.ID, content.CommentInput{Text: "wonderful"})
	require.NoError(t, err)

	inbox, err := f.svc.Notifications(ctx, alice.ID, db.Page{})
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	n := inbox[0]
	assert.Equal(t, db.NotificationComment, n.Kind)
	assert.Equal(t, bob.ID, n.Actor.ID)
	assert.Equal(t, "Bob", n.Actor.Name)
	require.NotNil(t, n.Comment)
	assert.Equal(t, c.ID, n.Comment.CommentID)
	assert.Equal(t, rec.Title, n.Comment.RecordingTitle)

	me, err := f.svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, me.UnreadNotifications)

	f.svc.Notifier().Wait()
	signals := f.sink.Signals()
	require.Len(t, signals, 1)
	assert.Equal(t, alice.ID, signals[0].UserID)

	require.NoError(t, f.svc.MarkNotificationsRead(ctx, alice.ID))
	me, err = f.svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, me.UnreadNotifications)
}

func TestSelfActivityIsNotNotified(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	rec := f.recording(t, alice.ID)
	q := f.question(t, alice.ID)

	_, err := f.svc.CreateComment(ctx, alice.ID, rec.ID, content.CommentInput{Text: "my own note"})
	require.NoError(t, err)
	_, err = f.svc.Rate(ctx, alice.ID, rec.ID, 20)
	require.NoError(t, err)
	_, err = f.svc.CreateAnswer(ctx, alice.ID, q.ID, content.AnswerInput{Text: "answering myself"})
	require.NoError(t, err)

	inbox, err := f.svc.Notifications(ctx, alice.ID, db.Page{})
	require.NoError(t, err)
	assert.Empty(t, inbox)

	me, err := f.svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, me.UnreadNotifications)

	f.svc.Notifier().Wait()
	assert.Empty(t, f.sink.Signals())
}

func TestInboxOrder(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	rec := f.recording(t, alice.ID)
	q := f.question(t, alice.ID)

	_, err := f.svc.Rate(ctx, bob.ID, rec.ID, 9)
	require.NoError(t, err)
	_, err = f.svc.CreateComment(ctx, bob.ID, rec.ID, content.CommentInput{Text: "second"})
	require.NoError(t, err)
	_, err = f.svc.CreateAnswer(ctx, bob.ID, q.ID, content.AnswerInput{Text: "third"})
	require.NoError(t, err)

	inbox, err := f.svc.Notifications(ctx, alice.ID, db.Page{})
	require.NoError(t, err)
	require.Len(t, inbox, 3)
	assert.Equal(t, db.NotificationRating, inbox[0].Kind)
	assert.Equal(t, db.NotificationComment, inbox[1].Kind)
	assert.Equal(t, db.NotificationAnswer, inbox[2].Kind)
	assert.Equal(t, 9, inbox[0].Rating.Rating)
}

func TestNotificationFailuresDoNotFailRequest(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	rec := f.recording(t, alice.ID)

	f.sink.Err = errors.New("valkey down")
	f.store.FailOn("AppendNotification", errors.New("disk full"))

	c, err := f.svc.CreateComment(ctx, bob.ID, rec.ID, content.CommentInput{Text: "still works"})
	require.NoError(t, err)
	assert.NotNil(t, c)

	f.store.FailOn("AppendNotification", nil)

	_, err = f.svc.Rate(ctx, bob.ID, rec.ID, 4)
	require.NoError(t, err)

	inbox, err := f.svc.Notifications(ctx, alice.ID, db.Page{})
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
}

func TestNotificationCheck(t *testing.T) {
	tests := []struct {
		name    string
		n       db.Notification
		wantErr bool
	}{
		{"rating", db.Notification{Kind: db.NotificationRating, Rating: &db.RatingEvent{}}, false},
		{"no event", db.Notification{Kind: db.NotificationRating}, true},
		{"mismatched", db.Notification{Kind: db.NotificationAnswer, Comment: &db.CommentEvent{}}, true},
		{"two events", db.Notification{Kind: db.NotificationComment, Comment: &db.CommentEvent{}, Rating: &db.RatingEvent{}}, true},
		{"unknown kind", db.Notification{Kind: "like", Answer: &db.AnswerEvent{}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.n.Check()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
