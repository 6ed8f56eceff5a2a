package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	"github.com/rx3lixir/golos/internal/content"
	"github.com/rx3lixir/golos/internal/db"
	"github.com/rx3lixir/golos/internal/notify"
	"github.com/rx3lixir/golos/internal/session"
	"github.com/rx3lixir/golos/internal/testutil"
)

func TestUserChannel(t *testing.T) {
	id := uuid.MustParse("6f1c2a3e-0d4b-4a7e-9b1f-2c3d4e5f6a7b")
	assert.Equal(t, "notify:6f1c2a3e-0d4b-4a7e-9b1f-2c3d4e5f6a7b", notify.UserChannel(id))
}

// subscribe collects messages of one channel until the test ends
func subscribe(t *testing.T, client valkey.Client, channel string) <-chan string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	messages := make(chan string, 16)
	go func() {
		_ = client.Receive(ctx, client.B().Subscribe().Channel(channel).Build(), func(msg valkey.PubSubMessage) {
			messages <- msg.Message
		})
	}()
	return messages
}

// awaitDelivery publishes until the subscriber sees a message; the
// subscription may not be live when the first publish goes out
func awaitDelivery(t *testing.T, publish func() error, messages <-chan string) string {
	t.Helper()

	deadline := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		require.NoError(t, publish())
		select {
		case msg := <-messages:
			return msg
		case <-ticker.C:
		case <-deadline:
			t.Fatal("no message delivered")
		}
	}
}

func TestPublisher(t *testing.T) {
	addr := testutil.StartValkey(t)

	client, err := session.NewClient(addr, "", "")
	require.NoError(t, err)
	t.Cleanup(client.Close)

	pub := notify.NewPublisher(client)
	ctx := context.Background()

	t.Run("notify", func(t *testing.T) {
		userID := uuid.New()
		messages := subscribe(t, client, notify.UserChannel(userID))

		note := &db.Notification{
			ID:     uuid.New(),
			Kind:   db.NotificationRating,
			Actor:  db.Actor{ID: uuid.New(), Name: "Bob"},
			Rating: &db.RatingEvent{RecordingID: uuid.New(), RecordingTitle: "Morning birds", Rating: 14},
		}

		raw := awaitDelivery(t, func() error { return pub.Notify(ctx, userID, note) }, messages)

		var got db.Notification
		require.NoError(t, json.Unmarshal([]byte(raw), &got))
		assert.Equal(t, note.ID, got.ID)
		assert.Equal(t, db.NotificationRating, got.Kind)
		require.NotNil(t, got.Rating)
		assert.Equal(t, 14, got.Rating.Rating)
	})

	t.Run("new post", func(t *testing.T) {
		messages := subscribe(t, client, notify.NewPostChannel)

		post := &content.Post{Kind: content.PostQuestion, ID: uuid.New(), UserID: uuid.New(), Title: "How do I record outdoors?"}

		raw := awaitDelivery(t, func() error { return pub.NewPost(ctx, post) }, messages)

		var got content.Post
		require.NoError(t, json.Unmarshal([]byte(raw), &got))
		assert.Equal(t, post.ID, got.ID)
		assert.Equal(t, content.PostQuestion, got.Kind)
	})
}
