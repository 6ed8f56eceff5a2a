// Package notify pushes inbox signals and new post announcements to valkey
// pub/sub channels, where connected clients pick them up.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/rx3lixir/golos/internal/content"
	"github.com/rx3lixir/golos/internal/db"
)

const NewPostChannel = "new_post"

// UserChannel is the channel a user's clients subscribe to
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("notify:%s", userID.String())
}

// Publisher is the valkey backed delivery channel
type Publisher struct {
	client valkey.Client
}

var _ content.NotificationSink = (*Publisher)(nil)

func NewPublisher(client valkey.Client) *Publisher {
	return &Publisher{client: client}
}

// Notify tells the user's clients that a new inbox entry arrived
func (p *Publisher) Notify(ctx context.Context, userID uuid.UUID, n *db.Notification) error {
	return p.publish(ctx, UserChannel(userID), n)
}

// NewPost broadcasts a freshly published recording or question
func (p *Publisher) NewPost(ctx context.Context, post *content.Post) error {
	return p.publish(ctx, NewPostChannel, post)
}

func (p *Publisher) publish(ctx context.Context, channel string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	publishCmd := p.client.B().Publish().
		Channel(channel).
		Message(string(data)).
		Build()

	if err := p.client.Do(ctx, publishCmd).Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	return nil
}
