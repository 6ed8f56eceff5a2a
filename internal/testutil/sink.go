package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/content"
	"github.com/rx3lixir/golos/internal/db"
)

// Signal is one notification seen by RecordingSink
type Signal struct {
	UserID       uuid.UUID
	Notification *db.Notification
}

// RecordingSink remembers every delivery channel signal
type RecordingSink struct {
	mu      sync.Mutex
	signals []Signal
	posts   []*content.Post

	Err error
}

var _ content.NotificationSink = (*RecordingSink)(nil)

func (s *RecordingSink) Notify(_ context.Context, userID uuid.UUID, n *db.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, Signal{UserID: userID, Notification: n})
	return s.Err
}

func (s *RecordingSink) NewPost(_ context.Context, post *content.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, post)
	return s.Err
}

func (s *RecordingSink) Signals() []Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Signal(nil), s.signals...)
}

func (s *RecordingSink) Posts() []*content.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*content.Post(nil), s.posts...)
}
