package content

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/db"
)

// Post announces newly published content on the delivery channel
type Post struct {
	Kind      string    `json:"kind"`
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	PostRecording = "recording"
	PostQuestion  = "question"
)

// NotificationSink is the push side of the delivery channel
type NotificationSink interface {
	Notify(ctx context.Context, userID uuid.UUID, n *db.Notification) error
	NewPost(ctx context.Context, post *Post) error
}

const defaultSignalTimeout = 5 * time.Second

// Notifier appends inbox entries and signals the delivery channel.
// Nothing it does can fail the request that triggered it.
type Notifier struct {
	inbox   db.NotificationStore
	sink    NotificationSink
	log     *log.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotifier(inbox db.NotificationStore, sink NotificationSink, logger *log.Logger) *Notifier {
	return &Notifier{
		inbox:   inbox,
		sink:    sink,
		log:     logger.With("component", "notifier"),
		timeout: defaultSignalTimeout,
	}
}

// Notify puts n into the target's inbox and pings the target
func (n *Notifier) Notify(ctx context.Context, target uuid.UUID, note *db.Notification) {
	if note.Actor.ID == target {
		return
	}

	if err := n.inbox.AppendNotification(ctx, target, note); err != nil {
		deliveryFailuresTotal.WithLabelValues("inbox").Inc()
		n.log.Warn("Failed to append notification",
			"target", target,
			"kind", note.Kind,
			"error", err,
		)
		return
	}

	n.signal(ctx, "notify", func(ctx context.Context) error {
		return n.sink.Notify(ctx, target, note)
	})
}

// NewPost broadcasts freshly published content
func (n *Notifier) NewPost(ctx context.Context, post *Post) {
	n.signal(ctx, "new_post", func(ctx context.Context) error {
		return n.sink.NewPost(ctx, post)
	})
}

// signal runs fn in the background, detached from the request's cancellation
func (n *Notifier) signal(ctx context.Context, stage string, fn func(ctx context.Context) error) {
	if n.sink == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()

		if err := fn(ctx); err != nil {
			deliveryFailuresTotal.WithLabelValues(stage).Inc()
			n.log.Warn("Delivery channel signal failed", "stage", stage, "error", err)
		}
	}()
}

// Wait blocks until all in-flight signals are done
func (n *Notifier) Wait() {
	n.wg.Wait()
}
