package content

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/db"
)

// Deps are the collaborators of the content engine
type Deps struct {
	Store     db.Store
	Blobs     BlobStore
	Sink      NotificationSink
	UserCache *UserCache
	Logger    *log.Logger
}

// Service exposes the create/read/update/delete operations of every entity.
// Deletions are delegated to the Cascade, counter upkeep to the Maintainer
// and fan-out to the Notifier.
type Service struct {
	store      db.Store
	blobs      *blobManager
	maintainer *Maintainer
	cascade    *Cascade
	notifier   *Notifier
	users      *UserCache
	log        *log.Logger
}

func New(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	users := deps.UserCache
	if users == nil {
		users = NewUserCache(1024, time.Minute)
	}

	blobs := &blobManager{
		store: deps.Blobs,
		log:   logger.With("component", "blobs"),
		now:   time.Now,
	}
	maintainer := NewMaintainer(deps.Store, logger)

	return &Service{
		store:      deps.Store,
		blobs:      blobs,
		maintainer: maintainer,
		cascade:    NewCascade(deps.Store, blobs, maintainer, users, logger),
		notifier:   NewNotifier(deps.Store, deps.Sink, logger),
		users:      users,
		log:        logger.With("component", "content"),
	}
}

func (s *Service) Maintainer() *Maintainer {
	return s.maintainer
}

func (s *Service) Notifier() *Notifier {
	return s.notifier
}

// actor snapshots the display fields of the acting user
func (s *Service) actor(ctx context.Context, userID uuid.UUID) db.Actor {
	u, err := s.Current(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to load actor snapshot", "user_id", userID, "error", err)
		return db.Actor{ID: userID}
	}
	return db.Actor{ID: u.ID, Name: u.Name, Photo: u.Photo}
}

// notFound converts the store's absence signal into a typed error
func notFound(err error, resource string) error {
	if errors.Is(err, db.ErrNotFound) {
		return NewNotFoundError(resource)
	}
	return err
}
