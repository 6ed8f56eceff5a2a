package content

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rx3lixir/golos/pkg/s3storage"
)

// BlobStore keeps opaque byte streams by key, one namespace per kind
type BlobStore interface {
	Put(ctx context.Context, kind s3storage.Kind, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, kind s3storage.Kind, key string) (*s3storage.Object, error)
	Delete(ctx context.Context, kind s3storage.Kind, key string) error
}

// Upload is a blob waiting to be stored
type Upload struct {
	Body   io.Reader
	Size   int64
	Format string
}

type blobManager struct {
	store BlobStore
	log   *log.Logger
	now   func() time.Time
}

// put validates the format and uploads the blob, returning its key once the
// store has acknowledged it
func (b *blobManager) put(ctx context.Context, kind s3storage.Kind, field string, up *Upload) (string, error) {
	contentType, ok := s3storage.ContentType(kind, up.Format)
	if !ok {
		return "", NewValidationError(field, "unsupported %s format: %q", field, up.Format)
	}
	if up.Size <= 0 {
		return "", NewValidationError(field, "%s is empty", field)
	}

	key := s3storage.NewKey(kind, up.Format, b.now())
	if err := b.store.Put(ctx, kind, key, up.Body, up.Size, contentType); err != nil {
		return "", &DependencyError{Dependency: "blob store", Err: err}
	}

	b.log.Debug("Blob stored", "kind", kind, "key", key, "size", up.Size)
	return key, nil
}

// drop deletes a blob without failing the caller; an orphaned object is an
// acceptable degraded state
func (b *blobManager) drop(ctx context.Context, kind s3storage.Kind, key string) {
	if key == "" {
		return
	}

	if err := b.store.Delete(ctx, kind, key); err != nil {
		blobCleanupFailuresTotal.WithLabelValues(string(kind)).Inc()
		b.log.Warn("Failed to delete blob", "kind", kind, "key", key, "error", err)
		return
	}

	b.log.Debug("Blob deleted", "kind", kind, "key", key)
}

func (b *blobManager) open(ctx context.Context, kind s3storage.Kind, key string) (*s3storage.Object, error) {
	if key == "" {
		return nil, NewNotFoundError(string(kind))
	}

	obj, err := b.store.Get(ctx, kind, key)
	if err != nil {
		if errors.Is(err, s3storage.ErrObjectNotFound) {
			return nil, NewNotFoundError(string(kind))
		}
		return nil, &DependencyError{Dependency: "blob store", Err: err}
	}

	return obj, nil
}
