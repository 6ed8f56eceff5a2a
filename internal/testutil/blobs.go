package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/rx3lixir/golos/pkg/s3storage"
)

// MemBlobs is an in-memory blob store keyed by kind and key
type MemBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	// PutErr and DeleteErr make the respective call fail when set
	PutErr    error
	DeleteErr error
}

func NewMemBlobs() *MemBlobs {
	return &MemBlobs{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func blobID(kind s3storage.Kind, key string) string {
	return string(kind) + "|" + key
}

func (b *MemBlobs) Put(_ context.Context, kind s3storage.Kind, key string, r io.Reader, _ int64, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.PutErr != nil {
		return b.PutErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.objects[blobID(kind, key)] = data
	b.types[blobID(kind, key)] = contentType
	return nil
}

func (b *MemBlobs) Get(_ context.Context, kind s3storage.Kind, key string) (*s3storage.Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.objects[blobID(kind, key)]
	if !ok {
		return nil, s3storage.ErrObjectNotFound
	}
	return &s3storage.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		Size:        int64(len(data)),
		ContentType: b.types[blobID(kind, key)],
	}, nil
}

func (b *MemBlobs) Delete(_ context.Context, kind s3storage.Kind, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.DeleteErr != nil {
		return b.DeleteErr
	}

	delete(b.objects, blobID(kind, key))
	delete(b.types, blobID(kind, key))
	return nil
}

// Has reports whether a blob is stored
func (b *MemBlobs) Has(kind s3storage.Kind, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[blobID(kind, key)]
	return ok
}

// Len counts stored blobs of one kind
func (b *MemBlobs) Len(kind s3storage.Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	prefix := string(kind) + "|"
	for id := range b.objects {
		if len(id) > len(prefix) && id[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
