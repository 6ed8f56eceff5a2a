package s3storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Kind selects the bucket an object lives in
type Kind string

const (
	KindRecording Kind = "recording"
	KindVoice     Kind = "voice"
	KindPhoto     Kind = "photo"
)

// ErrObjectNotFound is returned when a key does not exist in its bucket
var ErrObjectNotFound = errors.New("object not found")

// Object is a readable blob with its metadata. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Buckets maps each blob kind to a bucket name
type Buckets map[Kind]string

// MinIOClient wraps the MinIO client for audio and image storage
type MinIOClient struct {
	client  *minio.Client
	buckets Buckets
}

// NewMinIOClient creates a new MinIO client and ensures every bucket exists
func NewMinIOClient(endpoint, accessKey, secretKey string, buckets Buckets, useSSL bool) (*MinIOClient, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	mc := &MinIOClient{
		client:  client,
		buckets: buckets,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, bucket := range buckets {
		if err := mc.ensureBucket(ctx, bucket); err != nil {
			return nil, err
		}
	}

	return mc, nil
}

// ensureBucket creates the bucket if it doesn't exist
func (m *MinIOClient) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return nil
}

func (m *MinIOClient) bucket(kind Kind) (string, error) {
	bucket, ok := m.buckets[kind]
	if !ok {
		return "", fmt.Errorf("no bucket configured for %q", kind)
	}
	return bucket, nil
}

// Put uploads an object and returns once MinIO has acknowledged it
func (m *MinIOClient) Put(ctx context.Context, kind Kind, key string, r io.Reader, size int64, contentType string) error {
	bucket, err := m.bucket(kind)
	if err != nil {
		return err
	}

	_, err = m.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to minio: %w", err)
	}

	return nil
}

// Get opens an object for streaming
func (m *MinIOClient) Get(ctx context.Context, kind Kind, key string) (*Object, error) {
	bucket, err := m.bucket(kind)
	if err != nil {
		return nil, err
	}

	object, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	// GetObject is lazy, Stat surfaces a missing key
	info, err := object.Stat()
	if err != nil {
		object.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	return &Object{
		Body:        object,
		Size:        info.Size,
		ContentType: info.ContentType,
	}, nil
}

// Delete removes an object. Removing a missing key is not an error.
func (m *MinIOClient) Delete(ctx context.Context, kind Kind, key string) error {
	bucket, err := m.bucket(kind)
	if err != nil {
		return err
	}

	err = m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Ping checks that the recordings bucket is reachable
func (m *MinIOClient) Ping(ctx context.Context) error {
	bucket, err := m.bucket(KindRecording)
	if err != nil {
		return err
	}
	if _, err := m.client.BucketExists(ctx, bucket); err != nil {
		return fmt.Errorf("minio unreachable: %w", err)
	}
	return nil
}
