package audio

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// GCSStore implements Store on a Cloud Storage bucket
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// Option is a functional option for the GCS store
type Option func(*GCSStore)

// WithObjectPrefix sets the prefix of generated object names
func WithObjectPrefix(prefix string) Option {
	return func(s *GCSStore) {
		s.prefix = prefix
	}
}

// NewGCS creates a Store writing to the given bucket
func NewGCS(ctx context.Context, bucket string, opts ...Option) (*GCSStore, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	s := &GCSStore{
		client: client,
		bucket: bucket,
		prefix: DefaultObjectPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *GCSStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) > MaxPayloadSize {
		return "", goerr.New("audio payload too large", goerr.V("size", len(data)))
	}
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	name := s.prefix + uuid.New().String()
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = mimeType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write audio object",
			goerr.V("bucket", s.bucket),
			goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize audio object",
			goerr.V("bucket", s.bucket),
			goerr.V("object", name))
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
