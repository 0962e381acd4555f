// Package gcs implements the blob store on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"

	"menagerie/internal/blob/core"
)

// Config selects the bucket and, for emulators, an alternate endpoint.
type Config struct {
	Bucket          string
	Endpoint        string
	CredentialsFile string
	Anonymous       bool
}

// Store implements core.Store against a single Cloud Storage bucket.
type Store struct {
	client *storage.Client
	bucket string
}

// New creates a Cloud Storage client for cfg.Bucket.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, goerr.New("gcs bucket required")
	}
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", cfg.Bucket))
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverGCS }

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string { return s.bucket }

// Put streams r into key, replacing any existing object.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.CacheControl = "no-cache, no-store, must-revalidate"
	if len(opts.Metadata) > 0 {
		w.Metadata = opts.Metadata
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return core.Info{}, goerr.Wrap(err, "failed to write object", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return core.Info{}, goerr.Wrap(err, "failed to close object writer", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}
	return infoFromAttrs(key, w.Attrs()), nil
}

// Get opens key for reading. Missing objects yield core.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	rd, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return core.Info{}, nil, s.readError(err, key)
	}
	info := core.Info{
		Key:          key,
		Size:         rd.Attrs.Size,
		ContentType:  rd.Attrs.ContentType,
		LastModified: rd.Attrs.LastModified,
	}
	return info, rd, nil
}

func (s *Store) readError(err error, key string) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return goerr.Wrap(core.ErrNotFound, "object missing", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}
	return goerr.Wrap(err, "failed to read object", goerr.V("bucket", s.bucket), goerr.V("key", key))
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

func infoFromAttrs(key string, attrs *storage.ObjectAttrs) core.Info {
	if attrs == nil {
		return core.Info{Key: key}
	}
	return core.Info{
		Key:          key,
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		ETag:         attrs.Etag,
		Metadata:     attrs.Metadata,
		LastModified: attrs.Updated,
	}
}
