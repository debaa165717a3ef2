// Package gcs implements storage.BlobStore on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/ports/storage"
)

const (
	defaultBatchLimit        = 1000
	defaultDeleteConcurrency = 16
)

// Store is a BlobStore backed by a single GCS bucket.
type Store struct {
	client            *gcstorage.Client
	bucket            string
	batchLimit        int
	deleteConcurrency int
	opTimeout         time.Duration

	signerEmail string
	privateKey  []byte
}

var _ storage.BlobStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithBatchLimit caps the number of keys accepted by DeleteBatch.
func WithBatchLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

// WithOpTimeout bounds every bucket call.
func WithOpTimeout(d time.Duration) Option {
	return func(s *Store) { s.opTimeout = d }
}

// WithSigner sets the service account used for V4 signed URLs. Without it the
// client credentials are used.
func WithSigner(email string, privateKey []byte) Option {
	return func(s *Store) {
		s.signerEmail = email
		s.privateKey = privateKey
	}
}

// WithDeleteConcurrency bounds the parallel object deletes of one batch.
func WithDeleteConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.deleteConcurrency = n
		}
	}
}

// New creates a storage client and wraps it.
func New(ctx context.Context, bucket string, clientOpts []option.ClientOption, opts ...Option) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket name is required")
	}
	client, err := gcstorage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: failed to create client: %w", err)
	}
	return NewWithClient(client, bucket, opts...), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *gcstorage.Client, bucket string, opts ...Option) *Store {
	s := &Store{
		client:            client,
		bucket:            bucket,
		batchLimit:        defaultBatchLimit,
		deleteConcurrency: defaultDeleteConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// Put uploads data in a single request. Documents are bounded by the upload
// limits so resumable chunking buys nothing.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = 0

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", apperrors.NewStorageError("failed to upload "+key, err)
	}
	if err := w.Close(); err != nil {
		return "", apperrors.NewStorageError("failed to finalize upload of "+key, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

func (s *Store) ListByPrefix(ctx context.Context, prefix string, pageToken string, pageSize int) (storage.ListPage, error) {
	if pageSize <= 0 {
		pageSize = s.batchLimit
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	it := s.client.Bucket(s.bucket).Objects(ctx, &gcstorage.Query{Prefix: prefix})
	pager := iterator.NewPager(it, pageSize, pageToken)

	var attrs []*gcstorage.ObjectAttrs
	next, err := pager.NextPage(&attrs)
	if err != nil {
		return storage.ListPage{}, apperrors.NewStorageError("failed to list "+prefix, err)
	}

	keys := make([]string, 0, len(attrs))
	for _, a := range attrs {
		keys = append(keys, a.Name)
	}
	return storage.ListPage{Keys: keys, NextPageToken: next, Truncated: next != ""}, nil
}

// DeleteOne treats a missing object as already deleted.
func (s *Store) DeleteOne(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcstorage.ErrObjectNotExist) {
		return apperrors.NewStorageError("failed to delete "+key, err)
	}
	return nil
}

// DeleteBatch removes up to BatchLimit keys. GCS has no multi-object delete
// on the JSON API, so keys are deleted concurrently.
func (s *Store) DeleteBatch(ctx context.Context, keys []string) error {
	if len(keys) > s.batchLimit {
		return apperrors.NewStorageError("delete batch", fmt.Errorf("batch of %d keys exceeds limit %d", len(keys), s.batchLimit))
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	bucket := s.client.Bucket(s.bucket)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.deleteConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			err := bucket.Object(key).Delete(gctx)
			if err != nil && !errors.Is(err, gcstorage.ErrObjectNotExist) {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return apperrors.NewStorageError("failed to delete batch", err)
	}
	return nil
}

func (s *Store) BatchLimit() int {
	return s.batchLimit
}

func (s *Store) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	opts := &gcstorage.SignedURLOptions{
		Scheme:  gcstorage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	}
	if s.signerEmail != "" && len(s.privateKey) > 0 {
		opts.GoogleAccessID = s.signerEmail
		opts.PrivateKey = s.privateKey
	}
	u, err := s.client.Bucket(s.bucket).SignedURL(key, opts)
	if err != nil {
		return "", apperrors.NewStorageError("failed to sign URL for "+key, err)
	}
	return u, nil
}
