package storage

import (
	"context"
	"time"
)

// ListPage is one page of keys returned by ListByPrefix.
type ListPage struct {
	Keys          []string
	NextPageToken string
	Truncated     bool // More keys remain under the prefix
}

// BlobReader defines read operations on the blob store.
type BlobReader interface {
	// ListByPrefix lists at most pageSize keys under prefix, continuing from pageToken.
	ListByPrefix(ctx context.Context, prefix string, pageToken string, pageSize int) (ListPage, error)

	// SignedReadURL returns a URL that allows reading key until ttl elapses.
	SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// BlobWriter defines write operations on the blob store.
type BlobWriter interface {
	// Put stores data under key and returns its location.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	DeleteOne(ctx context.Context, key string) error

	// DeleteBatch deletes up to BatchLimit keys. Keys that do not exist are ignored.
	DeleteBatch(ctx context.Context, keys []string) error

	// BatchLimit is the largest batch DeleteBatch accepts.
	BatchLimit() int
}

// BlobStore combines all blob store operations.
type BlobStore interface {
	BlobReader
	BlobWriter
}
