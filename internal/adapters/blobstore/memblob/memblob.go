// Package memblob is an in-process BlobStore for local development and tests.
package memblob

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/ports/storage"
)

const defaultPageSize = 1000

type object struct {
	data        []byte
	contentType string
}

// Store keeps objects in a map guarded by a RWMutex. Keys are listed in
// lexical order, the same order GCS uses.
type Store struct {
	mu         sync.RWMutex
	objects    map[string]object
	batchLimit int
}

var _ storage.BlobStore = (*Store)(nil)

// New returns an empty Store whose DeleteBatch accepts at most batchLimit keys.
func New(batchLimit int) *Store {
	if batchLimit <= 0 {
		batchLimit = defaultPageSize
	}
	return &Store{objects: make(map[string]object), batchLimit: batchLimit}
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.NewStorageError("put "+key, err)
	}
	if key == "" {
		return "", apperrors.NewStorageError("put", fmt.Errorf("empty key"))
	}
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	s.objects[key] = object{data: cp, contentType: contentType}
	s.mu.Unlock()
	return "mem://" + key, nil
}

// ListByPrefix uses the last returned key as the continuation token.
func (s *Store) ListByPrefix(ctx context.Context, prefix string, pageToken string, pageSize int) (storage.ListPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.ListPage{}, apperrors.NewStorageError("list "+prefix, err)
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	s.mu.RLock()
	keys := make([]string, 0)
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) && k > pageToken {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(keys)

	page := storage.ListPage{Keys: keys}
	if len(keys) > pageSize {
		page.Keys = keys[:pageSize]
		page.Truncated = true
		page.NextPageToken = page.Keys[pageSize-1]
	}
	return page, nil
}

func (s *Store) DeleteOne(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewStorageError("delete "+key, err)
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) DeleteBatch(ctx context.Context, keys []string) error {
	if len(keys) > s.batchLimit {
		return apperrors.NewStorageError("delete batch", fmt.Errorf("batch of %d keys exceeds limit %d", len(keys), s.batchLimit))
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewStorageError("delete batch", err)
	}
	s.mu.Lock()
	for _, k := range keys {
		delete(s.objects, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) BatchLimit() int {
	return s.batchLimit
}

// SignedReadURL returns a pseudo URL; there is nothing to sign in process.
func (s *Store) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("object %s: %w", key, apperrors.ErrNotFound)
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("mem://%s?expires=%d", url.PathEscape(key), expires), nil
}

// Get returns a copy of the stored object.
func (s *Store) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp, obj.contentType, true
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
