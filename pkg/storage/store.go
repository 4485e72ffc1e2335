package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when a key does not exist in the store.
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectStore persists binary artifacts (QR images, brand assets) under
// slash separated keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// URL returns a location a client can fetch the object from.
	URL(ctx context.Context, key string) (string, error)
}

// ReadAll fetches an object fully into memory.
func ReadAll(ctx context.Context, store ObjectStore, key string) ([]byte, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
