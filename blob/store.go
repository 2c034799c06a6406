//go:generate mockgen -package mocks -destination mocks/store.go -source=store.go
package blob

import (
	"context"
	"errors"
	"io"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is where the generated CSV is staged for the warehouse to load.
type Store interface {
	// Put writes the object at key, replacing any existing object.
	Put(ctx context.Context, key string, r io.ReadSeeker, contentType string) error
	// Get returns ErrKeyNotFound if the given key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// URI is the location of key as the warehouse understands it.
	URI(key string) string
	Close() error
}
