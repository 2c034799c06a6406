package s3

import (
	"context"
	"errors"
	"io"
)

var ErrKeyNotFound = errors.New("key not found")

type BasicClient interface {
	Getter
	BufferPutter
	Deleter
	URI(key string) string
}

type Getter interface {
	// Get returns ErrKeyNotFound if the given key doesn't exist.
	Get(ctx context.Context, key string) (data []byte, err error)
}

// BufferPutter can be used to put a file to S3 since File implements Read and Seek.
type BufferPutter interface {
	BufferPut(ctx context.Context, key string, buf io.ReadSeeker, contentType string) (err error)
}

type Deleter interface {
	Delete(ctx context.Context, key string) error
}
