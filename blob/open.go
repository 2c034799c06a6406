package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/relloyd/salespipe/aws/s3"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/gcp/gcs"
	"google.golang.org/api/option"
)

// Open returns the Store for cfg.Type.
// Bucket may carry a prefix as in my-bucket/some/prefix.
func Open(ctx context.Context, cfg config.Storage) (Store, error) {
	switch cfg.Type {
	case constants.StorageTypeFile:
		return NewFileStore(cfg.Bucket)
	case constants.StorageTypeS3:
		b, err := s3.ParseDSN(cfg.Bucket, cfg.Region)
		if err != nil {
			return nil, err
		}
		c, err := s3.NewBasicClient(b.Name, b.Region, b.Prefix)
		if err != nil {
			return nil, err
		}
		return &s3Store{client: c}, nil
	case constants.StorageTypeGCS:
		bucket, prefix, err := gcs.ParseBucket(cfg.Bucket)
		if err != nil {
			return nil, err
		}
		opts := make([]option.ClientOption, 0)
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		c, err := gcs.NewClient(ctx, bucket, prefix, opts...)
		if err != nil {
			return nil, err
		}
		return &gcsStore{client: c}, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

// URIFor returns the URI that the store opened from cfg would give key, without connecting to it.
func URIFor(cfg config.Storage, key string) (string, error) {
	withPrefix := func(prefix string) string {
		if prefix != "" {
			return strings.TrimRight(prefix, "/") + "/" + key
		}
		return key
	}
	switch cfg.Type {
	case constants.StorageTypeFile:
		abs, err := filepath.Abs(cfg.Bucket)
		if err != nil {
			return "", err
		}
		return (&FileStore{Dir: abs}).URI(key), nil
	case constants.StorageTypeS3:
		b, err := s3.ParseDSN(cfg.Bucket, cfg.Region)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("s3://%v/%v", b.Name, withPrefix(b.Prefix)), nil
	case constants.StorageTypeGCS:
		bucket, prefix, err := gcs.ParseBucket(cfg.Bucket)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("gs://%v/%v", bucket, withPrefix(prefix)), nil
	default:
		return "", fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

type s3Store struct {
	client s3.BasicClient
}

func (s *s3Store) Put(ctx context.Context, key string, r io.ReadSeeker, contentType string) error {
	return s.client.BufferPut(ctx, key, r, contentType)
}

func (s *s3Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key)
	if errors.Is(err, s3.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	return b, err
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	return s.client.Delete(ctx, key)
}

func (s *s3Store) URI(key string) string {
	return s.client.URI(key)
}

func (s *s3Store) Close() error {
	return nil
}

type gcsStore struct {
	client *gcs.Client
}

func (s *gcsStore) Put(ctx context.Context, key string, r io.ReadSeeker, contentType string) error {
	return s.client.Put(ctx, key, r, contentType)
}

func (s *gcsStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key)
	if errors.Is(err, gcs.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	return b, err
}

func (s *gcsStore) Delete(ctx context.Context, key string) error {
	err := s.client.Delete(ctx, key)
	if errors.Is(err, gcs.ErrKeyNotFound) {
		return ErrKeyNotFound
	}
	return err
}

func (s *gcsStore) URI(key string) string {
	return s.client.URI(key)
}

func (s *gcsStore) Close() error {
	return s.client.Close()
}
