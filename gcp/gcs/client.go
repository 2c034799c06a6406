package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var ErrKeyNotFound = errors.New("key not found")

// Client reads and writes objects under an optional prefix of one bucket.
type Client struct {
	bucket string
	prefix string
	client *storage.Client
}

// NewClient connects to Cloud Storage using application default credentials unless opts say otherwise.
func NewClient(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Client, error) {
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating cloud storage client: %v", err)
	}
	return &Client{bucket: bucket, prefix: prefix, client: c}, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := c.client.Bucket(c.bucket).Object(c.getKeyWithPrefix(key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrKeyNotFound
	} else if err != nil {
		return nil, err
	}
	defer r.Close()
	return ioutil.ReadAll(r)
}

// Put uploads data to key, replacing any existing object.
func (c *Client) Put(ctx context.Context, key string, data io.Reader, contentType string) error {
	w := c.client.Bucket(c.bucket).Object(c.getKeyWithPrefix(key)).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close() // the upload completes on Close.
}

func (c *Client) Delete(ctx context.Context, key string) error {
	err := c.client.Bucket(c.bucket).Object(c.getKeyWithPrefix(key)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrKeyNotFound
	}
	return err
}

// URI returns the gs:// location of key.
func (c *Client) URI(key string) string {
	return fmt.Sprintf("gs://%v/%v", c.bucket, c.getKeyWithPrefix(key))
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) getKeyWithPrefix(key string) string {
	if c.prefix != "" {
		return strings.TrimRight(c.prefix, "/") + "/" + key
	}
	return key
}

// ParseBucket splits [gs://]<bucket>[/<prefix>] into its bucket and prefix.
func ParseBucket(bucketPrefix string) (bucket string, prefix string, err error) {
	if !strings.Contains(bucketPrefix, "://") {
		bucketPrefix = "gs://" + bucketPrefix
	}
	u, err := url.Parse(bucketPrefix)
	if err != nil {
		return "", "", fmt.Errorf("error parsing GCS URL: %v", err)
	}
	if u.Scheme != "gs" {
		return "", "", fmt.Errorf("expected GCS URL scheme %q but got %q", "gs", u.Scheme)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("failed to parse bucket name from %q", bucketPrefix)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
