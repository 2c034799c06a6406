package blob

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
)

// FileStore keeps objects in a local directory.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("error creating storage directory %v: %v", abs, err)
	}
	return &FileStore{Dir: abs}, nil
}

// Put writes to a temporary file and renames it so readers never see a partial object.
func (s *FileStore) Put(ctx context.Context, key string, r io.ReadSeeker, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	tmp, err := ioutil.TempFile(filepath.Dir(target), ".upload-*")
	if err != nil {
		return err
	}
	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := ioutil.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}
	return b, err
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return ErrKeyNotFound
	}
	return err
}

func (s *FileStore) URI(key string) string {
	return "file://" + filepath.ToSlash(s.path(key))
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(key))
}
