package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Blob store errors.
var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrInvalidName  = errors.New("invalid blob name")
)

// BlobStore persists named blobs as files in one directory.
// Writes are atomic: a reader sees the old or the new content, never a mix.
type BlobStore struct {
	mu  sync.Mutex
	dir string
}

// NewBlobStore creates a blob store rooted at dir. The directory is created
// on the first write.
func NewBlobStore(dir string) *BlobStore {
	return &BlobStore{dir: dir}
}

// Dir returns the store directory.
func (s *BlobStore) Dir() string {
	return s.dir
}

// Save writes data under name.
func (s *BlobStore) Save(name string, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	return writeFileAtomic(p, data, 0644)
}

// Load reads the blob stored under name.
func (s *BlobStore) Load(name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
	}
	return data, err
}

// Delete removes the blob stored under name. Missing blobs are not an error.
func (s *BlobStore) Delete(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(p)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// path maps a blob name to a file in the store directory. Names are plain
// file names; separators and dot names are rejected.
func (s *BlobStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
