package blob

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// ErrNotFound is returned by Get when no blob exists at the path.
var ErrNotFound = errors.New("blob not found")

// Store is durable byte storage for uploaded documents, addressed by path.
type Store interface {
	Put(path string, data []byte) error
	Get(path string) ([]byte, error)
	// Delete removes the blob if it exists. Best effort: deleting an absent
	// path is not an error.
	Delete(path string) error
	// NewPath generates a fresh storage path for an upload with the given
	// file extension.
	NewPath(ext string) string
}

// FSStore stores blobs as files under a single directory.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Put(path string, data []byte) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("writing blob: %w", err)
	}
	return nil
}

func (s *FSStore) Get(path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}

func (s *FSStore) Delete(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}

// NewPath mirrors the upload naming scheme: receipt-<unix-ms>-<rand><ext>.
func (s *FSStore) NewPath(ext string) string {
	return fmt.Sprintf("receipt-%d-%d%s", time.Now().UnixMilli(), rand.Int63n(1_000_000_000), ext)
}

// resolve joins the path with the store directory and rejects escapes.
func (s *FSStore) resolve(path string) (string, error) {
	full := filepath.Join(s.dir, filepath.Clean("/"+path))
	if rel, err := filepath.Rel(s.dir, full); err != nil || rel == ".." || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return full, nil
}
