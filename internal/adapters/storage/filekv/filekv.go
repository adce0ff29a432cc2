// Package filekv provides a file-backed key-value store: one file per key
// under a single directory, written atomically via temp-file rename. It is
// the zero-dependency durable driver for local development; production
// deployments use the sqlite driver.
package filekv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/quotesync/quotesync/internal/domain"
)

// checkerName identifies this adapter in health results.
const checkerName = "durable-storage"

// Store persists values as files under a base directory.
type Store struct {
	dir string
}

// New creates the base directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filekv: directory must not be empty")
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Get retrieves the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NewNotFoundError("key", key)
	}

	if err != nil {
		return nil, domain.NewStorageError("get", key, err)
	}

	return data, nil
}

// Set stores value under key. The write goes to a temp file first and is
// renamed into place so a crash mid-write never leaves a torn value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return domain.NewStorageError("set", key, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return domain.NewStorageError("set", key, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return domain.NewStorageError("set", key, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return domain.NewStorageError("set", key, err)
	}

	return nil
}

// Delete removes the value stored under key.
func (s *Store) Delete(_ context.Context, key string) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.NewStorageError("delete", key, err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return checkerName
}

// Check implements ports.HealthChecker by verifying the base directory is
// still present and accessible.
func (s *Store) Check(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("storage directory inaccessible: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("storage path %q is not a directory", s.dir)
	}

	return nil
}

// keyPath maps a key to its backing file, rejecting keys that would escape
// the base directory.
func (s *Store) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", domain.NewStorageError("resolve", key, fmt.Errorf("invalid key"))
	}

	return filepath.Join(s.dir, key), nil
}
