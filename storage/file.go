package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore implements a key-value store using the local file system.
// Each entry is one file under baseDir/namespace, named by the SHA-256 of its key.
type FileStore struct {
	baseDir     string
	dir         string
	namespace   string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a new file store rooted at baseDir.
// It creates the namespace subdirectory if it doesn't exist.
func NewFileStore(baseDir string, namespace string, log *slog.Logger) (*FileStore, error) {
	dir := filepath.Join(baseDir, namespace)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &FileStore{
		baseDir:     baseDir,
		dir:         dir,
		namespace:   namespace,
		log:         log,
		locationURI: fmt.Sprintf("file://%s?namespace=%s", baseDir, namespace),
	}, nil
}

// Get reads the entry file for key. A missing file is a miss, not an error.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	filePath := s.entryPath(key)

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read file: %w", err)
	}

	s.log.Debug("Fetched entry from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return string(data), true, nil
}

// Set writes the entry to a temporary file and renames it into place so
// readers never observe a partial value.
func (s *FileStore) Set(ctx context.Context, key string, value string) error {
	filePath := s.entryPath(key)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	s.log.Debug("Stored entry in file", slog.String("path", filePath))
	return nil
}

// Available checks if the store directory exists.
func (s *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(s.dir)
	if err != nil {
		s.log.Debug("File store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.baseDir))
}

// LocationURI returns the URI that identifies this store.
func (s *FileStore) LocationURI() string {
	return s.locationURI
}

func (s *FileStore) entryPath(key string) string {
	return filepath.Join(s.dir, entryName(key))
}
