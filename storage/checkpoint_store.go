package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CheckpointStore stores training checkpoints as opaque blobs. Locations
// are opaque handles; metadata records reference them by string only.
type CheckpointStore interface {
	Save(ctx context.Context, key string, data []byte) (location string, err error)
	Load(ctx context.Context, location string) ([]byte, error)
}

// LocalStore keeps checkpoints on the local filesystem
type LocalStore struct {
	dir string
}

// NewLocalStore creates a checkpoint store rooted at dir
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes the blob under the store root and returns its location
func (s *LocalStore) Save(_ context.Context, key string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return "file://" + path, nil
}

// Load reads a blob previously saved by this store
func (s *LocalStore) Load(_ context.Context, location string) ([]byte, error) {
	path := strings.TrimPrefix(location, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint not found at %s: %w", location, err)
	}
	return data, nil
}
