// Package storage persists uploaded blobs and resolves their public URLs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore is the blob storage the photo pipeline writes to.
type FileStore interface {
	// Save writes data under the store's root at relPath, creating parent
	// directories as needed.
	Save(relPath string, data []byte) error
	// Remove deletes the blob at relPath. Removing a missing blob is not an
	// error.
	Remove(relPath string) error
	// URL resolves relPath to the public URL clients can fetch it from.
	URL(relPath string) string
}

// LocalStore keeps blobs on the local filesystem under a media root and
// builds URLs by concatenating the configured base URL with the relative
// path.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a LocalStore rooted at root.
func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *LocalStore) Save(relPath string, data []byte) error {
	abs := filepath.Join(s.root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	return nil
}

func (s *LocalStore) Remove(relPath string) error {
	abs := filepath.Join(s.root, filepath.FromSlash(relPath))
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", relPath, err)
	}
	return nil
}

func (s *LocalStore) URL(relPath string) string {
	return s.baseURL + "/media/" + strings.TrimLeft(relPath, "/")
}
