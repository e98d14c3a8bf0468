// Package storage persists model artifacts under the configured storage root.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactStore manages artifact storage and retrieval on the local
// filesystem. Artifact URIs use the file:// scheme.
type ArtifactStore struct {
	root string
}

// NewArtifactStore creates the store, ensuring the root directory exists
func NewArtifactStore(root string) (*ArtifactStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root not configured")
	}
	if err := os.MkdirAll(filepath.Join(root, "models"), 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &ArtifactStore{root: root}, nil
}

// SaveModel writes a trained model artifact and returns its URI
func (s *ArtifactStore) SaveModel(model, runID string, payload []byte) (string, error) {
	dir := filepath.Join(s.root, "models", model)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	path := filepath.Join(dir, runID+".bin")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return "file://" + path, nil
}

// Read returns the artifact payload for a file:// URI
func (s *ArtifactStore) Read(uri string) ([]byte, error) {
	path := strings.TrimPrefix(uri, "file://")
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", uri, err)
	}
	return payload, nil
}

// Exists reports whether the artifact behind a file:// URI is present
func (s *ArtifactStore) Exists(uri string) bool {
	path := strings.TrimPrefix(uri, "file://")
	_, err := os.Stat(path)
	return err == nil
}
