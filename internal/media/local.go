package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"yatube/internal/observability"
)

// LocalStore writes files below a root directory served at baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{root: root, baseURL: baseURL}, nil
}

// Root is the directory holding stored files.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Backend() string { return "local" }

func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return err
	}
	observability.MediaUploads.WithLabelValues(s.Backend()).Inc()
	return nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + key
}

func (s *LocalStore) resolve(key string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("media key %q escapes root", key)
	}
	return full, nil
}
