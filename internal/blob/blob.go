package blob

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"dossier/internal/config"
)

// Store persists uploaded documents and resolves their public URLs. Step
// content only ever references the returned URLs, never raw bytes.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	PublicURL(name string) string
}

// LocalStore writes uploads to a directory on disk.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore builds a LocalStore from configuration.
func NewLocalStore(cfg *config.Config) *LocalStore {
	return &LocalStore{
		root:    cfg.Paths.UploadDir,
		baseURL: cfg.Paths.PublicBaseURL,
	}
}

// Put stores data under name and returns the public URL. The write is atomic:
// data lands in a temp file first and is renamed into place.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp upload: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return s.PublicURL(cleaned), nil
}

// PublicURL resolves the externally visible URL for a stored name. Without a
// configured base URL the local file path is returned as a file URL.
func (s *LocalStore) PublicURL(name string) string {
	cleaned, err := cleanName(name)
	if err != nil {
		return ""
	}
	if s.baseURL != "" {
		return s.baseURL + "/" + cleaned
	}
	return "file://" + filepath.ToSlash(filepath.Join(s.root, filepath.FromSlash(cleaned)))
}

func cleanName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return "", fmt.Errorf("blob name required")
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("blob name %q escapes the upload root", name)
	}
	return cleaned, nil
}
