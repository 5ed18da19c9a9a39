package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore writes objects under a base directory and returns URLs below the
// configured base URL, where the server mounts a file handler.
type FileStore struct {
	Dir     string
	BaseURL string
}

func NewFileStore(dir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FileStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (f *FileStore) Put(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	clean, err := f.cleanPath(path)
	if err != nil {
		return "", err
	}

	full := filepath.Join(f.Dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	out, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create object file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	return f.BaseURL + "/" + filepath.ToSlash(clean), nil
}

func (f *FileStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	clean, err := f.cleanPath(path)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(f.Dir, clean))
}

// cleanPath rejects anything that would escape the base directory.
func (f *FileStore) cleanPath(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object path %q", path)
	}
	return clean, nil
}
