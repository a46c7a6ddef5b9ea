package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileActions persists uploaded originals under a single directory so the
// index can be rebuilt from them after a restart. Embeddings themselves are
// never persisted.
type FileActions struct {
	UploadDir string
}

// NewFileActions resolves the upload directory to an absolute path and
// creates it if missing.
func NewFileActions(dir string) (*FileActions, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory not configured")
	}
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve upload directory %q: %w", dir, err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("could not create upload directory %q: %w", absPath, err)
	}
	return &FileActions{UploadDir: absPath}, nil
}

// sanitizePath confines a stored filename to the upload directory. The
// Base call strips any directory components, preventing path traversal.
func (fa *FileActions) sanitizePath(filename string) (string, error) {
	cleanPath := filepath.Join(fa.UploadDir, filepath.Base(filename))
	if !strings.HasPrefix(cleanPath, fa.UploadDir) {
		return "", fmt.Errorf("invalid filename %q, escapes upload directory", filename)
	}
	return cleanPath, nil
}

// Save writes an uploaded file into the upload directory, prefixing the
// name with the document id so repeated uploads of the same file never
// collide.
func (fa *FileActions) Save(docID, filename string, data []byte) (string, error) {
	path, err := fa.sanitizePath(docID + "_" + filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("could not store upload %q: %w", filename, err)
	}
	return path, nil
}

// Remove deletes the stored original for a document. A file already gone is
// not an error.
func (fa *FileActions) Remove(docID, filename string) error {
	path, err := fa.sanitizePath(docID + "_" + filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not remove stored upload %q: %w", path, err)
	}
	return nil
}
