package canvas

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a file-backed canvas store for CLI use.
// The whole canvas is held in memory and written back as a JSON [Document]
// by Flush. A missing file is an empty canvas.
type FileStore struct {
	*Memory
	mu   sync.Mutex
	path string
}

// NewFileStore opens the document at path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("open canvas: empty path")
	}
	mem := NewMemory()
	doc, err := ReadDocumentFile(path)
	switch {
	case err == nil:
		if mem, err = NewMemoryFromDocument(doc); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	return &FileStore{Memory: mem, path: path}, nil
}

// Flush writes the current canvas to disk. The file is replaced atomically
// via a temporary file in the same directory.
func (s *FileStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := Snapshot(ctx, s.Memory)
	if err != nil {
		return err
	}
	data, err := MarshalDocument(doc)
	if err != nil {
		return fmt.Errorf("marshal canvas: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create canvas dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".canvas-*.json")
	if err != nil {
		return fmt.Errorf("write canvas file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write canvas file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write canvas file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace canvas file: %w", err)
	}
	return nil
}

// Path returns the document path.
func (s *FileStore) Path() string {
	return s.path
}

var _ Store = (*FileStore)(nil)
