package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vbonduro/homeinv/internal/domain"
)

// FileStore keeps the inventory as a single JSON document on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create document directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the document. A missing file is an empty inventory; an
// unreadable or malformed one is an error.
func (s *FileStore) Load(ctx context.Context) (*domain.Inventory, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewInventory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	inv, err := domain.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return inv, nil
}

// Save rewrites the whole document through a temp file and a rename so a
// crash mid-write leaves the previous document intact.
func (s *FileStore) Save(ctx context.Context, inv *domain.Inventory) error {
	data, err := domain.EncodeDocument(inv)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".inventory-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	removeTmp := func() {
		if rerr := os.Remove(tmpPath); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			slog.Error("failed to remove temp document", "path", tmpPath, "error", rerr)
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		removeTmp()
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		removeTmp()
		return fmt.Errorf("failed to sync document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		removeTmp()
		return fmt.Errorf("failed to close document: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		removeTmp()
		return fmt.Errorf("failed to set document permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		removeTmp()
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }
