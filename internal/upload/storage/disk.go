package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"

	"github.com/plagscan/plagscan-dashboard/internal/upload/domain"
)

// DiskStore writes uploads into a local directory
type DiskStore struct {
	dir string
}

// NewDiskStore creates a disk store rooted at dir. The directory is created
// lazily on the first save.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Backend implements Store
func (s *DiskStore) Backend() string { return "disk" }

// Dir returns the root directory
func (s *DiskStore) Dir() string { return s.dir }

// Save implements Store
func (s *DiskStore) Save(ctx context.Context, name string, content io.Reader) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create upload dir: %w", err)
	}

	target := filepath.Join(s.dir, name)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, domain.ErrExists
		}
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, content)
	if err != nil {
		f.Close()
		os.Remove(target)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return 0, fmt.Errorf("failed to close file: %w", err)
	}

	return n, nil
}

// Open implements Store
func (s *DiskStore) Open(ctx context.Context, name string) (*Object, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, domain.ErrNotFound
	}

	return &Object{
		Name:        name,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		ModTime:     info.ModTime(),
		Body:        f,
	}, nil
}
