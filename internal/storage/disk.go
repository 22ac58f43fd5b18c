package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store defines the interface for video file storage backends.
type Store interface {
	Save(filename string, data io.Reader) (int64, error)
	Path(filename string) string
	Exists(filename string) bool
	Remove(filename string) error
	EnsureDir() error
}

// DiskStore stores uploaded video files on the local filesystem, keyed by the
// client-supplied filename. A second upload with the same name overwrites the
// first file on disk.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a new filesystem storage backend rooted at dir.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// EnsureDir creates the upload directory if it doesn't exist.
func (s *DiskStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory %s: %w", s.dir, err)
	}
	return nil
}

// Save writes data to a file under the upload directory. The filename is
// reduced to its basename so a crafted name cannot escape the directory.
// Returns the number of bytes written.
func (s *DiskStore) Save(filename string, data io.Reader) (int64, error) {
	path := s.Path(filename)

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	n, err := io.Copy(file, data)
	if err != nil {
		// Clean up partial file on error
		os.Remove(path)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return n, nil
}

// Path returns the on-disk path for a stored filename.
func (s *DiskStore) Path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

// Exists reports whether a file is present for the given filename.
func (s *DiskStore) Exists(filename string) bool {
	_, err := os.Stat(s.Path(filename))
	return err == nil
}

// Remove deletes the stored file. A missing file is not an error.
func (s *DiskStore) Remove(filename string) error {
	path := s.Path(filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}
