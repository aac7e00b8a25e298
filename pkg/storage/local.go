package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Local stores objects as files under a base directory.
type Local struct {
	Base string
}

// NewLocal creates the base directory if needed and returns a Local store.
func NewLocal(base string) (*Local, error) {
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, err
	}
	return &Local{Base: base}, nil
}

func (l *Local) fullPath(path string) string {
	return filepath.Join(l.Base, filepath.FromSlash(path))
}

func (l *Local) Save(ctx context.Context, path string, data []byte) error {
	full := l.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return &UploadError{Path: path, Err: err}
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return &UploadError{Path: path, Err: err}
	}
	return nil
}

func (l *Local) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return os.Open(l.fullPath(path))
}

func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(l.fullPath(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *Local) Delete(ctx context.Context, path string) error {
	err := os.Remove(l.fullPath(path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
