package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Storage accepts an uploaded object and returns a public reference URL.
// The rest of the system stores only the returned string, never raw bytes.
type Storage interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Local writes uploads to a directory served under baseURL.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, baseURL: baseURL}, nil
}

// Save stores the object under a fresh name, keeping only the original
// extension, and returns its public URL.
func (l *Local) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := uuid.New().String() + filepath.Ext(filename)
	path := filepath.Join(l.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	return l.baseURL + "/" + name, nil
}
