package uploadstore

import (
	"context"
	"errors"
	"io"
	"os"
)

var (
	// ErrInvalidName is returned for names that are not a single plain file name.
	ErrInvalidName = errors.New("invalid upload name")
	// ErrTooLarge is returned when a payload exceeds the size cap.
	ErrTooLarge = errors.New("upload exceeds size limit")
)

// SaveResult describes one stored upload.
type SaveResult struct {
	Name      string
	SizeBytes int64
}

// Store is the byte-storage abstraction behind the upload endpoints.
type Store interface {
	Save(ctx context.Context, ext string, r io.Reader, maxBytes int64) (SaveResult, error)
	Open(ctx context.Context, name string) (*os.File, error)
	Stat(ctx context.Context, name string) (os.FileInfo, error)
	Delete(ctx context.Context, name string) error
	Resolve(name string) (string, error)
}

var _ Store = (*LocalStore)(nil)
