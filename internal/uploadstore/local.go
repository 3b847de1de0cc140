package uploadstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const tmpDirName = ".tmp"

// LocalStore keeps uploaded images as flat files under one directory.
type LocalStore struct {
	root string
	now  func() time.Time
}

// NewLocalStore creates a store rooted at root, creating the directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("upload root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, tmpDirName), 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: abs, now: time.Now}, nil
}

// Root returns the absolute upload directory.
func (s *LocalStore) Root() string {
	return s.root
}

// Save streams r into a new file named YYYYMMDD_<uuid><ext>.
func (s *LocalStore) Save(ctx context.Context, ext string, r io.Reader, maxBytes int64) (SaveResult, error) {
	var zero SaveResult
	if s == nil {
		return zero, fmt.Errorf("upload store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	ext = strings.ToLower(ext)
	if ext != "" && (!strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`)) {
		return zero, ErrInvalidName
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, tmpDirName), "put-*")
	if err != nil {
		return zero, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(tmp, src)
	if err != nil {
		cleanup()
		return zero, err
	}
	if maxBytes > 0 && n > maxBytes {
		cleanup()
		return zero, ErrTooLarge
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return zero, err
	}

	name := fmt.Sprintf("%s_%s%s", s.now().UTC().Format("20060102"), uuid.NewString(), ext)
	if err := os.Rename(tmpPath, filepath.Join(s.root, name)); err != nil {
		cleanup()
		return zero, err
	}
	return SaveResult{Name: name, SizeBytes: n}, nil
}

// Open returns the named upload for reading.
func (s *LocalStore) Open(ctx context.Context, name string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.regularFile(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Stat returns file info for a regular upload file.
func (s *LocalStore) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, os.ErrNotExist
	}
	return info, nil
}

// Delete removes the named upload.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.regularFile(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Resolve maps an upload name to its path without touching the filesystem.
// Names with separators, dot segments or hidden prefixes are rejected.
func (s *LocalStore) Resolve(name string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("upload store is not configured")
	}
	if name == "" || name != strings.TrimSpace(name) {
		return "", ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	path := filepath.Join(s.root, name)
	if filepath.Dir(path) != s.root {
		return "", ErrInvalidName
	}
	return path, nil
}

func (s *LocalStore) regularFile(name string) (string, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return "", err
	}
	info, err := os.Lstat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", os.ErrNotExist
	}
	return path, nil
}

// AllowedExtension returns the lowercase extension of filename when it is in allowed.
func AllowedExtension(filename string, allowed []string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", false
	}
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if !strings.HasPrefix(candidate, ".") {
			candidate = "." + candidate
		}
		if candidate == ext {
			return ext, true
		}
	}
	return "", false
}

// IsNotExist reports whether err means the upload is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
