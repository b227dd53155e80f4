package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

// FileStore keeps objects under root/<namespace>/<bucket>/<key>
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at root
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("file store root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve file store root: %w", err)
	}
	return &FileStore{root: abs}, nil
}

// Put writes data through a temp file so readers never see a partial object
func (s *FileStore) Put(ctx context.Context, ref model.ObjectRef, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.objectPath(ref)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return classifyFSError(ref, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return classifyFSError(ref, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return classifyFSError(ref, err)
	}
	if err := tmp.Close(); err != nil {
		return classifyFSError(ref, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return classifyFSError(ref, err)
	}
	return nil
}

// Get reads the object at ref
func (s *FileStore) Get(ctx context.Context, ref model.ObjectRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.objectPath(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyFSError(ref, err)
	}
	return data, nil
}

// objectPath resolves ref below root and rejects path traversal
func (s *FileStore) objectPath(ref model.ObjectRef) (string, error) {
	if ref.Namespace == "" || ref.Bucket == "" || ref.Key == "" {
		return "", fmt.Errorf("incomplete object reference %q", ref.String())
	}

	full := filepath.Join(s.root, ref.Namespace, ref.Bucket, filepath.FromSlash(ref.Key))
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", ref, ErrAccessDenied)
	}
	return full, nil
}

func classifyFSError(ref model.ObjectRef, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%s: %w", ref, ErrNotFound)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%s: %w", ref, ErrAccessDenied)
	default:
		return fmt.Errorf("%s: %w: %v", ref, ErrTransient, err)
	}
}
