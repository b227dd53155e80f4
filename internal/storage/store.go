package storage

import (
	"context"
	"errors"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

// Errors returned by ObjectStore implementations. Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("object not found")
	ErrAccessDenied = errors.New("access denied")
	ErrTransient    = errors.New("transient storage failure")
)

// ObjectStore stores and retrieves blobs by namespace, bucket and key
type ObjectStore interface {
	// Put writes data to ref, overwriting any existing object
	Put(ctx context.Context, ref model.ObjectRef, data []byte) error

	// Get reads the object at ref
	Get(ctx context.Context, ref model.ObjectRef) ([]byte, error)
}

// IsRetryable reports whether err is worth another attempt
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
