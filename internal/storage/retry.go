package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

// RetryOptions bounds the retry loop around transient failures
type RetryOptions struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryOptions retries three times starting at 200ms
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:      3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// RetryingStore retries ErrTransient failures of the wrapped store with exponential backoff.
// Not-found and access-denied errors are returned immediately.
type RetryingStore struct {
	next ObjectStore
	opts RetryOptions
}

// NewRetryingStore wraps next
func NewRetryingStore(next ObjectStore, opts RetryOptions) *RetryingStore {
	return &RetryingStore{next: next, opts: opts}
}

// Put writes through to the wrapped store
func (s *RetryingStore) Put(ctx context.Context, ref model.ObjectRef, data []byte) error {
	return s.retry(ctx, "put", ref, func() error {
		return s.next.Put(ctx, ref, data)
	})
}

// Get reads through from the wrapped store
func (s *RetryingStore) Get(ctx context.Context, ref model.ObjectRef) ([]byte, error) {
	var data []byte
	err := s.retry(ctx, "get", ref, func() error {
		var err error
		data, err = s.next.Get(ctx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RetryingStore) retry(ctx context.Context, op string, ref model.ObjectRef, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.InitialInterval
	if s.opts.MaxInterval > 0 {
		b.MaxInterval = s.opts.MaxInterval
	}
	b.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		slog.Warn("object storage call failed, retrying",
			"op", op,
			"object", ref.String(),
			"attempt", attempt,
			"err", err)
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, s.opts.MaxRetries), ctx))
}
