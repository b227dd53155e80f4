package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

var testRef = model.ObjectRef{Namespace: "ns", Bucket: "poc-bucket", Key: "audio/clip.wav"}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, testRef)
	assert.ErrorIs(t, err, ErrNotFound)

	data := []byte("RIFF....WAVE")
	require.NoError(t, store.Put(ctx, testRef, data))

	// Mutating the caller's buffer must not change the stored object
	data[0] = 'X'

	got, err := store.Get(ctx, testRef)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF....WAVE"), got)
	assert.Equal(t, []string{"audio/clip.wav"}, store.Keys("ns", "poc-bucket"))
	assert.Equal(t, 1, store.PutCount())
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(ctx, testRef)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, testRef, []byte("first")))
	require.NoError(t, store.Put(ctx, testRef, []byte("second")))

	got, err := store.Get(ctx, testRef)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ref := model.ObjectRef{Namespace: "ns", Bucket: "b", Key: "../../../etc/passwd"}
	err = store.Put(context.Background(), ref, []byte("x"))
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = store.Get(context.Background(), model.ObjectRef{Namespace: "ns"})
	assert.Error(t, err)

	_, err = NewFileStore("")
	assert.Error(t, err)
}

func TestHTTPStore(t *testing.T) {
	objects := map[string][]byte{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			objects[r.URL.EscapedPath()] = body
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			body, ok := objects[r.URL.EscapedPath()]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write(body)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	store := NewHTTPStore(server.URL+"/", "secret")

	require.NoError(t, store.Put(ctx, testRef, []byte("audio")))
	assert.Contains(t, objects, "/n/ns/b/poc-bucket/o/audio%2Fclip.wav")

	got, err := store.Get(ctx, testRef)
	require.NoError(t, err)
	assert.Equal(t, "audio", string(got))

	_, err = store.Get(ctx, model.ObjectRef{Namespace: "ns", Bucket: "poc-bucket", Key: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewHTTPStore(server.URL, "wrong").Get(ctx, testRef)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusForbidden, ErrAccessDenied},
		{http.StatusTooManyRequests, ErrTransient},
		{http.StatusBadGateway, ErrTransient},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.ErrorIs(t, classifyStatus(testRef, tt.status, nil), tt.want)
		})
	}

	err := classifyStatus(testRef, http.StatusBadRequest, []byte("bad key"))
	assert.False(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "bad key")
}

// flakyStore fails with the queued errors before delegating to a MemoryStore
type flakyStore struct {
	*MemoryStore
	failures []error
	calls    int
}

func (s *flakyStore) next() error {
	s.calls++
	if len(s.failures) == 0 {
		return nil
	}
	err := s.failures[0]
	s.failures = s.failures[1:]
	return err
}

func (s *flakyStore) Put(ctx context.Context, ref model.ObjectRef, data []byte) error {
	if err := s.next(); err != nil {
		return err
	}
	return s.MemoryStore.Put(ctx, ref, data)
}

func (s *flakyStore) Get(ctx context.Context, ref model.ObjectRef) ([]byte, error) {
	if err := s.next(); err != nil {
		return nil, err
	}
	return s.MemoryStore.Get(ctx, ref)
}

func fastRetry() RetryOptions {
	return RetryOptions{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

func TestRetryingStore(t *testing.T) {
	transient := fmt.Errorf("socket closed: %w", ErrTransient)

	tests := []struct {
		name      string
		failures  []error
		wantErr   error
		wantCalls int
	}{
		{
			name:      "succeeds first time",
			wantCalls: 1,
		},
		{
			name:      "recovers from transient failures",
			failures:  []error{transient, transient},
			wantCalls: 3,
		},
		{
			name:      "gives up after max retries",
			failures:  []error{transient, transient, transient, transient, transient},
			wantErr:   ErrTransient,
			wantCalls: 4,
		},
		{
			name:      "access denied is not retried",
			failures:  []error{fmt.Errorf("x: %w", ErrAccessDenied)},
			wantErr:   ErrAccessDenied,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flaky := &flakyStore{MemoryStore: NewMemoryStore(), failures: tt.failures}
			store := NewRetryingStore(flaky, fastRetry())

			err := store.Put(context.Background(), testRef, []byte("data"))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, flaky.calls)
		})
	}
}

func TestRetryingStore_GetNotFound(t *testing.T) {
	flaky := &flakyStore{MemoryStore: NewMemoryStore()}
	store := NewRetryingStore(flaky, fastRetry())

	_, err := store.Get(context.Background(), testRef)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, flaky.calls)
}
