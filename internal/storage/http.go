package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

// HTTPStore talks to an object storage REST endpoint laid out as
// {endpoint}/n/{namespace}/b/{bucket}/o/{key}
type HTTPStore struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewHTTPStore creates an HTTPStore. token is sent as a bearer token when set.
func NewHTTPStore(endpoint, token string) *HTTPStore {
	return &HTTPStore{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Put uploads data with a PUT request
func (s *HTTPStore) Put(ctx context.Context, ref model.ObjectRef, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(ref), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w: %v", ref, ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classifyStatus(ref, resp.StatusCode, body)
	}
	return nil
}

// Get downloads the object at ref
func (s *HTTPStore) Get(ctx context.Context, ref model.ObjectRef) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(ref), nil)
	if err != nil {
		return nil, err
	}
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w: %v", ref, ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", ref, ErrTransient, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(ref, resp.StatusCode, body)
	}
	return body, nil
}

func (s *HTTPStore) objectURL(ref model.ObjectRef) string {
	return fmt.Sprintf("%s/n/%s/b/%s/o/%s",
		s.endpoint,
		url.PathEscape(ref.Namespace),
		url.PathEscape(ref.Bucket),
		url.PathEscape(ref.Key))
}

func (s *HTTPStore) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}

func classifyStatus(ref model.ObjectRef, status int, body []byte) error {
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", ref, ErrNotFound)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: %w", ref, ErrAccessDenied)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%s: %w (status %d): %s", ref, ErrTransient, status, string(body))
	default:
		return fmt.Errorf("%s: object storage returned status %d: %s", ref, status, string(body))
	}
}
