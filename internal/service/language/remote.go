package language

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// RemoteClient talks to a language REST endpoint exposing
// POST /actions/batchLanguageTranslation and
// POST /actions/batchDetectLanguageSentiments
type RemoteClient struct {
	endpoint      string
	apiKey        string
	compartmentID string
	limiter       *rate.Limiter
	httpClient    *http.Client
}

// NewRemoteClient creates a RemoteClient allowing at most perMinute requests per minute.
// perMinute <= 0 disables rate limiting.
func NewRemoteClient(endpoint, apiKey, compartmentID string, perMinute int) *RemoteClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
	return &RemoteClient{
		endpoint:      strings.TrimRight(endpoint, "/"),
		apiKey:        apiKey,
		compartmentID: compartmentID,
		limiter:       limiter,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type documentError struct {
	Key   string `json:"key"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Translate translates docs into targetLang
func (c *RemoteClient) Translate(ctx context.Context, docs []TextDocument, targetLang string) ([]TranslatedDocument, error) {
	req := struct {
		Documents          []TextDocument `json:"documents"`
		TargetLanguageCode string         `json:"targetLanguageCode"`
		CompartmentID      string         `json:"compartmentId,omitempty"`
	}{docs, targetLang, c.compartmentID}

	var resp struct {
		Documents []TranslatedDocument `json:"documents"`
		Errors    []documentError      `json:"errors"`
	}
	if err := c.post(ctx, "/actions/batchLanguageTranslation", req, &resp); err != nil {
		return nil, fmt.Errorf("batch translation: %w", err)
	}
	if err := firstDocumentError(resp.Errors); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

// DetectSentiments runs sentence-level sentiment over docs
func (c *RemoteClient) DetectSentiments(ctx context.Context, docs []TextDocument) ([]DocumentSentiment, error) {
	req := struct {
		Documents     []TextDocument `json:"documents"`
		CompartmentID string         `json:"compartmentId,omitempty"`
	}{docs, c.compartmentID}

	var resp struct {
		Documents []DocumentSentiment `json:"documents"`
		Errors    []documentError     `json:"errors"`
	}
	if err := c.post(ctx, "/actions/batchDetectLanguageSentiments?level=SENTENCE", req, &resp); err != nil {
		return nil, fmt.Errorf("batch sentiment: %w", err)
	}
	if err := firstDocumentError(resp.Errors); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func firstDocumentError(errs []documentError) error {
	if len(errs) == 0 {
		return nil
	}
	e := errs[0]
	return fmt.Errorf("document %q: %s: %s", e.Key, e.Error.Code, e.Error.Message)
}

func (c *RemoteClient) post(ctx context.Context, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("language API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("language API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
