package language

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const deeplAPIURL = "https://api-free.deepl.com/v2/translate"

// DeepLTranslator translates documents using the DeepL API
type DeepLTranslator struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewDeepLTranslator creates a DeepLTranslator against the free API
func NewDeepLTranslator(apiKey string) *DeepLTranslator {
	return NewDeepLTranslatorWithURL(apiKey, deeplAPIURL)
}

// NewDeepLTranslatorWithURL creates a DeepLTranslator against apiURL (for testing or the pro API)
func NewDeepLTranslatorWithURL(apiKey, apiURL string) *DeepLTranslator {
	return &DeepLTranslator{
		apiKey: apiKey,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 1 * time.Minute,
		},
	}
}

// Translate sends all docs in one request. DeepL takes a single source
// language per request, so the first document's language is used.
func (d *DeepLTranslator) Translate(ctx context.Context, docs []TextDocument, targetLang string) ([]TranslatedDocument, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("DeepL API key not configured")
	}
	if len(docs) == 0 {
		return nil, nil
	}

	form := url.Values{}
	for _, doc := range docs {
		form.Add("text", doc.Text)
	}
	form.Set("target_lang", deeplLangCode(targetLang))
	if src := docs[0].LanguageCode; src != "" && src != "auto" {
		form.Set("source_lang", strings.ToUpper(src))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)

	slog.Debug("deepl translate", "documents", len(docs), "target", targetLang)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("DeepL API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DeepL API error (status %d): %s", resp.StatusCode, string(body))
	}

	var deeplResp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &deeplResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(deeplResp.Translations) != len(docs) {
		return nil, fmt.Errorf("DeepL returned %d translations for %d texts", len(deeplResp.Translations), len(docs))
	}

	result := make([]TranslatedDocument, len(docs))
	for i, doc := range docs {
		result[i] = TranslatedDocument{Key: doc.Key, TranslatedText: deeplResp.Translations[i].Text}
	}
	return result, nil
}
