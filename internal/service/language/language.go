package language

import (
	"context"
	"fmt"
	"strings"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

// Document keys used for single-text calls
const (
	TranslationKey = "translated_text"
	SentimentKey   = "sentiment_text"
)

// TextDocument is one unit of text sent to a language engine
type TextDocument struct {
	Key          string `json:"key"`
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
}

// TranslatedDocument is the translation of the TextDocument with the same Key
type TranslatedDocument struct {
	Key            string `json:"key"`
	TranslatedText string `json:"translatedText"`
}

// DocumentSentiment is the sentence-level sentiment of the TextDocument with the same Key
type DocumentSentiment struct {
	Key       string                    `json:"key"`
	Language  string                    `json:"languageCode"`
	Sentences []model.SentenceSentiment `json:"sentences"`
}

// Translator translates documents into targetLang
type Translator interface {
	Translate(ctx context.Context, docs []TextDocument, targetLang string) ([]TranslatedDocument, error)
}

// SentimentDetector scores documents sentence by sentence
type SentimentDetector interface {
	DetectSentiments(ctx context.Context, docs []TextDocument) ([]DocumentSentiment, error)
}

// TranslateText translates a single text from sourceLang to targetLang
func TranslateText(ctx context.Context, t Translator, text, sourceLang, targetLang string) (*model.TranslationResult, error) {
	docs, err := t.Translate(ctx, []TextDocument{{
		Key:          TranslationKey,
		Text:         text,
		LanguageCode: sourceLang,
	}}, targetLang)
	if err != nil {
		return nil, err
	}
	translated, err := findTranslation(docs, TranslationKey)
	if err != nil {
		return nil, err
	}
	return &model.TranslationResult{
		SourceText:     text,
		TranslatedText: translated,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
	}, nil
}

func findTranslation(docs []TranslatedDocument, key string) (string, error) {
	for _, d := range docs {
		if d.Key == key {
			return d.TranslatedText, nil
		}
	}
	return "", fmt.Errorf("no translation returned for document %q", key)
}

// deeplLangCode converts ISO 639-1 codes to DeepL format
func deeplLangCode(code string) string {
	switch strings.ToLower(code) {
	case "en":
		return "EN-US"
	case "pt":
		return "PT-BR"
	default:
		return strings.ToUpper(code)
	}
}

// plamoLanguage maps ISO 639-1 codes to PLaMo language names
func plamoLanguage(lang string) string {
	switch strings.ToLower(lang) {
	case "en":
		return "English"
	case "ja":
		return "Japanese"
	case "zh":
		return "Chinese"
	case "ko":
		return "Korean"
	case "es":
		return "Spanish"
	case "fr":
		return "French"
	case "de":
		return "German"
	case "it":
		return "Italian"
	case "ru":
		return "Russian"
	case "vi":
		return "Vietnamese"
	default:
		return ""
	}
}
