package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Taichi-iskw/voice-support/internal/errors"
	"github.com/Taichi-iskw/voice-support/internal/model"
	"github.com/Taichi-iskw/voice-support/internal/service/language"
)

// Analyzer scores a single text sentence by sentence
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*model.SentimentResult, error)
}

// analyzer implements Analyzer on top of a language.SentimentDetector
type analyzer struct {
	detector language.SentimentDetector
	lang     string
}

// NewAnalyzer creates an Analyzer for texts in lang
func NewAnalyzer(detector language.SentimentDetector, lang string) Analyzer {
	if lang == "" {
		lang = "en"
	}
	return &analyzer{detector: detector, lang: lang}
}

// Analyze sends text as one document and returns its sentence scores
func (a *analyzer) Analyze(ctx context.Context, text string) (*model.SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.CodeInvalidArg, "text is required")
	}

	docs, err := a.detector.DetectSentiments(ctx, []language.TextDocument{{
		Key:          language.SentimentKey,
		Text:         text,
		LanguageCode: a.lang,
	}})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSentiment, "sentiment analysis failed")
	}

	for _, doc := range docs {
		if doc.Key != language.SentimentKey {
			continue
		}
		result := &model.SentimentResult{
			Text:      text,
			Language:  a.lang,
			Sentences: doc.Sentences,
		}
		label, score := result.Dominant()
		slog.Debug("sentiment analyzed", "sentences", len(doc.Sentences), "dominant", label, "score", score)
		return result, nil
	}

	return nil, errors.New(errors.CodeSentiment, fmt.Sprintf("no sentiment returned for document %q", language.SentimentKey))
}
