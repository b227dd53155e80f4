package language

import (
	"context"
	"fmt"
	"strings"

	"github.com/Taichi-iskw/voice-support/internal/service/common"
)

// PlamoTranslator translates documents with the local plamo-translate CLI
type PlamoTranslator struct {
	cmdRunner common.CmdRunner
}

// NewPlamoTranslator creates a PlamoTranslator
func NewPlamoTranslator(cmdRunner common.CmdRunner) *PlamoTranslator {
	return &PlamoTranslator{cmdRunner: cmdRunner}
}

// Translate runs the CLI once per document
func (p *PlamoTranslator) Translate(ctx context.Context, docs []TextDocument, targetLang string) ([]TranslatedDocument, error) {
	to := plamoLanguage(targetLang)
	if to == "" {
		return nil, fmt.Errorf("unsupported target language %q", targetLang)
	}

	result := make([]TranslatedDocument, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			return nil, fmt.Errorf("document %q: text cannot be empty", doc.Key)
		}
		from := plamoLanguage(doc.LanguageCode)
		if from == "" {
			return nil, fmt.Errorf("document %q: unsupported source language %q", doc.Key, doc.LanguageCode)
		}

		output, err := p.cmdRunner.Run(ctx, "plamo-translate", "--from", from, "--to", to, "--input", doc.Text)
		if err != nil {
			return nil, fmt.Errorf("PLaMo CLI execution failed: %w", err)
		}
		result = append(result, TranslatedDocument{Key: doc.Key, TranslatedText: strings.TrimSpace(string(output))})
	}
	return result, nil
}
