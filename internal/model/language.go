package model

// TranslationResult holds one translated transcript
type TranslationResult struct {
	SourceText     string `json:"source_text"`
	TranslatedText string `json:"translated_text"`
	SourceLang     string `json:"source_lang"`
	TargetLang     string `json:"target_lang"`
}

// SentenceSentiment is the score mapping for a single sentence
type SentenceSentiment struct {
	Text      string             `json:"text"`
	Sentiment string             `json:"sentiment,omitempty"`
	Scores    map[string]float64 `json:"scores"`
}

// SentimentResult holds sentence-level sentiment for one text block
type SentimentResult struct {
	Text      string              `json:"text"`
	Language  string              `json:"language"`
	Sentences []SentenceSentiment `json:"sentences"`
}

// Scores returns the scores of the first sentence, or nil when there is none
func (r *SentimentResult) Scores() map[string]float64 {
	if r == nil || len(r.Sentences) == 0 {
		return nil
	}
	return r.Sentences[0].Scores
}

// Dominant returns the label with the highest first-sentence score
func (r *SentimentResult) Dominant() (string, float64) {
	var (
		label string
		best  float64
	)
	for k, v := range r.Scores() {
		if label == "" || v > best || (v == best && k < label) {
			label, best = k, v
		}
	}
	return label, best
}
