package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

func sampleMessages() []*model.ChatMessage {
	return []*model.ChatMessage{
		{
			ID:         1,
			SessionID:  "s-1",
			Role:       model.RoleUser,
			Transcript: "こんにちは",
			Translated: "hello",
			Sentiment: &model.SentimentResult{
				Text:     "hello",
				Language: "en",
				Sentences: []model.SentenceSentiment{
					{Text: "hello", Scores: map[string]float64{"Positive": 0.9, "Negative": 0.1}},
				},
			},
			CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{ID: 2, SessionID: "s-1", Role: model.RoleSupport, Transcript: "はい", Translated: "yes"},
	}
}

func TestTextFormatter(t *testing.T) {
	output, err := (&TextFormatter{}).Format(sampleMessages())
	require.NoError(t, err)

	assert.Contains(t, output, "#1 [User] 2024-05-01T10:00:00Z\nこんにちは\n[Translation] hello\n")
	assert.Contains(t, output, "[Sentiment] Positive (0.90)")
	assert.Contains(t, output, "---\n#2 [Support]\nはい\n[Translation] yes\n")
}

func TestJSONFormatter(t *testing.T) {
	output, err := (&JSONFormatter{}).Format(sampleMessages())
	require.NoError(t, err)

	assert.Contains(t, output, `"id": 1`)
	assert.Contains(t, output, `"role": "User"`)
	assert.Contains(t, output, `"translated": "hello"`)
	assert.Contains(t, output, `"Positive": 0.9`)
}

func TestGetFormatter(t *testing.T) {
	tests := []struct {
		format  string
		want    Formatter
		wantErr bool
	}{
		{format: "text", want: &TextFormatter{}},
		{format: "TXT", want: &TextFormatter{}},
		{format: "json", want: &JSONFormatter{}},
		{format: "srt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f, err := GetFormatter(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}

func TestFormatSentiment(t *testing.T) {
	result := sampleMessages()[0].Sentiment

	text, err := FormatSentiment(result, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "Language: en")
	assert.Contains(t, text, "[1] hello\n    Negative=0.10 Positive=0.90")

	js, err := FormatSentiment(result, "json")
	require.NoError(t, err)
	assert.Contains(t, js, `"language": "en"`)

	_, err = FormatSentiment(result, "xml")
	assert.Error(t, err)
}
