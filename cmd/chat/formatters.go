package chat

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

// Formatter defines interface for output formatting
type Formatter interface {
	Format(messages []*model.ChatMessage) (string, error)
}

// TextFormatter formats messages the way the chat window shows them
type TextFormatter struct{}

// Format formats messages as plain text
func (f *TextFormatter) Format(messages []*model.ChatMessage) (string, error) {
	var output strings.Builder

	for i, msg := range messages {
		if i > 0 {
			output.WriteString("---\n")
		}
		if msg.ID != 0 {
			output.WriteString(fmt.Sprintf("#%d ", msg.ID))
		}
		output.WriteString(fmt.Sprintf("[%s]", msg.Role))
		if !msg.CreatedAt.IsZero() {
			output.WriteString(" " + msg.CreatedAt.Format(time.RFC3339))
		}
		output.WriteString("\n")
		output.WriteString(msg.Display())
		output.WriteString("\n")
		if line := sentimentLine(msg.Sentiment); line != "" {
			output.WriteString(line)
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

// JSONFormatter formats messages as JSON
type JSONFormatter struct{}

// Format formats messages as a JSON array
func (f *JSONFormatter) Format(messages []*model.ChatMessage) (string, error) {
	if messages == nil {
		messages = []*model.ChatMessage{}
	}
	jsonBytes, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// GetFormatter returns the appropriate formatter based on format string
func GetFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "text", "txt":
		return &TextFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatSentiment renders a sentiment result for the terminal
func FormatSentiment(result *model.SentimentResult, format string) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(jsonBytes), nil
	case "text", "txt":
		var output strings.Builder
		output.WriteString(fmt.Sprintf("Text: %s\n", result.Text))
		output.WriteString(fmt.Sprintf("Language: %s\n", result.Language))
		for i, s := range result.Sentences {
			output.WriteString(fmt.Sprintf("[%d] %s\n    %s\n", i+1, s.Text, formatScores(s.Scores)))
		}
		return output.String(), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func sentimentLine(result *model.SentimentResult) string {
	label, score := result.Dominant()
	if label == "" {
		return ""
	}
	return fmt.Sprintf("[Sentiment] %s (%.2f)", label, score)
}

// formatScores lists scores in a stable order
func formatScores(scores map[string]float64) string {
	labels := make([]string, 0, len(scores))
	for k := range scores {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, k := range labels {
		parts = append(parts, fmt.Sprintf("%s=%.2f", k, scores[k]))
	}
	return strings.Join(parts, " ")
}
