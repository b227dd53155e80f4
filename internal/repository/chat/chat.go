package chat

import (
	"context"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

// ChatRepository defines operations for chat history persistence
type ChatRepository interface {
	// Create inserts msg and fills in its ID and CreatedAt
	Create(ctx context.Context, msg *model.ChatMessage) error

	// ListBySession returns the messages of a session, oldest first
	ListBySession(ctx context.Context, sessionID string) ([]*model.ChatMessage, error)

	// UpdateSentiment attaches a sentiment result to a message
	UpdateSentiment(ctx context.Context, id int64, sentiment *model.SentimentResult) error

	// DeleteBySession removes every message of a session and returns how many were removed
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
}
