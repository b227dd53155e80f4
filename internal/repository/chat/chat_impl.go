package chat

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/Taichi-iskw/voice-support/internal/errors"
	"github.com/Taichi-iskw/voice-support/internal/model"
	"github.com/Taichi-iskw/voice-support/internal/repository/common"
)

// chatRepository implements ChatRepository using PostgreSQL
type chatRepository struct {
	pool common.Pool
}

// NewChatRepository creates a new instance of ChatRepository
func NewChatRepository(pool common.Pool) ChatRepository {
	return &chatRepository{
		pool: pool,
	}
}

// Create inserts a chat message
func (r *chatRepository) Create(ctx context.Context, msg *model.ChatMessage) error {
	sentiment, err := marshalSentiment(msg.Sentiment)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chat_messages (session_id, role, job_id, transcript, translated, sentiment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err = r.pool.QueryRow(ctx, query,
		msg.SessionID,
		string(msg.Role),
		msg.JobID,
		msg.Transcript,
		msg.Translated,
		sentiment).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to create chat message")
	}
	return nil
}

// ListBySession retrieves the history of a session in insertion order
func (r *chatRepository) ListBySession(ctx context.Context, sessionID string) ([]*model.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, job_id, transcript, translated, sentiment, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list chat messages")
	}
	defer rows.Close()

	messages := []*model.ChatMessage{}
	for rows.Next() {
		var (
			msg       model.ChatMessage
			role      string
			sentiment []byte
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.JobID,
			&msg.Transcript, &msg.Translated, &sentiment, &msg.CreatedAt); err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan chat message")
		}
		msg.Role = model.Role(role)
		if len(sentiment) > 0 {
			msg.Sentiment = &model.SentimentResult{}
			if err := json.Unmarshal(sentiment, msg.Sentiment); err != nil {
				return nil, apperrors.Wrap(err, apperrors.CodeInternal, fmt.Sprintf("corrupt sentiment on message %d", msg.ID))
			}
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list chat messages")
	}
	return messages, nil
}

// UpdateSentiment stores the sentiment of a message
func (r *chatRepository) UpdateSentiment(ctx context.Context, id int64, sentiment *model.SentimentResult) error {
	raw, err := marshalSentiment(sentiment)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, "UPDATE chat_messages SET sentiment = $1 WHERE id = $2", raw, id)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to update sentiment")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("chat message %d not found", id))
	}
	return nil
}

// DeleteBySession clears a session's history
func (r *chatRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM chat_messages WHERE session_id = $1", sessionID)
	if err != nil {
		return 0, common.HandlePostgreSQLError(err, "failed to clear chat messages")
	}
	return tag.RowsAffected(), nil
}

func marshalSentiment(s *model.SentimentResult) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode sentiment")
	}
	return raw, nil
}
