package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Taichi-iskw/voice-support/internal/errors"
	"github.com/Taichi-iskw/voice-support/internal/model"
	chatrepo "github.com/Taichi-iskw/voice-support/internal/repository/chat"
	"github.com/Taichi-iskw/voice-support/internal/service/sentiment"
)

// Transcriber turns a clip into a transcript and its translation
type Transcriber interface {
	Transcribe(ctx context.Context, clip model.AudioClip) (*model.RecognitionResult, error)
}

// ChatService drives a support conversation: recognize speech for a role,
// keep the history and score sentiment
type ChatService interface {
	// Recognize transcribes clip, appends it to the session as role and scores its translation
	Recognize(ctx context.Context, sessionID string, role model.Role, clip model.AudioClip) (*model.ChatMessage, error)

	// History returns the session's messages, oldest first
	History(ctx context.Context, sessionID string) ([]*model.ChatMessage, error)

	// Clear removes the session's messages and returns how many were removed
	Clear(ctx context.Context, sessionID string) (int64, error)

	// Sentiment scores arbitrary text
	Sentiment(ctx context.Context, text string) (*model.SentimentResult, error)
}

// chatService implements ChatService
type chatService struct {
	transcriber Transcriber
	repo        chatrepo.ChatRepository
	analyzer    sentiment.Analyzer
}

// NewChatService creates a new ChatService
func NewChatService(transcriber Transcriber, repo chatrepo.ChatRepository, analyzer sentiment.Analyzer) ChatService {
	return &chatService{
		transcriber: transcriber,
		repo:        repo,
		analyzer:    analyzer,
	}
}

// Recognize runs the pipeline and records the result. A sentiment failure is
// logged and leaves Sentiment nil; it never fails the call.
func (s *chatService) Recognize(ctx context.Context, sessionID string, role model.Role, clip model.AudioClip) (*model.ChatMessage, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	role, err := model.ParseRole(string(role))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidArg, "invalid role")
	}

	res, err := s.transcriber.Transcribe(ctx, clip)
	if err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		SessionID:  sessionID,
		Role:       role,
		JobID:      res.JobID,
		Transcript: res.Transcript,
		Translated: res.Translated,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(msg.Translated) == "" {
		return msg, nil
	}

	result, err := s.analyzer.Analyze(ctx, msg.Translated)
	if err != nil {
		slog.Warn("sentiment analysis failed", "session_id", sessionID, "message_id", msg.ID, "error", err)
		return msg, nil
	}
	if err := s.repo.UpdateSentiment(ctx, msg.ID, result); err != nil {
		slog.Warn("failed to store sentiment", "session_id", sessionID, "message_id", msg.ID, "error", err)
	}
	msg.Sentiment = result
	return msg, nil
}

// History lists a session's messages
func (s *chatService) History(ctx context.Context, sessionID string) ([]*model.ChatMessage, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListBySession(ctx, sessionID)
}

// Clear deletes a session's messages
func (s *chatService) Clear(ctx context.Context, sessionID string) (int64, error) {
	if err := validateSession(sessionID); err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	slog.Info("chat cleared", "session_id", sessionID, "messages", n)
	return n, nil
}

// Sentiment passes text to the analyzer
func (s *chatService) Sentiment(ctx context.Context, text string) (*model.SentimentResult, error) {
	return s.analyzer.Analyze(ctx, text)
}

func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New(errors.CodeInvalidArg, "session ID is required")
	}
	return nil
}
