package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the side of the conversation a message belongs to
type Role string

const (
	RoleUser    Role = "User"
	RoleSupport Role = "Support"
)

// ParseRole accepts role names case-insensitively
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "support":
		return RoleSupport, nil
	default:
		return "", fmt.Errorf("unknown role %q (expected User or Support)", s)
	}
}

// ChatMessage is one recognized utterance in a support session
type ChatMessage struct {
	ID         int64            `json:"id" db:"id"`
	SessionID  string           `json:"session_id" db:"session_id"`
	Role       Role             `json:"role" db:"role"`
	JobID      string           `json:"job_id" db:"job_id"`
	Transcript string           `json:"transcript" db:"transcript"`
	Translated string           `json:"translated" db:"translated"`
	Sentiment  *SentimentResult `json:"sentiment,omitempty" db:"sentiment"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// Display renders the message the way it appears in the chat history
func (m *ChatMessage) Display() string {
	return m.Transcript + "\n[Translation] " + m.Translated
}
