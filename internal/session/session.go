// Package session holds the chat data model and its persistence. A session is
// one conversation thread with an ordered message sequence and denormalized
// summary fields; the store is the system of record and every mutation
// re-sends the full session object.
package session

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Message kinds. Voice and image messages carry transcribed/derived text; only
// the kind tag differs.
const (
	KindText  = "text"
	KindVoice = "voice"
	KindImage = "image"
)

// Message is immutable once created and appended to a session.
type Message struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	IsUser    bool   `json:"isUser"`
	Timestamp string `json:"timestamp"`
	Kind      string `json:"type"`
}

// ChatSession is one conversation thread. LastMessage, Timestamp and
// MessageCount are denormalized from Messages on every append.
type ChatSession struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	Title        string    `json:"title"`
	Messages     []Message `json:"messages"`
	LastMessage  string    `json:"lastMessage"`
	Timestamp    string    `json:"timestamp"`
	MessageCount int       `json:"messageCount"`
}

// ErrNotFound is returned when a session id does not exist for the user.
var ErrNotFound = errors.New("chat session not found")

// NewMessage builds a message stamped with the current time. IDs are
// nanosecond timestamps: unique enough within a conversation and ordered.
func NewMessage(content string, isUser bool, kind string) Message {
	now := time.Now().UTC()
	return Message{
		ID:        strconv.FormatInt(now.UnixNano(), 10),
		Content:   content,
		IsUser:    isUser,
		Timestamp: now.Format(time.RFC3339),
		Kind:      kind,
	}
}

// Append adds a message and refreshes the denormalized summary fields.
func (s *ChatSession) Append(m Message) {
	s.Messages = append(s.Messages, m)
	s.LastMessage = m.Content
	s.Timestamp = m.Timestamp
	s.MessageCount = len(s.Messages)
}

const maxTitleLen = 30

// DeriveTitle derives a session title from its first message, truncated to 30
// characters with an ellipsis when longer.
func DeriveTitle(firstMessage string) string {
	runes := []rune(firstMessage)
	if len(runes) > maxTitleLen {
		return string(runes[:maxTitleLen]) + "..."
	}
	return firstMessage
}

// Store persists chat sessions. Upsert is a full overwrite of the session
// record, never a partial update.
type Store interface {
	List(ctx context.Context, userID string) ([]ChatSession, error)
	Get(ctx context.Context, userID, id string) (*ChatSession, error)
	Upsert(ctx context.Context, s *ChatSession) error
	Delete(ctx context.Context, userID, id string) error
}
