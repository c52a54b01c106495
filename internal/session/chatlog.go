package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/classpulse/backend/internal/models"
)

// ChatLog is the append-only ordered record of chat messages. Messages are
// never edited or deleted; attribution is copied from the registry at send
// time so later renames leave past messages unchanged.
// Not safe for concurrent use; the coordinator serializes access.
type ChatLog struct {
	registry *Registry
	messages []models.ChatMessage
	now      func() time.Time
}

// NewChatLog creates an empty log attributing senders through reg.
func NewChatLog(reg *Registry) *ChatLog {
	return &ChatLog{registry: reg, now: time.Now}
}

// Append stores a message from a registered connection. Messages from unknown
// connections are rejected with ErrUnknownSender.
func (l *ChatLog) Append(connectionID, text string) (models.ChatMessage, error) {
	sender, ok := l.registry.Get(connectionID)
	if !ok {
		return models.ChatMessage{}, ErrUnknownSender
	}
	msg := models.ChatMessage{
		ID:           uuid.New(),
		ConnectionID: connectionID,
		Name:         sender.Name,
		Role:         sender.Role,
		Message:      text,
		Timestamp:    l.now(),
	}
	l.messages = append(l.messages, msg)
	return msg, nil
}

// All returns a copy of the full log in arrival order.
func (l *ChatLog) All() []models.ChatMessage {
	return append([]models.ChatMessage(nil), l.messages...)
}
