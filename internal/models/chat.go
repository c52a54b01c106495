package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry in the append-only chat log. Name and Role are
// copied from the sender's registry entry at send time; later renames do not
// rewrite history.
type ChatMessage struct {
	ID           uuid.UUID `json:"id"`
	ConnectionID string    `json:"connectionId"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}
