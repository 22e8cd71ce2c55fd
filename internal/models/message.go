package models

import (
	"time"

	"github.com/google/uuid"
)

// Sender tags who authored a visible message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message represents a chat message for TUI display. Messages are never
// mutated after creation.
type Message struct {
	ID        string
	Content   string
	Sender    Sender
	Timestamp time.Time
}

// NewMessage creates a message with a fresh opaque ID
func NewMessage(sender Sender, content string, ts time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    sender,
		Timestamp: ts,
	}
}

// IsUser reports whether the message was typed by the user
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Role is the speaker tag the remote endpoint expects
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// TranscriptEntry mirrors a Message in the shape the endpoint expects
type TranscriptEntry struct {
	Role Role
	Text string
}

// RoleFor maps a visible sender onto a transcript role
func RoleFor(s Sender) Role {
	if s == SenderUser {
		return RoleUser
	}
	return RoleModel
}
