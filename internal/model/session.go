package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single chat turn entry. Messages are append-only: once added
// to a session's history they are never edited or removed.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageList is a JSONB column holding a chronological message history.
type MessageList []Message

// Value implements driver.Valuer.
func (m MessageList) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(MessageList{})
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *MessageList) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// Session is the durable per-conversation state. One session per
// conversation; the orchestrator is its only writer. LeadCaptured is
// monotonic: once true it never goes back to false.
type Session struct {
	SessionID           string          `json:"sessionId" db:"session_id"`
	Preferences         UserPreferences `json:"preferences" db:"preferences"`
	ConversationHistory MessageList     `json:"conversationHistory" db:"conversation_history"`
	LeadCaptured        bool            `json:"leadCaptured" db:"lead_captured"`
	CreatedAt           time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time       `json:"updatedAt" db:"updated_at"`
}

// NewSession returns a fresh session with empty preferences and history.
func NewSession(sessionID string) *Session {
	now := time.Now().UTC()
	return &Session{
		SessionID:           sessionID,
		Preferences:         UserPreferences{},
		ConversationHistory: MessageList{},
		LeadCaptured:        false,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
