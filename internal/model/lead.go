package model

import "time"

// Lead statuses, in board order. Status transitions are driven by the sales
// board, never by the conversation pipeline.
const (
	LeadStatusNew        = "new"
	LeadStatusContacted  = "contacted"
	LeadStatusInterested = "interested"
	LeadStatusClosed     = "closed"
)

// LeadStatuses lists the allowed statuses in board order.
var LeadStatuses = []string{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusInterested,
	LeadStatusClosed,
}

// IsValidLeadStatus reports whether s is one of the allowed lead statuses.
func IsValidLeadStatus(s string) bool {
	for _, status := range LeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Lead is a materialized sales lead. It captures a copy of the session's
// preferences, chat history and the apartments suggested in the qualifying
// turn; it never references the live session afterward. At most one lead
// exists per session (enforced by a unique constraint on session_id).
type Lead struct {
	ID                  string          `json:"id" db:"id"`
	SessionID           string          `json:"sessionId" db:"session_id"`
	Name                string          `json:"name" db:"name"`
	Phone               string          `json:"phone" db:"phone"`
	Email               *string         `json:"email,omitempty" db:"email"`
	Language            string          `json:"language" db:"language"`
	Preferences         UserPreferences `json:"preferences" db:"preferences"`
	SuggestedApartments ApartmentList   `json:"suggestedApartments" db:"suggested_apartments"`
	ChatHistory         MessageList     `json:"chatHistory" db:"chat_history"`
	Status              string          `json:"status" db:"status"`
	CreatedAt           time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time       `json:"updatedAt" db:"updated_at"`
}

// LeadStats summarizes the lead pipeline for the sales dashboard.
type LeadStats struct {
	Total      int            `json:"total"`
	TodayCount int            `json:"todayCount"`
	ByStatus   map[string]int `json:"byStatus"`
	ByLanguage map[string]int `json:"byLanguage"`
}
