package model

// ChatRequest is one inbound conversation turn. SessionID is optional: a
// missing or unknown key lazily creates a fresh session.
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatResponse is the turn result returned to the caller.
type ChatResponse struct {
	Message      string          `json:"message"`
	Preferences  UserPreferences `json:"preferences"`
	SessionID    string          `json:"sessionId"`
	LeadCaptured bool            `json:"leadCaptured"`
}

// SearchRequest is a preference-shaped catalog query.
type SearchRequest struct {
	Preferences UserPreferences `json:"preferences"`
}

// SearchResponse carries the full matching set; the store applies no
// pagination cap of its own.
type SearchResponse struct {
	Apartments []Apartment `json:"apartments"`
	Total      int         `json:"total"`
}

// LeadCreateRequest is the manual lead form submitted by the sales UI.
type LeadCreateRequest struct {
	Name      string  `json:"name" binding:"required"`
	Phone     string  `json:"phone" binding:"required"`
	Email     *string `json:"email,omitempty"`
	Language  string  `json:"language,omitempty"`
	SessionID string  `json:"sessionId" binding:"required"`
}

// LeadStatusRequest moves a lead to a new board column.
type LeadStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
