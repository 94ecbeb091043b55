package model

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// UserPreferences is the accumulated, validated preference record for one
// session. Every field is optional; an absent field imposes no constraint on
// matching. The set of keys is closed: the merger drops anything the model
// emits outside this schema.
//
// Both maxBudget and budgetMax survive from older schema revisions of the
// assistant prompt; each acts as an inclusive cap on total price when set.
type UserPreferences struct {
	Name               *string  `json:"name,omitempty"`
	Phone              *string  `json:"phone,omitempty"`
	Email              *string  `json:"email,omitempty"`
	Language           *string  `json:"language,omitempty"`
	City               *string  `json:"city,omitempty"`
	MaxBudget          *float64 `json:"maxBudget,omitempty"`
	BudgetMax          *float64 `json:"budgetMax,omitempty"`
	MonthlyPayment     *float64 `json:"monthlyPayment,omitempty"`
	DownPayment        *float64 `json:"downPayment,omitempty"`
	MinSize            *float64 `json:"minSize,omitempty"`
	MaxSize            *float64 `json:"maxSize,omitempty"`
	Rooms              *int     `json:"rooms,omitempty"`
	ViewType           *string  `json:"viewType,omitempty"`
	RequiresBalcony    *bool    `json:"requiresBalcony,omitempty"`
	MinFloor           *int     `json:"minFloor,omitempty"`
	MaxFloor           *int     `json:"maxFloor,omitempty"`
	ConstructionStatus []string `json:"constructionStatus,omitempty"`
}

// Value implements driver.Valuer (preferences are stored as JSONB).
func (p UserPreferences) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *UserPreferences) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// HasContact reports whether the record carries a usable name and phone, the
// minimum identity required to create a lead.
func (p UserPreferences) HasContact() bool {
	return strPresent(p.Name) && strPresent(p.Phone)
}

// LanguageOrDefault returns the stated language, or "unknown".
func (p UserPreferences) LanguageOrDefault() string {
	if strPresent(p.Language) {
		return *p.Language
	}
	return "unknown"
}

func strPresent(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
