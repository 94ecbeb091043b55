package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Availability statuses for an apartment.
const (
	AvailabilityAvailable = "available"
	AvailabilityReserved  = "reserved"
	AvailabilitySold      = "sold"
)

// Construction statuses for an apartment or project.
const (
	ConstructionCompleted         = "completed"
	ConstructionUnderConstruction = "under-construction"
	ConstructionOffPlan           = "off-plan"
)

// Apartment is an immutable catalog record. The conversation core only ever
// reads apartments; the catalog is owned by the seeder / external tooling.
type Apartment struct {
	ID                    int64   `json:"id" db:"id"`
	ProjectID             string  `json:"projectId" db:"project_id"`
	ProjectName           string  `json:"projectName" db:"project_name"`
	City                  string  `json:"city" db:"city"`
	Neighborhood          string  `json:"neighborhood" db:"neighborhood"`
	TotalArea             float64 `json:"totalArea" db:"total_area"`
	Rooms                 int     `json:"rooms" db:"rooms"`
	Floor                 int     `json:"floor" db:"floor"`
	ViewType              string  `json:"viewType" db:"view_type"`
	HasBalcony            bool    `json:"hasBalcony" db:"has_balcony"`
	BalconySize           *float64 `json:"balconySize,omitempty" db:"balcony_size"`
	TotalPrice            float64 `json:"totalPrice" db:"total_price"`
	MinInitialInstallment float64 `json:"minInitialInstallment" db:"min_initial_installment"`
	MonthlyPayment        float64 `json:"monthlyPayment" db:"monthly_payment"`
	InstallmentDuration   int     `json:"installmentDuration" db:"installment_duration"`
	AvailabilityStatus    string  `json:"availabilityStatus" db:"availability_status"`
	ConstructionStatus    string  `json:"constructionStatus" db:"construction_status"`
	ExpectedCompletion    *string `json:"expectedCompletion,omitempty" db:"expected_completion"`
	DeveloperName         string  `json:"developerName" db:"developer_name"`
}

// Project groups apartments under one development.
type Project struct {
	ID                 int64     `json:"id" db:"id"`
	ProjectName        string    `json:"projectName" db:"project_name"`
	City               string    `json:"city" db:"city"`
	Neighborhood       string    `json:"neighborhood" db:"neighborhood"`
	ConstructionStatus string    `json:"constructionStatus" db:"construction_status"`
	ExpectedCompletion *string   `json:"expectedCompletion,omitempty" db:"expected_completion"`
	DeveloperName      string    `json:"developerName" db:"developer_name"`
	PaymentPlans       StringList `json:"paymentPlans" db:"payment_plans"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
}

// ApartmentList is a JSONB column holding a snapshot of full apartment
// records (lead suggestions are copies, never references into the catalog).
type ApartmentList []Apartment

// Value implements driver.Valuer.
func (a ApartmentList) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal(ApartmentList{})
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *ApartmentList) Scan(value interface{}) error {
	return scanJSON(value, a)
}

// StringList is a JSONB column holding a list of strings.
type StringList []string

// Value implements driver.Valuer.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal(StringList{})
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *StringList) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// scanJSON decodes a JSONB column that may arrive as []byte or string.
func scanJSON(value interface{}, target interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, target)
	case string:
		return json.Unmarshal([]byte(v), target)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}
