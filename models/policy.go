package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PolicyType tells how a generated constraint should be evaluated
type PolicyType string

const (
	PolicyTypeOCL    PolicyType = "OCL"
	PolicyTypeString PolicyType = "STRING"
)

// PropertyType is the inferred type of a constraint property
type PropertyType string

const (
	PropertyTypeInteger PropertyType = "IntegerType"
	PropertyTypeString  PropertyType = "StringType"
	PropertyTypeDate    PropertyType = "DateType"
)

// PropertyTypes maps property names to their inferred types
type PropertyTypes map[string]PropertyType

// Value implements driver.Valuer for JSONB
func (p PropertyTypes) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *PropertyTypes) Scan(value interface{}) error {
	if value == nil {
		*p = make(PropertyTypes)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*p = make(PropertyTypes)
		return nil
	}

	if len(bytes) == 0 {
		*p = make(PropertyTypes)
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Policy represents a natural-language policy and its generated constraint
type Policy struct {
	ID             uuid.UUID     `json:"id"`
	Name           string        `json:"name"`
	LegalFramework string        `json:"legal_framework"`
	CompanyName    string        `json:"company_name"`
	Description    string        `json:"description"`
	OCLCode        string        `json:"ocl_code"`
	Category       string        `json:"category"`
	Keywords       []string      `json:"keywords"`
	PolicyType     PolicyType    `json:"policy_type"`
	Properties     PropertyTypes `json:"properties"`
	HarnessPath    *string       `json:"harness_path,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
