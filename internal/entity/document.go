package entity

import (
	"time"

	"github.com/google/uuid"
)

// Validity is the tri-state validation status of an uploaded document.
type Validity string

const (
	ValidityUnknown Validity = "UNKNOWN" // not yet validated
	ValidityValid   Validity = "VALID"
	ValidityInvalid Validity = "INVALID"
)

// Document represents one uploaded receipt file and its validation and
// processing state, for data transfer between layers.
type Document struct {
	ID            uuid.UUID `json:"id"`
	FileName      string    `json:"file_name"`
	StoragePath   string    `json:"storage_path"`
	Validity      Validity  `json:"validity"`
	InvalidReason string    `json:"invalid_reason,omitempty"`
	Processed     bool      `json:"processed"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
