package entity

import (
	"time"

	"github.com/google/uuid"
)

// Receipt represents the structured record extracted from a validated
// document, for data transfer between layers. A receipt is written once and
// never mutated afterwards.
type Receipt struct {
	ID           uuid.UUID  `json:"id"`
	DocumentID   uuid.UUID  `json:"document_id"`
	PurchasedAt  *time.Time `json:"purchased_at"`
	MerchantName string     `json:"merchant_name"`
	TotalAmount  float64    `json:"total_amount"`
	SourcePath   string     `json:"source_path"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ReceiptWithFile is the listing projection: a receipt joined with its
// document's original file name and upload time.
type ReceiptWithFile struct {
	Receipt
	FileName       string    `json:"file_name"`
	FileUploadedAt time.Time `json:"file_uploaded_at"`
}
