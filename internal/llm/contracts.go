package llm

import (
	"context"
	"time"
)

// ReceiptFields is the normalized shape we want from the model.
type ReceiptFields struct {
	PurchasedAt  *time.Time
	MerchantName string
	TotalAmount  float64
}

// FieldExtractor is the inference service the pipeline depends on. It returns
// the raw response text; the service is free to wrap the JSON record in
// prose, so interpretation is the caller's job (see ParseFields).
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) ([]byte, error)
}
