package pipeline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Recorded invalid reasons. These exact strings are persisted on the
// document record, so they are part of the stored state, not just messages.
const (
	ReasonSourceMissing  = "source missing"
	ReasonMalformed      = "malformed document"
	ReasonNoReadableText = "no readable text"
)

var (
	// ErrNotFound reports an unknown document or receipt id.
	ErrNotFound = errors.New("document not found")
	// ErrSourceMissing reports that the document's blob is gone; the registry
	// entry has been marked invalid with ReasonSourceMissing.
	ErrSourceMissing = errors.New("source missing")
)

// InvalidUploadError rejects an upload before any blob write happens.
type InvalidUploadError struct {
	Reason string
}

func (e *InvalidUploadError) Error() string {
	return "invalid upload: " + e.Reason
}

// ConflictError reports a duplicate file name, carrying the existing
// document's id so the caller can point at it.
type ConflictError struct {
	FileName   string
	ExistingID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("file %q already uploaded as document %s", e.FileName, e.ExistingID)
}

// NotValidatedError reports that extraction was requested before a
// successful validation. Reason carries the recorded invalid reason when the
// last validation failed.
type NotValidatedError struct {
	DocumentID uuid.UUID
	Reason     string
}

func (e *NotValidatedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("document %s is not valid: %s", e.DocumentID, e.Reason)
	}
	return fmt.Sprintf("document %s has not been validated", e.DocumentID)
}

// AlreadyProcessedError reports that the document already has its receipt;
// extraction is strictly once per document.
type AlreadyProcessedError struct {
	DocumentID uuid.UUID
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("document %s has already been processed", e.DocumentID)
}

// ExtractionServiceError reports a transport or service failure talking to
// the field extractor. The document stays unprocessed; the caller may retry.
type ExtractionServiceError struct {
	Cause error
}

func (e *ExtractionServiceError) Error() string {
	return fmt.Sprintf("field extraction service failed: %v", e.Cause)
}

func (e *ExtractionServiceError) Unwrap() error { return e.Cause }

// UnparseableExtractionError reports that the service answered but the
// response contained no usable record. Raw carries the response for
// diagnostics.
type UnparseableExtractionError struct {
	Raw   []byte
	Cause error
}

func (e *UnparseableExtractionError) Error() string {
	return fmt.Sprintf("extraction response not interpretable: %v", e.Cause)
}

func (e *UnparseableExtractionError) Unwrap() error { return e.Cause }
