package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ingest/internal/blob"
	"github.com/joseph-ayodele/receipt-ingest/internal/common"
	"github.com/joseph-ayodele/receipt-ingest/internal/entity"
	"github.com/joseph-ayodele/receipt-ingest/internal/extract"
	"github.com/joseph-ayodele/receipt-ingest/internal/llm"
	"github.com/joseph-ayodele/receipt-ingest/internal/repository"
)

var pdfMagic = []byte("%PDF-")

// Service orchestrates the per-document state machine: Upload creates the
// registry entry, Validate records the validity verdict, Extract produces
// the receipt and flips the processed flag exactly once. Each operation is
// triggered by one request and persists its state before returning; there is
// no background work.
type Service struct {
	registry repository.DocumentRegistry
	receipts repository.ReceiptStore
	blobs    blob.Store
	text     extract.TextExtractor
	fields   llm.FieldExtractor
	logger   *slog.Logger
}

func NewService(
	registry repository.DocumentRegistry,
	receipts repository.ReceiptStore,
	blobs blob.Store,
	text extract.TextExtractor,
	fields llm.FieldExtractor,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		receipts: receipts,
		blobs:    blobs,
		text:     text,
		fields:   fields,
		logger:   logger,
	}
}

// Upload stores the bytes and creates the document record. A duplicate file
// name is a *ConflictError carrying the existing id; a duplicate detected
// only at insert time (a lost race) additionally deletes the blob written
// just before, so no orphaned bytes remain.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte) (*entity.Document, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, &InvalidUploadError{Reason: "file name is required"}
	}
	if len(data) == 0 {
		return nil, &InvalidUploadError{Reason: "empty file"}
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, &InvalidUploadError{Reason: "only PDF files are allowed"}
	}

	// Early duplicate check: saves the blob write on the common path. The
	// registry's unique constraint remains the authoritative check.
	if existing, err := s.registry.FindByName(ctx, fileName); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &ConflictError{FileName: fileName, ExistingID: existing.ID}
	}

	path := s.blobs.NewPath(extOrPDF(fileName))
	if err := s.blobs.Put(path, data); err != nil {
		s.logger.Error("pipeline.upload.blob_write_failed", "file_name", fileName, "error", err)
		return nil, common.WrapError(err, "store upload")
	}

	doc, err := s.registry.Create(ctx, fileName, path)
	if err != nil {
		// The record was not created, so the blob must not survive.
		if delErr := s.blobs.Delete(path); delErr != nil {
			s.logger.Warn("pipeline.upload.cleanup_failed", "path", path, "error", delErr)
		}
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			return nil, &ConflictError{FileName: fileName, ExistingID: dup.ExistingID}
		}
		return nil, err
	}

	s.logger.Info("pipeline.upload.ok", "document_id", doc.ID, "file_name", fileName, "path", path, "bytes", len(data))
	return doc, nil
}

// ValidateResult is the verdict of one validation run.
type ValidateResult struct {
	DocumentID    uuid.UUID
	Valid         bool
	InvalidReason string
	TextLength    int
}

// Validate recomputes the document's validity from the current blob and
// persists the verdict. It is idempotent and re-entrant: every call reads
// the blob afresh and overwrites the stored state, ignoring earlier results.
func (s *Service) Validate(ctx context.Context, id uuid.UUID) (ValidateResult, error) {
	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return ValidateResult{}, err
	}

	data, err := s.blobs.Get(doc.StoragePath)
	if errors.Is(err, blob.ErrNotFound) {
		if err := s.registry.SetValidity(ctx, id, entity.ValidityInvalid, ReasonSourceMissing); err != nil {
			return ValidateResult{}, err
		}
		s.logger.Warn("pipeline.validate.source_missing", "document_id", id, "path", doc.StoragePath)
		return ValidateResult{}, ErrSourceMissing
	}
	if err != nil {
		return ValidateResult{}, common.WrapError(err, "read blob")
	}

	start := time.Now()
	res, err := s.text.Extract(ctx, data)
	switch {
	case errors.Is(err, extract.ErrMalformed):
		return s.recordInvalid(ctx, id, ReasonMalformed)
	case err != nil:
		return ValidateResult{}, common.WrapError(err, "extract text")
	case strings.TrimSpace(res.Text) == "":
		return s.recordInvalid(ctx, id, ReasonNoReadableText)
	}

	if err := s.registry.SetValidity(ctx, id, entity.ValidityValid, ""); err != nil {
		return ValidateResult{}, err
	}
	s.logger.Info("pipeline.validate.ok",
		"document_id", id,
		"text_length", len(res.Text),
		"pages", res.Pages,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ValidateResult{DocumentID: id, Valid: true, TextLength: len(res.Text)}, nil
}

func (s *Service) recordInvalid(ctx context.Context, id uuid.UUID, reason string) (ValidateResult, error) {
	if err := s.registry.SetValidity(ctx, id, entity.ValidityInvalid, reason); err != nil {
		return ValidateResult{}, err
	}
	s.logger.Info("pipeline.validate.invalid", "document_id", id, "reason", reason)
	return ValidateResult{DocumentID: id, Valid: false, InvalidReason: reason}, nil
}

// ExtractResult is the outcome of a successful extraction.
type ExtractResult struct {
	Receipt *entity.Receipt
	Fields  llm.ReceiptFields
}

// Extract runs field extraction for a validated, unprocessed document and
// persists the receipt. The two writes are ordered receipt-first, and the
// processed flag is a conditional update: under concurrent calls exactly one
// wins, the others report *AlreadyProcessedError. A loser deletes the receipt
// it wrote, so the document ends up with exactly one. A receipt left behind
// by a crash between the two writes is detected on retry and treated as
// processed.
func (s *Service) Extract(ctx context.Context, id uuid.UUID) (*ExtractResult, error) {
	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Validity != entity.ValidityValid {
		return nil, &NotValidatedError{DocumentID: id, Reason: doc.InvalidReason}
	}
	if doc.Processed {
		return nil, &AlreadyProcessedError{DocumentID: id}
	}

	// Text is not cached between Validate and Extract; a blob change between
	// the two calls is picked up here, at the cost of redundant work.
	data, err := s.blobs.Get(doc.StoragePath)
	if errors.Is(err, blob.ErrNotFound) {
		if err := s.registry.SetValidity(ctx, id, entity.ValidityInvalid, ReasonSourceMissing); err != nil {
			return nil, err
		}
		return nil, ErrSourceMissing
	}
	if err != nil {
		return nil, common.WrapError(err, "read blob")
	}

	textRes, err := s.text.Extract(ctx, data)
	switch {
	case errors.Is(err, extract.ErrMalformed):
		if err := s.registry.SetValidity(ctx, id, entity.ValidityInvalid, ReasonMalformed); err != nil {
			return nil, err
		}
		return nil, &NotValidatedError{DocumentID: id, Reason: ReasonMalformed}
	case err != nil:
		return nil, common.WrapError(err, "extract text")
	case strings.TrimSpace(textRes.Text) == "":
		if err := s.registry.SetValidity(ctx, id, entity.ValidityInvalid, ReasonNoReadableText); err != nil {
			return nil, err
		}
		return nil, &NotValidatedError{DocumentID: id, Reason: ReasonNoReadableText}
	}

	raw, err := s.fields.ExtractFields(ctx, textRes.Text)
	if err != nil {
		return nil, &ExtractionServiceError{Cause: err}
	}

	flds, err := llm.ParseFields(raw, s.logger)
	if err != nil {
		s.logger.Warn("pipeline.extract.unparseable", "document_id", id, "response_bytes", len(raw))
		return nil, &UnparseableExtractionError{Raw: raw, Cause: err}
	}

	// Re-verify right before the receipt write: the service call above took
	// time, and a concurrent Extract may have finished meanwhile.
	doc, err = s.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Processed {
		return nil, &AlreadyProcessedError{DocumentID: id}
	}
	if existing, err := s.receipts.FindByDocument(ctx, id); err != nil {
		return nil, err
	} else if existing != nil {
		// A receipt without the processed flag is either a concurrent call
		// between its two writes or a crashed previous run. Either way the
		// receipt exists, so this document counts as processed. The flag is
		// left to the receipt's creator: claiming it here would steal the
		// conditional update from an in-flight call, whose compensation would
		// then delete the only receipt.
		s.logger.Warn("pipeline.extract.orphan_receipt", "document_id", id, "receipt_id", existing.ID)
		return nil, &AlreadyProcessedError{DocumentID: id}
	}

	rec, err := s.receipts.Create(ctx, &repository.CreateReceiptRequest{
		DocumentID:   id,
		PurchasedAt:  flds.PurchasedAt,
		MerchantName: flds.MerchantName,
		TotalAmount:  flds.TotalAmount,
		SourcePath:   doc.StoragePath,
	})
	if err != nil {
		return nil, err
	}

	won, err := s.registry.MarkProcessed(ctx, id)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the conditional update: a concurrent call marked the document
		// first and its receipt is the surviving one. Undo this call's write
		// so the document keeps a single receipt. The work spent on the extra
		// service call is the accepted cost of keeping the pipeline stateless
		// between stages.
		if delErr := s.receipts.Delete(ctx, rec.ID); delErr != nil {
			s.logger.Error("pipeline.extract.compensation_failed", "document_id", id, "receipt_id", rec.ID, "error", delErr)
			return nil, delErr
		}
		s.logger.Warn("pipeline.extract.lost_race", "document_id", id, "receipt_id", rec.ID)
		return nil, &AlreadyProcessedError{DocumentID: id}
	}

	s.logger.Info("pipeline.extract.ok",
		"document_id", id,
		"receipt_id", rec.ID,
		"merchant", flds.MerchantName,
		"total", flds.TotalAmount,
	)
	return &ExtractResult{Receipt: rec, Fields: flds}, nil
}

// ListReceipts returns all receipts joined with their document's file name,
// newest first.
func (s *Service) ListReceipts(ctx context.Context) ([]*entity.ReceiptWithFile, error) {
	return s.receipts.ListAll(ctx)
}

// GetReceipt returns one receipt by its id.
func (s *Service) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.ReceiptWithFile, error) {
	rec, err := s.receipts.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (s *Service) getDocument(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	doc, err := s.registry.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func extOrPDF(fileName string) string {
	if ext := filepath.Ext(fileName); ext != "" {
		return ext
	}
	return ".pdf"
}
