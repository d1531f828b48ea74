package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ingest/internal/common"
	"github.com/joseph-ayodele/receipt-ingest/internal/entity"
)

// CreateReceiptRequest wraps parameters for creating a receipt.
type CreateReceiptRequest struct {
	DocumentID   uuid.UUID
	PurchasedAt  *time.Time
	MerchantName string
	TotalAmount  float64
	SourcePath   string
}

// ReceiptStore persists extracted receipts. It enforces no per-document
// uniqueness; the pipeline keeps at most one receipt per document by
// deleting its own write when it loses the processed-flag race.
type ReceiptStore interface {
	Create(ctx context.Context, req *CreateReceiptRequest) (*entity.Receipt, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ReceiptWithFile, error)
	// FindByDocument returns (nil, nil) when the document has no receipt yet.
	FindByDocument(ctx context.Context, documentID uuid.UUID) (*entity.Receipt, error)
	// Delete removes one receipt. Deleting an absent id is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
	// ListAll returns every receipt joined with its document's file name,
	// newest first.
	ListAll(ctx context.Context) ([]*entity.ReceiptWithFile, error)
}

type receiptStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

func NewReceiptStore(db *sql.DB, dialect Dialect, logger *slog.Logger) ReceiptStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &receiptStore{db: db, dialect: dialect, logger: logger}
}

func (s *receiptStore) Create(ctx context.Context, req *CreateReceiptRequest) (*entity.Receipt, error) {
	now := time.Now().UTC()
	rec := &entity.Receipt{
		ID:           uuid.New(),
		DocumentID:   req.DocumentID,
		PurchasedAt:  req.PurchasedAt,
		MerchantName: req.MerchantName,
		TotalAmount:  req.TotalAmount,
		SourcePath:   req.SourcePath,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var purchased sql.NullTime
	if req.PurchasedAt != nil {
		purchased = sql.NullTime{Time: req.PurchasedAt.UTC(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, rebind(s.dialect,
		`INSERT INTO receipt (id, file_id, purchased_at, merchant_name, total_amount, source_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID.String(), req.DocumentID.String(), purchased, req.MerchantName, req.TotalAmount, req.SourcePath, now, now)
	if err != nil {
		s.logger.Error("failed to create receipt", "document_id", req.DocumentID, "error", err)
		return nil, common.WrapError(err, "create receipt")
	}
	return rec, nil
}

func (s *receiptStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, rebind(s.dialect,
		`DELETE FROM receipt WHERE id = ?`), id.String())
	if err != nil {
		s.logger.Error("failed to delete receipt", "id", id, "error", err)
		return common.WrapError(err, "delete receipt")
	}
	return nil
}

const receiptJoin = `
	SELECT r.id, r.file_id, r.purchased_at, r.merchant_name, r.total_amount,
	       r.source_path, r.created_at, r.updated_at, rf.file_name, rf.created_at
	FROM receipt r
	JOIN receipt_file rf ON r.file_id = rf.id`

func (s *receiptStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.ReceiptWithFile, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.dialect, receiptJoin+` WHERE r.id = ?`), id.String())
	rec, err := scanReceiptWithFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to get receipt", "id", id, "error", err)
		return nil, common.WrapError(err, "get receipt")
	}
	return rec, nil
}

func (s *receiptStore) FindByDocument(ctx context.Context, documentID uuid.UUID) (*entity.Receipt, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.dialect,
		`SELECT id, file_id, purchased_at, merchant_name, total_amount, source_path, created_at, updated_at
		 FROM receipt WHERE file_id = ? ORDER BY created_at LIMIT 1`), documentID.String())
	rec, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to find receipt by document", "document_id", documentID, "error", err)
		return nil, common.WrapError(err, "find receipt by document")
	}
	return rec, nil
}

func (s *receiptStore) ListAll(ctx context.Context) ([]*entity.ReceiptWithFile, error) {
	rows, err := s.db.QueryContext(ctx, receiptJoin+` ORDER BY r.created_at DESC`)
	if err != nil {
		s.logger.Error("failed to list receipts", "error", err)
		return nil, common.WrapError(err, "list receipts")
	}
	defer rows.Close()

	var out []*entity.ReceiptWithFile
	for rows.Next() {
		rec, err := scanReceiptWithFile(rows)
		if err != nil {
			return nil, common.WrapError(err, "list receipts")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "list receipts")
	}
	return out, nil
}

func scanReceipt(row rowScanner) (*entity.Receipt, error) {
	var (
		rec       entity.Receipt
		idStr     string
		docStr    string
		purchased sql.NullTime
	)
	if err := row.Scan(&idStr, &docStr, &purchased, &rec.MerchantName, &rec.TotalAmount,
		&rec.SourcePath, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := fillReceiptIDs(&rec, idStr, docStr, purchased); err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanReceiptWithFile(row rowScanner) (*entity.ReceiptWithFile, error) {
	var (
		rec       entity.ReceiptWithFile
		idStr     string
		docStr    string
		purchased sql.NullTime
	)
	if err := row.Scan(&idStr, &docStr, &purchased, &rec.MerchantName, &rec.TotalAmount,
		&rec.SourcePath, &rec.CreatedAt, &rec.UpdatedAt, &rec.FileName, &rec.FileUploadedAt); err != nil {
		return nil, err
	}
	if err := fillReceiptIDs(&rec.Receipt, idStr, docStr, purchased); err != nil {
		return nil, err
	}
	return &rec, nil
}

func fillReceiptIDs(rec *entity.Receipt, idStr, docStr string, purchased sql.NullTime) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("parsing receipt id: %w", err)
	}
	docID, err := uuid.Parse(docStr)
	if err != nil {
		return fmt.Errorf("parsing document id: %w", err)
	}
	rec.ID = id
	rec.DocumentID = docID
	if purchased.Valid {
		t := purchased.Time
		rec.PurchasedAt = &t
	}
	return nil
}
