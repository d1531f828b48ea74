package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/joseph-ayodele/receipt-ingest/internal/common"
	"github.com/joseph-ayodele/receipt-ingest/internal/entity"
)

// DuplicateError is returned by Create when a document with the same file
// name already exists. It carries the existing record's id.
type DuplicateError struct {
	FileName   string
	ExistingID uuid.UUID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("document with file name %q already exists (id %s)", e.FileName, e.ExistingID)
}

// DocumentRegistry is the single source of truth for a document's state.
type DocumentRegistry interface {
	// Create inserts a new document record. The file-name uniqueness check and
	// the insert are one statement; a lost race surfaces as *DuplicateError.
	Create(ctx context.Context, fileName, storagePath string) (*entity.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	// FindByName returns (nil, nil) when no document carries the name.
	FindByName(ctx context.Context, fileName string) (*entity.Document, error)
	// SetValidity overwrites the stored validity unconditionally; re-validation
	// recomputes state from the current blob, last write wins.
	SetValidity(ctx context.Context, id uuid.UUID, validity entity.Validity, invalidReason string) error
	// MarkProcessed flips the processed flag with a conditional single-row
	// update. It reports whether this call performed the transition; calling it
	// on an already-processed document succeeds with false.
	MarkProcessed(ctx context.Context, id uuid.UUID) (bool, error)
}

type documentRegistry struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

func NewDocumentRegistry(db *sql.DB, dialect Dialect, logger *slog.Logger) DocumentRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRegistry{db: db, dialect: dialect, logger: logger}
}

const documentColumns = `id, file_name, storage_path, validity, invalid_reason, is_processed, created_at, updated_at`

func (r *documentRegistry) Create(ctx context.Context, fileName, storagePath string) (*entity.Document, error) {
	now := time.Now().UTC()
	doc := &entity.Document{
		ID:          uuid.New(),
		FileName:    fileName,
		StoragePath: storagePath,
		Validity:    entity.ValidityUnknown,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.ExecContext(ctx, rebind(r.dialect,
		`INSERT INTO receipt_file (id, file_name, storage_path, validity, is_processed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		doc.ID.String(), fileName, storagePath, string(doc.Validity), false, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := r.FindByName(ctx, fileName)
			if lookupErr != nil || existing == nil {
				r.logger.Error("duplicate file name but lookup failed", "file_name", fileName, "error", lookupErr)
				return nil, common.WrapError(err, "create document")
			}
			return nil, &DuplicateError{FileName: fileName, ExistingID: existing.ID}
		}
		r.logger.Error("failed to create document", "file_name", fileName, "error", err)
		return nil, common.WrapError(err, "create document")
	}
	return doc, nil
}

func (r *documentRegistry) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, rebind(r.dialect,
		`SELECT `+documentColumns+` FROM receipt_file WHERE id = ?`), id.String())
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get document", "id", id, "error", err)
		return nil, common.WrapError(err, "get document")
	}
	return doc, nil
}

func (r *documentRegistry) FindByName(ctx context.Context, fileName string) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, rebind(r.dialect,
		`SELECT `+documentColumns+` FROM receipt_file WHERE file_name = ?`), fileName)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to find document by name", "file_name", fileName, "error", err)
		return nil, common.WrapError(err, "find document by name")
	}
	return doc, nil
}

func (r *documentRegistry) SetValidity(ctx context.Context, id uuid.UUID, validity entity.Validity, invalidReason string) error {
	var reason sql.NullString
	if validity == entity.ValidityInvalid {
		reason = sql.NullString{String: invalidReason, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, rebind(r.dialect,
		`UPDATE receipt_file SET validity = ?, invalid_reason = ?, updated_at = ? WHERE id = ?`),
		string(validity), reason, time.Now().UTC(), id.String())
	if err != nil {
		r.logger.Error("failed to set validity", "id", id, "error", err)
		return common.WrapError(err, "set validity")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *documentRegistry) MarkProcessed(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, rebind(r.dialect,
		`UPDATE receipt_file SET is_processed = TRUE, updated_at = ? WHERE id = ? AND is_processed = FALSE`),
		time.Now().UTC(), id.String())
	if err != nil {
		r.logger.Error("failed to mark processed", "id", id, "error", err)
		return false, common.WrapError(err, "mark processed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.WrapError(err, "mark processed")
	}
	if n > 0 {
		return true, nil
	}
	// No transition: either already processed or the row is gone.
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		doc      entity.Document
		idStr    string
		validity string
		reason   sql.NullString
	)
	if err := row.Scan(&idStr, &doc.FileName, &doc.StoragePath, &validity, &reason,
		&doc.Processed, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parsing document id: %w", err)
	}
	doc.ID = id
	doc.Validity = entity.Validity(validity)
	doc.InvalidReason = reason.String
	return &doc, nil
}

// isUniqueViolation recognizes a unique-constraint failure from either
// backend so Create can map it to *DuplicateError.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
