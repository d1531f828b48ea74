package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/receipt-ingest/internal/entity"
	"github.com/joseph-ayodele/receipt-ingest/internal/pipeline"
)

// upload accepts a multipart form with the PDF under the "receipt" field.
func (r *Router) upload(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUploadBytes)
	if err := req.ParseMultipartForm(r.maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	file, header, err := req.FormFile("receipt")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Upload failed: "+err.Error())
		return
	}

	doc, err := r.pipeline.Upload(req.Context(), header.Filename, data)
	if err != nil {
		r.respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"message":  "File uploaded successfully",
		"fileId":   doc.ID,
		"fileName": doc.FileName,
		"filePath": doc.StoragePath,
	})
}

type fileIDRequest struct {
	FileID string `json:"fileId"`
}

func (r *Router) validate(w http.ResponseWriter, req *http.Request) {
	id, ok := r.decodeFileID(w, req)
	if !ok {
		return
	}

	res, err := r.pipeline.Validate(req.Context(), id)
	if err != nil {
		r.respondPipelineError(w, err)
		return
	}

	if !res.Valid {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success":       false,
			"message":       res.InvalidReason,
			"fileId":        id,
			"isValid":       false,
			"invalidReason": res.InvalidReason,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "File is valid PDF",
		"fileId":     id,
		"isValid":    true,
		"textLength": res.TextLength,
	})
}

func (r *Router) process(w http.ResponseWriter, req *http.Request) {
	id, ok := r.decodeFileID(w, req)
	if !ok {
		return
	}

	res, err := r.pipeline.Extract(req.Context(), id)
	if err != nil {
		r.respondPipelineError(w, err)
		return
	}

	var purchasedAt *string
	if res.Fields.PurchasedAt != nil {
		s := res.Fields.PurchasedAt.Format(time.RFC3339)
		purchasedAt = &s
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Receipt processed successfully",
		"receiptId": res.Receipt.ID,
		"extractedData": map[string]any{
			"purchased_at":  purchasedAt,
			"merchant_name": res.Fields.MerchantName,
			"total_amount":  res.Fields.TotalAmount,
		},
	})
}

func (r *Router) listReceipts(w http.ResponseWriter, req *http.Request) {
	recs, err := r.pipeline.ListReceipts(req.Context())
	if err != nil {
		r.respondPipelineError(w, err)
		return
	}
	if recs == nil {
		recs = []*entity.ReceiptWithFile{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(recs),
		"receipts": recs,
	})
}

func (r *Router) getReceipt(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid receipt ID")
		return
	}
	rec, err := r.pipeline.GetReceipt(req.Context(), id)
	if errors.Is(err, pipeline.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Receipt not found")
		return
	}
	if err != nil {
		r.respondPipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"receipt": rec,
	})
}

func (r *Router) exportReceipts(w http.ResponseWriter, req *http.Request) {
	data, err := r.exporter.ExportReceiptsXLSX(req.Context())
	if err != nil {
		r.logger.Error("http.export.failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="receipts.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (r *Router) decodeFileID(w http.ResponseWriter, req *http.Request) (uuid.UUID, bool) {
	var body fileIDRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.FileID == "" {
		respondError(w, http.StatusBadRequest, "File ID is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(body.FileID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "File ID must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// respondPipelineError maps the pipeline's typed errors onto HTTP statuses.
func (r *Router) respondPipelineError(w http.ResponseWriter, err error) {
	var (
		invalidUpload *pipeline.InvalidUploadError
		conflict      *pipeline.ConflictError
		notValidated  *pipeline.NotValidatedError
		processed     *pipeline.AlreadyProcessedError
		svcErr        *pipeline.ExtractionServiceError
		unparseable   *pipeline.UnparseableExtractionError
	)
	switch {
	case errors.As(err, &invalidUpload):
		respondError(w, http.StatusBadRequest, invalidUpload.Reason)
	case errors.As(err, &conflict):
		respondJSON(w, http.StatusConflict, map[string]any{
			"success":        false,
			"error":          "File already exists",
			"existingFileId": conflict.ExistingID,
		})
	case errors.Is(err, pipeline.ErrNotFound):
		respondError(w, http.StatusNotFound, "File not found")
	case errors.Is(err, pipeline.ErrSourceMissing):
		respondError(w, http.StatusNotFound, "File not found on disk")
	case errors.As(err, &notValidated):
		respondError(w, http.StatusBadRequest, "File is not valid. Please validate first.")
	case errors.As(err, &processed):
		respondError(w, http.StatusConflict, "File has already been processed")
	case errors.As(err, &svcErr):
		respondError(w, http.StatusBadGateway, "Failed to process receipt: "+svcErr.Cause.Error())
	case errors.As(err, &unparseable):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success":    false,
			"error":      "Failed to parse extracted data",
			"aiResponse": string(unparseable.Raw),
		})
	default:
		r.logger.Error("http.request.failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
