package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipt-ingest/internal/blob"
	"github.com/joseph-ayodele/receipt-ingest/internal/common"
	"github.com/joseph-ayodele/receipt-ingest/internal/entity"
	"github.com/joseph-ayodele/receipt-ingest/internal/extract"
	"github.com/joseph-ayodele/receipt-ingest/internal/repository"
)

var validPDF = []byte("%PDF-1.4\nreceipt body")

// fakeRegistry is an in-memory DocumentRegistry with the same atomicity
// guarantees as the SQL one: unique file names and a conditional processed
// transition, both under one lock.
type fakeRegistry struct {
	mu     sync.Mutex
	docs   map[uuid.UUID]*entity.Document
	byName map[string]uuid.UUID
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		docs:   make(map[uuid.UUID]*entity.Document),
		byName: make(map[string]uuid.UUID),
	}
}

func (f *fakeRegistry) Create(_ context.Context, fileName, storagePath string) (*entity.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.byName[fileName]; ok {
		return nil, &repository.DuplicateError{FileName: fileName, ExistingID: id}
	}
	now := time.Now().UTC()
	doc := &entity.Document{
		ID:          uuid.New(),
		FileName:    fileName,
		StoragePath: storagePath,
		Validity:    entity.ValidityUnknown,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.docs[doc.ID] = doc
	f.byName[fileName] = doc.ID
	return copyDoc(doc), nil
}

func (f *fakeRegistry) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyDoc(doc), nil
}

func (f *fakeRegistry) FindByName(_ context.Context, fileName string) (*entity.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byName[fileName]
	if !ok {
		return nil, nil
	}
	return copyDoc(f.docs[id]), nil
}

func (f *fakeRegistry) SetValidity(_ context.Context, id uuid.UUID, validity entity.Validity, invalidReason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return common.ErrNotFound
	}
	doc.Validity = validity
	doc.InvalidReason = ""
	if validity == entity.ValidityInvalid {
		doc.InvalidReason = invalidReason
	}
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeRegistry) MarkProcessed(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return false, common.ErrNotFound
	}
	if doc.Processed {
		return false, nil
	}
	doc.Processed = true
	doc.UpdatedAt = time.Now().UTC()
	return true, nil
}

func copyDoc(doc *entity.Document) *entity.Document {
	c := *doc
	return &c
}

type fakeReceipts struct {
	mu       sync.Mutex
	receipts []*entity.Receipt
	onCreate func() // runs at the top of Create, before the insert
}

func (f *fakeReceipts) Create(_ context.Context, req *repository.CreateReceiptRequest) (*entity.Receipt, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
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
	f.receipts = append(f.receipts, rec)
	return rec, nil
}

func (f *fakeReceipts) GetByID(_ context.Context, id uuid.UUID) (*entity.ReceiptWithFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.receipts {
		if r.ID == id {
			return &entity.ReceiptWithFile{Receipt: *r}, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeReceipts) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.receipts {
		if r.ID == id {
			f.receipts = append(f.receipts[:i], f.receipts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeReceipts) FindByDocument(_ context.Context, documentID uuid.UUID) (*entity.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.receipts {
		if r.DocumentID == documentID {
			c := *r
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeReceipts) ListAll(_ context.Context) ([]*entity.ReceiptWithFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.ReceiptWithFile, 0, len(f.receipts))
	for i := len(f.receipts) - 1; i >= 0; i-- {
		out = append(out, &entity.ReceiptWithFile{Receipt: *f.receipts[i]})
	}
	return out, nil
}

func (f *fakeReceipts) countFor(documentID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.receipts {
		if r.DocumentID == documentID {
			n++
		}
	}
	return n
}

type fakeBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
	seq   int
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{blobs: make(map[string][]byte)}
}

func (f *fakeBlobs) Put(path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[path] = append([]byte(nil), data...)
	return nil
}

func (f *fakeBlobs) Get(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[path]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return data, nil
}

func (f *fakeBlobs) Delete(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, path)
	return nil
}

func (f *fakeBlobs) NewPath(ext string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("blob-%d%s", f.seq, ext)
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

type stubText struct {
	fn func(data []byte) (extract.TextExtractionResult, error)
}

func (s *stubText) Extract(_ context.Context, data []byte) (extract.TextExtractionResult, error) {
	if s.fn != nil {
		return s.fn(data)
	}
	return extract.TextExtractionResult{Text: string(data), Pages: 1}, nil
}

type stubFields struct {
	mu    sync.Mutex
	calls int
	fn    func(text string) ([]byte, error)
}

func (s *stubFields) ExtractFields(_ context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(text)
	}
	return []byte(`{"purchased_at":"2024-01-05T10:00:00Z","merchant_name":"Acme","total_amount":"12.50"}`), nil
}

type fixture struct {
	registry *fakeRegistry
	receipts *fakeReceipts
	blobs    *fakeBlobs
	text     *stubText
	fields   *stubFields
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		registry: newFakeRegistry(),
		receipts: &fakeReceipts{},
		blobs:    newFakeBlobs(),
		text:     &stubText{},
		fields:   &stubFields{},
	}
	f.svc = NewService(f.registry, f.receipts, f.blobs, f.text, f.fields, nil)
	return f
}

func (f *fixture) uploadValidated(t *testing.T, name string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	doc, err := f.svc.Upload(ctx, name, validPDF)
	require.NoError(t, err)
	res, err := f.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, res.Valid)
	return doc.ID
}

func TestUploadCreatesDocument(t *testing.T) {
	f := newFixture()
	doc, err := f.svc.Upload(context.Background(), "a.pdf", validPDF)
	require.NoError(t, err)

	assert.Equal(t, "a.pdf", doc.FileName)
	assert.Equal(t, entity.ValidityUnknown, doc.Validity)
	assert.False(t, doc.Processed)
	assert.Equal(t, 1, f.blobs.count())

	stored, err := f.blobs.Get(doc.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, validPDF, stored)
}

func TestUploadRejectsEmptyBytesBeforeBlobWrite(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Upload(context.Background(), "a.pdf", nil)

	var invalid *InvalidUploadError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 0, f.blobs.count())
}

func TestUploadRejectsNonPDF(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Upload(context.Background(), "a.pdf", []byte("plain text"))

	var invalid *InvalidUploadError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 0, f.blobs.count())
}

func TestUploadDuplicateNameConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, "a.pdf", validPDF)
	require.NoError(t, err)

	_, err = f.svc.Upload(ctx, "a.pdf", validPDF)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, doc.ID, conflict.ExistingID)
	assert.Equal(t, 1, f.blobs.count(), "conflicting upload must not leave a blob behind")
}

func TestUploadConcurrentSameName(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	docs := make([]*entity.Document, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			docs[i], errs[i] = f.svc.Upload(ctx, "same.pdf", validPDF)
		}(i)
	}
	wg.Wait()

	var created *entity.Document
	conflicts := 0
	for i := 0; i < n; i++ {
		if errs[i] == nil {
			require.Nil(t, created, "only one upload may succeed")
			created = docs[i]
			continue
		}
		var conflict *ConflictError
		require.ErrorAs(t, errs[i], &conflict)
		conflicts++
	}
	require.NotNil(t, created)
	assert.Equal(t, n-1, conflicts)

	// Every conflict references the winner's id.
	for i := 0; i < n; i++ {
		var conflict *ConflictError
		if errors.As(errs[i], &conflict) {
			assert.Equal(t, created.ID, conflict.ExistingID)
		}
	}
	assert.Equal(t, 1, f.blobs.count(), "losing uploads must clean their blobs up")
}

func TestValidateUnknownDocument(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Validate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateRecordsValid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc, err := f.svc.Upload(ctx, "a.pdf", validPDF)
	require.NoError(t, err)

	res, err := f.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Greater(t, res.TextLength, 0)

	stored, err := f.registry.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ValidityValid, stored.Validity)
	assert.Empty(t, stored.InvalidReason)
}

func TestValidateIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc, err := f.svc.Upload(ctx, "a.pdf", validPDF)
	require.NoError(t, err)

	first, err := f.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)
	second, err := f.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidateMalformedDocument(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.text.fn = func([]byte) (extract.TextExtractionResult, error) {
		return extract.TextExtractionResult{}, fmt.Errorf("%w: broken xref", extract.ErrMalformed)
	}
	doc, err := f.svc.Upload(ctx, "a.pdf", validPDF)
	require.NoError(t, err)

	res, err := f.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonMalformed, res.InvalidReason)

	stored, _ := f.registry.GetByID(ctx, doc.ID)
	assert.Equal(t, entity.ValidityInvalid, stored.Validity)
	assert.Equal(t, ReasonMalformed, stored.InvalidReason)
}

func TestValidateNoReadableText(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.text.fn = func([]byte) (extract.TextExtractionResult, error) {
		return extract.TextExtractionResult{Text: " \n\t ", Pages: 1}, nil
	}
	doc, err := f.svc.Upload(ctx, "a.pdf", validPDF)
	require.NoError(t, err)

	res, err := f.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonNoReadableText, res.InvalidReason)
}

func TestValidateSourceMissing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc, err := f.svc.Upload(ctx, "a.pdf", validPDF)
	require.NoError(t, err)

	// Blob removed out of band.
	require.NoError(t, f.blobs.Delete(doc.StoragePath))

	_, err = f.svc.Validate(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrSourceMissing)

	stored, _ := f.registry.GetByID(ctx, doc.ID)
	assert.Equal(t, entity.ValidityInvalid, stored.Validity)
	assert.Equal(t, ReasonSourceMissing, stored.InvalidReason)
}

func TestValidateRecoversAfterBlobRestored(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc, err := f.svc.Upload(ctx, "a.pdf", validPDF)
	require.NoError(t, err)

	require.NoError(t, f.blobs.Delete(doc.StoragePath))
	_, err = f.svc.Validate(ctx, doc.ID)
	require.ErrorIs(t, err, ErrSourceMissing)

	// Re-validation recomputes from the current blob, ignoring the old verdict.
	require.NoError(t, f.blobs.Put(doc.StoragePath, validPDF))
	res, err := f.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestExtractRequiresValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc, err := f.svc.Upload(ctx, "a.pdf", validPDF)
	require.NoError(t, err)

	_, err = f.svc.Extract(ctx, doc.ID)
	var notValidated *NotValidatedError
	require.ErrorAs(t, err, &notValidated)
	assert.Empty(t, notValidated.Reason)
}

func TestExtractRejectsInvalidDocument(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.text.fn = func([]byte) (extract.TextExtractionResult, error) {
		return extract.TextExtractionResult{Text: "", Pages: 1}, nil
	}
	doc, err := f.svc.Upload(ctx, "a.pdf", validPDF)
	require.NoError(t, err)
	_, err = f.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.Extract(ctx, doc.ID)
	var notValidated *NotValidatedError
	require.ErrorAs(t, err, &notValidated)
	assert.Equal(t, ReasonNoReadableText, notValidated.Reason)
}

func TestExtractRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.uploadValidated(t, "a.pdf")

	res, err := f.svc.Extract(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "Acme", res.Fields.MerchantName)
	assert.Equal(t, 12.50, res.Fields.TotalAmount)
	require.NotNil(t, res.Fields.PurchasedAt)
	assert.Equal(t, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), res.Fields.PurchasedAt.UTC())

	doc, err := f.registry.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, doc.Processed)
	assert.Equal(t, doc.StoragePath, res.Receipt.SourcePath)
	assert.Equal(t, 1, f.receipts.countFor(id))
}

func TestExtractNormalizesDegenerateFields(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.fields.fn = func(string) ([]byte, error) {
		return []byte(`{"purchased_at": null, "merchant_name": null, "total_amount": "abc"}`), nil
	}
	id := f.uploadValidated(t, "a.pdf")

	res, err := f.svc.Extract(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, res.Fields.PurchasedAt)
	assert.Equal(t, "Unknown", res.Fields.MerchantName)
	assert.Equal(t, float64(0), res.Fields.TotalAmount)
}

func TestExtractSecondCallAlreadyProcessed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.uploadValidated(t, "a.pdf")

	_, err := f.svc.Extract(ctx, id)
	require.NoError(t, err)

	_, err = f.svc.Extract(ctx, id)
	var processed *AlreadyProcessedError
	require.ErrorAs(t, err, &processed)
	assert.Equal(t, id, processed.DocumentID)
	assert.Equal(t, 1, f.receipts.countFor(id))
}

func TestExtractServiceFailureLeavesUnprocessed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.fields.fn = func(string) ([]byte, error) {
		return nil, errors.New("gemini: 503")
	}
	id := f.uploadValidated(t, "a.pdf")

	_, err := f.svc.Extract(ctx, id)
	var svcErr *ExtractionServiceError
	require.ErrorAs(t, err, &svcErr)

	doc, _ := f.registry.GetByID(ctx, id)
	assert.False(t, doc.Processed)
	assert.Equal(t, 0, f.receipts.countFor(id))

	// A retry after the service recovers succeeds.
	f.fields.fn = nil
	_, err = f.svc.Extract(ctx, id)
	require.NoError(t, err)
}

func TestExtractUnparseableResponse(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	raw := "I could not find any receipt data in this text, sorry."
	f.fields.fn = func(string) ([]byte, error) {
		return []byte(raw), nil
	}
	id := f.uploadValidated(t, "a.pdf")

	_, err := f.svc.Extract(ctx, id)
	var unparseable *UnparseableExtractionError
	require.ErrorAs(t, err, &unparseable)
	assert.Equal(t, raw, string(unparseable.Raw))

	doc, _ := f.registry.GetByID(ctx, id)
	assert.False(t, doc.Processed)
	assert.Equal(t, 0, f.receipts.countFor(id))
}

func TestExtractToleratesProseAroundJSON(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.fields.fn = func(string) ([]byte, error) {
		return []byte("Here is the extracted data:\n```json\n{\"purchased_at\":\"2024-01-05\",\"merchant_name\":\"Acme {West}\",\"total_amount\":7}\n```\nLet me know if you need more."), nil
	}
	id := f.uploadValidated(t, "a.pdf")

	res, err := f.svc.Extract(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme {West}", res.Fields.MerchantName)
	assert.Equal(t, float64(7), res.Fields.TotalAmount)
}

func TestExtractDetectsOrphanReceipt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.uploadValidated(t, "a.pdf")

	// Simulate a crash between the two writes of an earlier run: the receipt
	// exists but the processed flag was never set.
	_, err := f.receipts.Create(ctx, &repository.CreateReceiptRequest{
		DocumentID:   id,
		MerchantName: "Acme",
		TotalAmount:  12.50,
		SourcePath:   "blob-1.pdf",
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = f.svc.Extract(ctx, id)
		var processed *AlreadyProcessedError
		require.ErrorAs(t, err, &processed)
	}
	assert.Equal(t, 1, f.receipts.countFor(id), "no second receipt may be created")
}

func TestExtractLostConditionalUpdate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.uploadValidated(t, "a.pdf")

	// An interfering writer flips the flag between this call's re-check and
	// its conditional update.
	f.receipts.onCreate = func() {
		f.registry.mu.Lock()
		f.registry.docs[id].Processed = true
		f.registry.mu.Unlock()
	}

	_, err := f.svc.Extract(ctx, id)
	var processed *AlreadyProcessedError
	require.ErrorAs(t, err, &processed)
	assert.Equal(t, 0, f.receipts.countFor(id), "the losing write must be undone")
}

func TestExtractInterleavedCallsKeepOneReceipt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.uploadValidated(t, "a.pdf")

	// A competing Extract runs to completion in the window between this
	// call's receipt-existence re-check and its receipt write, so both calls
	// pass the re-check and both write a receipt.
	var competed bool
	f.receipts.onCreate = func() {
		if competed {
			return
		}
		competed = true
		_, err := f.svc.Extract(ctx, id)
		require.NoError(t, err)
	}

	_, err := f.svc.Extract(ctx, id)
	var processed *AlreadyProcessedError
	require.ErrorAs(t, err, &processed)

	doc, err := f.registry.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, doc.Processed)
	assert.Equal(t, 1, f.receipts.countFor(id), "the loser's receipt must not survive")
}

func TestExtractConcurrentSingleWinner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.uploadValidated(t, "same.pdf")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Extract(ctx, id)
		}(i)
	}
	wg.Wait()

	successes := 0
	for i := 0; i < n; i++ {
		if errs[i] == nil {
			successes++
			continue
		}
		var processed *AlreadyProcessedError
		require.ErrorAs(t, errs[i], &processed, "losers must report already processed, got %v", errs[i])
	}
	assert.Equal(t, 1, successes, "the conditional update admits exactly one winner")

	doc, err := f.registry.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, doc.Processed)
	assert.Equal(t, 1, f.receipts.countFor(id), "only the winner's receipt survives")
}

func TestListReceiptsNewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, name := range []string{"a.pdf", "b.pdf"} {
		id := f.uploadValidated(t, name)
		_, err := f.svc.Extract(ctx, id)
		require.NoError(t, err)
	}

	recs, err := f.svc.ListReceipts(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.False(t, recs[0].CreatedAt.Before(recs[1].CreatedAt))
}

func TestGetReceiptNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.GetReceipt(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
