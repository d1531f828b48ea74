package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
)

// PDFExtractor extracts the embedded text layer of a PDF using MuPDF.
type PDFExtractor struct {
	logger *slog.Logger
}

func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{logger: logger}
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (TextExtractionResult, error) {
	start := time.Now()

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return TextExtractionResult{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer doc.Close()

	var sb strings.Builder
	pages := doc.NumPage()
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return TextExtractionResult{}, err
		}
		text, err := doc.Text(i)
		if err != nil {
			return TextExtractionResult{}, fmt.Errorf("%w: page %d: %v", ErrMalformed, i, err)
		}
		sb.WriteString(text)
	}

	res := TextExtractionResult{Text: sb.String(), Pages: pages}
	e.logger.Debug("extract.pdf.ok",
		"pages", pages,
		"text_bytes", len(res.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
