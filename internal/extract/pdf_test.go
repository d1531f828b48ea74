package extract

import (
	"bytes"
	"context"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixturePDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range lines {
		pdf.Cell(0, 10, line)
		pdf.Ln(10)
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestPDFExtractorReadsText(t *testing.T) {
	data := fixturePDF(t, "Acme Coffee", "Total: 12.50")
	e := NewPDFExtractor(nil)

	res, err := e.Extract(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
	assert.Contains(t, res.Text, "Acme Coffee")
	assert.Contains(t, res.Text, "12.50")
}

func TestPDFExtractorMultiplePages(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Cell(0, 10, "page one")
	pdf.AddPage()
	pdf.Cell(0, 10, "page two")
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))

	e := NewPDFExtractor(nil)
	res, err := e.Extract(context.Background(), buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "page one")
	assert.Contains(t, res.Text, "page two")
}

func TestPDFExtractorMalformed(t *testing.T) {
	e := NewPDFExtractor(nil)
	_, err := e.Extract(context.Background(), []byte("%PDF-1.4 not actually a pdf"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPDFExtractorCanceledContext(t *testing.T) {
	data := fixturePDF(t, "anything")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewPDFExtractor(nil)
	_, err := e.Extract(ctx, data)
	assert.ErrorIs(t, err, context.Canceled)
}
