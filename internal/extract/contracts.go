package extract

import (
	"context"
	"errors"
)

// ErrMalformed reports that the bytes could not be parsed as a document at
// all, as opposed to parsing fine but containing no text.
var ErrMalformed = errors.New("malformed document")

// TextExtractor turns document bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text  string
	Pages int
}
