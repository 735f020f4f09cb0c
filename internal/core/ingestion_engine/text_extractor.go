package ingestion_engine

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/markdave123-py/legalmind/internal/core"
)

var _ core.DocumentExtractor = (*PlainTextExtractor)(nil)

// PlainTextExtractor treats the file as UTF-8 text with form feeds as page breaks.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor { return &PlainTextExtractor{} }

func (e *PlainTextExtractor) Name() string { return "plaintext" }

func (e *PlainTextExtractor) Extract(_ context.Context, data []byte, _ string) ([]core.Page, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("plaintext: file is not valid UTF-8")
	}
	return splitFormFeeds(string(data)), nil
}
