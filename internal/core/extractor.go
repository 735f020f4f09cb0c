package core

import (
	"context"
)

// Page is the text of one page (1-indexed) of a source file.
type Page struct {
	Number int
	Text   string
}

// DocumentExtractor turns raw file bytes into per-page text.
// The `contentType` hint helps the extractor choose the right parsing strategy.
type DocumentExtractor interface {
	Name() string
	Extract(ctx context.Context, data []byte, contentType string) ([]Page, error)
}
