package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/legalmind/internal/core"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements core.DocumentExtractor using sajari/docconv.
// Page boundaries are taken from form feeds in the converted body, which is
// what the pdftotext backend emits between pages.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

func (e *DocconvExtractor) Name() string { return "docconv" }

// Extract converts the file with docconv and splits the body into pages.
func (e *DocconvExtractor) Extract(ctx context.Context, data []byte, contentType string) ([]core.Page, error) {
	res, err := docconv.Convert(bytes.NewReader(data), contentType, e.useReadability)
	if err != nil {
		log.Printf("docconv: extraction failed for content type '%s': %v", contentType, err)
		return nil, fmt.Errorf("docconv convert: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(res.Body) == "" {
		log.Printf("docconv: extracted empty text for content type '%s'", contentType)
	}
	return splitFormFeeds(res.Body), nil
}

// splitFormFeeds turns a form-feed separated body into 1-indexed pages.
// A trailing empty page after the final form feed is dropped.
func splitFormFeeds(body string) []core.Page {
	parts := strings.Split(body, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	pages := make([]core.Page, 0, len(parts))
	for i, p := range parts {
		pages = append(pages, core.Page{Number: i + 1, Text: p})
	}
	return pages
}
