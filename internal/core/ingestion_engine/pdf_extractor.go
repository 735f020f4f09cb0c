package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/markdave123-py/legalmind/internal/core"
)

var _ core.DocumentExtractor = (*PDFExtractor)(nil)

// PDFExtractor reads PDFs page by page with ledongthuc/pdf.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

func (e *PDFExtractor) Name() string { return "pdf" }

// Extract returns the plain text of every page. The underlying parser panics
// on some broken files; callers run it through runExtractor which recovers.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte, _ string) ([]core.Page, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("pdf: empty file")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf: open: %w", err)
	}

	total := r.NumPage()
	pages := make([]core.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, core.Page{Number: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf: page %d: %w", i, err)
		}
		pages = append(pages, core.Page{Number: i, Text: text})
	}
	return pages, nil
}
