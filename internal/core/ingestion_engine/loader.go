package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/core/normalizer"
	objectclient "github.com/markdave123-py/legalmind/internal/core/object-client"
	"github.com/markdave123-py/legalmind/internal/models"
)

// Source kinds the loader routes on.
const (
	SourcePDF    = "pdf"
	SourceText   = "text"
	SourceOffice = "office"
)

// MalformedHint is returned to callers whose file has a corrupted layout.
const MalformedHint = "the file has a corrupted internal layout; re-save the PDF (for example with \"Print to PDF\") or convert it to a standard format and upload it again"

// malformedSignatures are substrings of parser errors that indicate a broken
// page layout rather than an unsupported or unreadable file.
var malformedSignatures = []string{"bbox", "mediabox", "cropbox", "malformed", "xref"}

type extractorPair struct {
	primary   core.DocumentExtractor
	secondary core.DocumentExtractor
}

// Loader reads a corpus' source file and produces normalized per-page text.
// Each source kind has a primary extractor and a secondary one tried when the
// primary fails.
type Loader struct {
	obj    core.ObjectClient
	routes map[string]extractorPair
}

// NewLoader wires the default extractor routes:
// PDF -> ledongthuc/pdf then docconv, text -> plain then docconv,
// office formats -> docconv then plain text.
func NewLoader(obj core.ObjectClient, useReadability bool) *Loader {
	dc := NewDocconvExtractor(useReadability)
	pt := NewPlainTextExtractor()
	l := &Loader{obj: obj, routes: make(map[string]extractorPair)}
	l.Register(SourcePDF, NewPDFExtractor(), dc)
	l.Register(SourceText, pt, dc)
	l.Register(SourceOffice, dc, pt)
	return l
}

// Register replaces the extractor pair used for a source kind.
func (l *Loader) Register(kind string, primary, secondary core.DocumentExtractor) {
	l.routes[kind] = extractorPair{primary: primary, secondary: secondary}
}

// Load fetches the corpus file and extracts its pages, normalized for the
// corpus language. Failures are core.ErrLoad or *core.MalformedDocumentError.
func (l *Loader) Load(ctx context.Context, c *models.Corpus) ([]core.Page, error) {
	bucket, key := objectclient.ParseURL(c.StorageURL)
	data, err := l.obj.GetFile(ctx, bucket, key)
	if err != nil {
		return nil, core.Wrap(core.ErrLoad, "read source file", err)
	}

	contentType := EffectiveContentType(c.ContentType, c.FileName)
	pair, ok := l.routes[SourceKind(contentType, c.FileName)]
	if !ok {
		return nil, fmt.Errorf("%w: no extractor for %q", core.ErrLoad, contentType)
	}

	pages, primaryErr := runExtractor(ctx, pair.primary, data, contentType)
	if primaryErr != nil {
		log.Printf("CorpusLoader: %s failed for corpus %s, falling back to %s: %v",
			pair.primary.Name(), c.ID, pair.secondary.Name(), primaryErr)

		var secondaryErr error
		pages, secondaryErr = runExtractor(ctx, pair.secondary, data, contentType)
		if secondaryErr != nil {
			return nil, classifyFailure(primaryErr, secondaryErr)
		}
	}

	for i := range pages {
		pages[i].Text = normalizer.Normalize(pages[i].Text, c.Language)
	}
	return pages, nil
}

// runExtractor calls ex and turns panics and text-less results into errors.
func runExtractor(ctx context.Context, ex core.DocumentExtractor, data []byte, contentType string) (pages []core.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%s: panic: %v", ex.Name(), r)
		}
	}()

	pages, err = ex.Extract(ctx, data, contentType)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return pages, nil
		}
	}
	return nil, fmt.Errorf("%s: no extractable text", ex.Name())
}

func classifyFailure(primaryErr, secondaryErr error) error {
	if isMalformed(secondaryErr) || isMalformed(primaryErr) {
		return &core.MalformedDocumentError{Hint: MalformedHint, Err: errors.Join(primaryErr, secondaryErr)}
	}
	return fmt.Errorf("%w: %w", core.ErrLoad, errors.Join(primaryErr, secondaryErr))
}

func isMalformed(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range malformedSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// EffectiveContentType falls back to the file extension when the declared
// content type is missing or generic.
func EffectiveContentType(contentType, fileName string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		return docconv.MimeTypeByExtension(fileName)
	}
	return ct
}

// SourceKind picks the extractor route for a file.
func SourceKind(contentType, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch {
	case strings.Contains(contentType, "pdf") || ext == ".pdf":
		return SourcePDF
	case strings.HasPrefix(contentType, "text/plain") || ext == ".txt" || ext == ".md":
		return SourceText
	default:
		return SourceOffice
	}
}
