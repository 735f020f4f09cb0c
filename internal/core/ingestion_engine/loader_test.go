package ingestion_engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/legalmind/internal/core"
	objectclient "github.com/markdave123-py/legalmind/internal/core/object-client"
	"github.com/markdave123-py/legalmind/internal/models"
)

type fakeExtractor struct {
	name   string
	pages  []core.Page
	err    error
	panics bool
	calls  int
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) Extract(context.Context, []byte, string) ([]core.Page, error) {
	f.calls++
	if f.panics {
		panic("index out of range")
	}
	return f.pages, f.err
}

func storedCorpus(t *testing.T, obj *objectclient.MemoryClient, fileName, contentType, lang string, data []byte) *models.Corpus {
	t.Helper()
	url, err := obj.UploadFile(context.Background(), "", objectclient.ObjectKey("u1", "c1", fileName), data, contentType)
	require.NoError(t, err)
	return &models.Corpus{
		ID:          "c1",
		Kind:        models.CorpusKindDocument,
		FileName:    fileName,
		StorageURL:  url,
		ContentType: contentType,
		Language:    lang,
	}
}

func TestLoader_PrimarySucceeds(t *testing.T) {
	obj := objectclient.NewMemoryClient("bucket")
	primary := &fakeExtractor{name: "primary", pages: []core.Page{{Number: 1, Text: "clause one"}}}
	secondary := &fakeExtractor{name: "secondary"}
	l := NewLoader(obj, false)
	l.Register(SourcePDF, primary, secondary)

	pages, err := l.Load(context.Background(), storedCorpus(t, obj, "lease.pdf", "application/pdf", "en", []byte("%PDF")))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "clause one", pages[0].Text)
	assert.Zero(t, secondary.calls)
}

func TestLoader_FallsBackToSecondary(t *testing.T) {
	obj := objectclient.NewMemoryClient("bucket")
	primary := &fakeExtractor{name: "primary", err: errors.New("unsupported encoding")}
	secondary := &fakeExtractor{name: "secondary", pages: []core.Page{{Number: 1, Text: "rescued"}}}
	l := NewLoader(obj, false)
	l.Register(SourcePDF, primary, secondary)

	pages, err := l.Load(context.Background(), storedCorpus(t, obj, "lease.pdf", "application/pdf", "en", []byte("%PDF")))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "rescued", pages[0].Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestLoader_RecoversExtractorPanic(t *testing.T) {
	obj := objectclient.NewMemoryClient("bucket")
	primary := &fakeExtractor{name: "primary", panics: true}
	secondary := &fakeExtractor{name: "secondary", pages: []core.Page{{Number: 1, Text: "ok"}}}
	l := NewLoader(obj, false)
	l.Register(SourcePDF, primary, secondary)

	pages, err := l.Load(context.Background(), storedCorpus(t, obj, "x.pdf", "application/pdf", "en", []byte("%PDF")))
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestLoader_BlankExtractionFallsBack(t *testing.T) {
	obj := objectclient.NewMemoryClient("bucket")
	primary := &fakeExtractor{name: "primary", pages: []core.Page{{Number: 1, Text: "  \n "}}}
	secondary := &fakeExtractor{name: "secondary", pages: []core.Page{{Number: 1, Text: "text"}}}
	l := NewLoader(obj, false)
	l.Register(SourcePDF, primary, secondary)

	_, err := l.Load(context.Background(), storedCorpus(t, obj, "x.pdf", "application/pdf", "en", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, 1, secondary.calls)
}

func TestLoader_MalformedLayout(t *testing.T) {
	obj := objectclient.NewMemoryClient("bucket")
	primary := &fakeExtractor{name: "primary", err: errors.New("unexpected EOF")}
	secondary := &fakeExtractor{name: "secondary", err: errors.New("invalid MediaBox entry on page 3")}
	l := NewLoader(obj, false)
	l.Register(SourcePDF, primary, secondary)

	_, err := l.Load(context.Background(), storedCorpus(t, obj, "x.pdf", "application/pdf", "en", []byte("%PDF")))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedDocument)
	assert.NotErrorIs(t, err, core.ErrLoad)

	var mde *core.MalformedDocumentError
	require.ErrorAs(t, err, &mde)
	assert.Equal(t, MalformedHint, mde.Hint)
}

func TestLoader_MalformedSignatureInPrimaryOnly(t *testing.T) {
	obj := objectclient.NewMemoryClient("bucket")
	primary := &fakeExtractor{name: "primary", err: errors.New("malformed xref table")}
	secondary := &fakeExtractor{name: "secondary", err: errors.New("exit status 1")}
	l := NewLoader(obj, false)
	l.Register(SourcePDF, primary, secondary)

	_, err := l.Load(context.Background(), storedCorpus(t, obj, "x.pdf", "application/pdf", "en", []byte("%PDF")))
	assert.ErrorIs(t, err, core.ErrMalformedDocument)
}

func TestLoader_GenericFailure(t *testing.T) {
	obj := objectclient.NewMemoryClient("bucket")
	primary := &fakeExtractor{name: "primary", err: errors.New("encrypted")}
	secondary := &fakeExtractor{name: "secondary", err: errors.New("pdftotext not installed")}
	l := NewLoader(obj, false)
	l.Register(SourcePDF, primary, secondary)

	_, err := l.Load(context.Background(), storedCorpus(t, obj, "x.pdf", "application/pdf", "en", []byte("%PDF")))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLoad)
	assert.NotErrorIs(t, err, core.ErrMalformedDocument)
	assert.Contains(t, err.Error(), "pdftotext not installed")
}

func TestLoader_MissingObject(t *testing.T) {
	l := NewLoader(objectclient.NewMemoryClient("bucket"), false)
	_, err := l.Load(context.Background(), &models.Corpus{ID: "c1", StorageURL: "memory://bucket/nowhere.pdf", FileName: "nowhere.pdf"})
	assert.ErrorIs(t, err, core.ErrLoad)
}

func TestLoader_PlainTextPagesAndNormalization(t *testing.T) {
	obj := objectclient.NewMemoryClient("bucket")
	l := NewLoader(obj, false)

	corpus := storedCorpus(t, obj, "notes.txt", "text/plain; charset=utf-8", "en", []byte("first\x00 page\fsecond page\f"))
	pages, err := l.Load(context.Background(), corpus)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "first page", pages[0].Text)
	assert.Equal(t, "second page", pages[1].Text)
}

func TestLoader_ArabicNormalization(t *testing.T) {
	obj := objectclient.NewMemoryClient("bucket")
	l := NewLoader(obj, false)

	corpus := storedCorpus(t, obj, "law.txt", "text/plain", "ar", []byte("الْمَادَّةُ   الأولى"))
	pages, err := l.Load(context.Background(), corpus)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "المادة الأولى", pages[0].Text)
}

func TestSourceKind(t *testing.T) {
	assert.Equal(t, SourcePDF, SourceKind("application/pdf", "a.bin"))
	assert.Equal(t, SourcePDF, SourceKind("", "A.PDF"))
	assert.Equal(t, SourceText, SourceKind("text/plain", "a"))
	assert.Equal(t, SourceText, SourceKind("", "readme.md"))
	assert.Equal(t, SourceOffice, SourceKind("application/vnd.openxmlformats-officedocument.wordprocessingml.document", "a.docx"))
}

func TestEffectiveContentType(t *testing.T) {
	assert.Equal(t, "text/plain", EffectiveContentType("Text/Plain; charset=utf-8", "a.pdf"))
	assert.Equal(t, "application/pdf", EffectiveContentType("", "contract.pdf"))
	assert.Equal(t, "application/pdf", EffectiveContentType("application/octet-stream", "contract.pdf"))
}
