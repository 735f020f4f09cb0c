package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/legalmind/internal/core"
	db "github.com/markdave123-py/legalmind/internal/core/database"
	ingestion "github.com/markdave123-py/legalmind/internal/core/ingestion_engine"
	"github.com/markdave123-py/legalmind/internal/core/llm/llmtest"
	objectclient "github.com/markdave123-py/legalmind/internal/core/object-client"
	qe "github.com/markdave123-py/legalmind/internal/core/query_engine"
	"github.com/markdave123-py/legalmind/internal/core/vectorindex"
	"github.com/markdave123-py/legalmind/internal/models"
)

const leaseText = "RESIDENTIAL LEASE AGREEMENT\n\nThe landlord leases the apartment to the tenant for twelve months. Rent is due on the first day of each month.\f" +
	"The tenant shall pay a security deposit equal to one month of rent. The deposit is refundable within thirty days after the lease ends.\f" +
	"Either party may terminate this lease with sixty days written notice. The termination notice period is sixty days."

type fixture struct {
	db       *db.MemoryClient
	obj      *objectclient.MemoryClient
	backend  *vectorindex.MemoryBackend
	llm      *llmtest.ScriptedLLM
	corpora  *CorpusService
	sessions *SessionStore
	chat     *ChatService
	analysis *AnalysisService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	f := &fixture{
		db:      db.NewMemoryClient(),
		obj:     objectclient.NewMemoryClient("bucket"),
		backend: vectorindex.NewMemoryBackend(),
		llm:     &llmtest.ScriptedLLM{Answer: "Sixty days written notice."},
	}
	index := vectorindex.NewManager(f.backend, llmtest.NewHashEmbedder(64))
	ingestor := ingestion.NewDocumentIngestor(f.db, ingestion.NewLoader(f.obj, false), index,
		ingestion.NewChannelQueue(8), nil, ingestion.IngestConfig{ChunkSize: 150, ChunkOverlap: 30})
	ingestor.Start(ctx, 1)

	engine := qe.NewEngine(index, f.llm)
	f.corpora = NewCorpusService(f.db, f.obj, index, ingestor, "bucket", 1)
	f.sessions = NewSessionStore(f.db)
	f.chat = NewChatService(f.corpora, f.sessions, engine)
	f.analysis = NewAnalysisService(f.corpora, engine)
	return f
}

func (f *fixture) uploadReady(t *testing.T, owner string) *models.Corpus {
	t.Helper()
	ctx := context.Background()
	c, err := f.corpora.Upload(ctx, UploadInput{OwnerID: owner, FileName: "office_lease.txt", ContentType: "text/plain", Data: []byte(leaseText)})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, _ := f.db.GetCorpusByID(ctx, c.ID)
		return got != nil && got.Status != models.StatusPending && got.Status != models.StatusProcessing
	}, 5*time.Second, 10*time.Millisecond)

	got, err := f.corpora.Get(ctx, owner, c.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusReady, got.Status, got.Error)
	return got
}

func TestEndToEnd_UploadIngestQuery(t *testing.T) {
	f := newFixture(t)
	c := f.uploadReady(t, "u1")
	assert.Equal(t, "Office Lease", c.Title)
	assert.Equal(t, 3, c.PageCount)
	assert.Positive(t, c.ChunkCount)

	res, err := f.chat.Query(context.Background(), "u1", c.ID, "What is the termination notice period?", "")
	require.NoError(t, err)
	assert.Equal(t, "Sixty days written notice.", res.Answer)
	assert.NotEmpty(t, res.SessionID)
	assert.NotEmpty(t, res.MessageID)
	require.NotEmpty(t, res.Sources)
	for _, s := range res.Sources {
		assert.GreaterOrEqual(t, s.Page, 1)
		assert.LessOrEqual(t, s.Page, 3)
	}

	out, err := f.analysis.Analyze(context.Background(), "u1", c.ID, qe.TaskSummary, AnalysisOptions{})
	require.NoError(t, err)
	assert.Equal(t, c.ID, out.CorpusID)
	assert.Equal(t, "Office Lease", out.CorpusTitle)
	assert.NotEmpty(t, out.Result)
}

func TestDelete_RemovesEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.uploadReady(t, "u1")
	res, err := f.chat.Query(ctx, "u1", c.ID, "notice?", "")
	require.NoError(t, err)

	require.NoError(t, f.corpora.Delete(ctx, "u1", c.ID))

	chunks, _ := f.db.GetChunksByCorpus(ctx, c.ID)
	assert.Empty(t, chunks)
	assert.Equal(t, -1, f.backend.Count(vectorindex.CollectionName(c)))
	assert.Zero(t, f.obj.Len())

	_, err = f.chat.Query(ctx, "u1", c.ID, "notice?", "")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.analysis.Analyze(ctx, "u1", c.ID, qe.TaskClauses, AnalysisOptions{})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.sessions.Get(ctx, "u1", res.SessionID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestDelete_OtherCallerSeesNotFound(t *testing.T) {
	f := newFixture(t)
	c := f.uploadReady(t, "u1")

	assert.ErrorIs(t, f.corpora.Delete(context.Background(), "u2", c.ID), core.ErrNotFound)
	_, err := f.chat.Query(context.Background(), "u2", c.ID, "notice?", "")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestQuery_SessionContinuity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.uploadReady(t, "u1")

	first, err := f.chat.Query(ctx, "u1", c.ID, "What is the rent?", "")
	require.NoError(t, err)
	second, err := f.chat.Query(ctx, "u1", c.ID, "And the deposit?", first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	detail, err := f.sessions.Get(ctx, "u1", first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "What is the rent?", detail.Session.Title)
	require.Len(t, detail.Messages, 4)
	roles := make([]string, len(detail.Messages))
	for i, m := range detail.Messages {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{models.RoleUser, models.RoleAssistant, models.RoleUser, models.RoleAssistant}, roles)
	assert.Equal(t, "And the deposit?", detail.Messages[2].Content)
	assert.NotEmpty(t, detail.Messages[3].Sources)

	third, err := f.chat.Query(ctx, "u1", c.ID, "Late fees?", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, third.SessionID)

	sessions, err := f.sessions.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestQuery_ForeignSessionRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.uploadReady(t, "u1")
	first, err := f.chat.Query(ctx, "u1", c.ID, "rent?", "")
	require.NoError(t, err)

	other := f.uploadReady(t, "u1")
	_, err = f.chat.Query(ctx, "u1", other.ID, "rent?", first.SessionID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	_, err = f.sessions.Get(ctx, "u2", first.SessionID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.ErrorIs(t, f.sessions.Delete(ctx, "u2", first.SessionID), core.ErrSessionNotFound)
}

func TestQuery_GenerationFailureKeepsOnlyQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.uploadReady(t, "u1")
	first, err := f.chat.Query(ctx, "u1", c.ID, "rent?", "")
	require.NoError(t, err)

	f.llm.Err = errors.New("model overloaded")
	_, err = f.chat.Query(ctx, "u1", c.ID, "deposit?", first.SessionID)
	assert.ErrorIs(t, err, core.ErrGeneration)

	detail, err := f.sessions.Get(ctx, "u1", first.SessionID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 3)
	assert.Equal(t, models.RoleUser, detail.Messages[2].Role)
}

func TestQuery_NotReady(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := &models.Corpus{ID: "p1", Kind: models.CorpusKindDocument, OwnerID: "u1", Title: "Pending", Status: models.StatusPending}
	require.NoError(t, f.db.CreateCorpus(ctx, c))

	_, err := f.chat.Query(ctx, "u1", c.ID, "anything?", "")
	assert.ErrorIs(t, err, core.ErrNotReady)
	sessions, _ := f.sessions.List(ctx, "u1")
	assert.Empty(t, sessions)

	_, err = f.analysis.Analyze(ctx, "u1", c.ID, qe.TaskSummary, AnalysisOptions{})
	assert.ErrorIs(t, err, core.ErrNotReady)
}

func TestUpload_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []UploadInput{
		{OwnerID: "u1", FileName: "malware.exe", Data: []byte("MZ")},
		{OwnerID: "u1", FileName: "empty.pdf"},
		{OwnerID: "u1", FileName: "huge.pdf", Data: make([]byte, 2<<20)},
		{FileName: "lease.pdf", Data: []byte("%PDF")},
	}
	for _, in := range cases {
		_, err := f.corpora.Upload(ctx, in)
		assert.ErrorIs(t, err, core.ErrValidation, in.FileName)
	}
	assert.Zero(t, f.obj.Len())
	list, err := f.corpora.List(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestIngest_Rules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.uploadReady(t, "u1")

	got, err := f.corpora.Ingest(ctx, "u1", c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, got.Status)

	require.NoError(t, f.db.UpdateCorpusStatus(ctx, c.ID, models.StatusProcessing, ""))
	_, err = f.corpora.Ingest(ctx, "u1", c.ID, false)
	assert.ErrorIs(t, err, core.ErrAlreadyProcessing)

	_, err = f.corpora.Ingest(ctx, "u2", c.ID, true)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestIngest_ForceRecoversStuckProcessing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.uploadReady(t, "u1")

	// A worker that died mid-run leaves the corpus in processing.
	require.NoError(t, f.db.UpdateCorpusStatus(ctx, c.ID, models.StatusProcessing, ""))

	_, err := f.corpora.Ingest(ctx, "u1", c.ID, true)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, _ := f.db.GetCorpusByID(ctx, c.ID)
		return got != nil && got.IsReady()
	}, 5*time.Second, 10*time.Millisecond)

	res, err := f.chat.Query(ctx, "u1", c.ID, "What is the termination notice period?", "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Sources)
}

func TestIngest_SharedCorpusRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.db.CreateCorpus(ctx, &models.Corpus{ID: "law1", Kind: models.CorpusKindLaw, Slug: "labor-law", Title: "Labor Law", Status: models.StatusReady}))

	for _, force := range []bool{false, true} {
		_, err := f.corpora.Ingest(ctx, "u1", "law1", force)
		assert.ErrorIs(t, err, core.ErrValidation)
	}
	law, err := f.db.GetCorpusByID(ctx, "law1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, law.Status)
}

type failingIngestor struct{ ingestion.Ingestor }

func (failingIngestor) Enqueue(context.Context, ingestion.Job) error {
	return errors.New("queue unavailable")
}

func TestUpload_EnqueueFailureLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	index := vectorindex.NewManager(f.backend, llmtest.NewHashEmbedder(64))
	corpora := NewCorpusService(f.db, f.obj, index, failingIngestor{}, "bucket", 1)

	_, err := corpora.Upload(ctx, UploadInput{OwnerID: "u1", FileName: "lease.txt", Data: []byte(leaseText)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue unavailable")

	assert.Zero(t, f.obj.Len())
	list, err := corpora.List(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAnalyze_Validation(t *testing.T) {
	f := newFixture(t)
	c := f.uploadReady(t, "u1")

	_, err := f.analysis.Analyze(context.Background(), "u1", c.ID, qe.TaskChat, AnalysisOptions{})
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = f.analysis.Analyze(context.Background(), "u1", c.ID, "horoscope", AnalysisOptions{})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestListLaws_OnlyReady(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.db.CreateCorpus(ctx, &models.Corpus{ID: "l1", Kind: models.CorpusKindLaw, Slug: "labor-law", Title: "Labor Law", Status: models.StatusReady}))
	require.NoError(t, f.db.CreateCorpus(ctx, &models.Corpus{ID: "l2", Kind: models.CorpusKindLaw, Slug: "tax-law", Title: "Tax Law", Status: models.StatusPending}))

	laws, err := f.corpora.ListLaws(ctx, "")
	require.NoError(t, err)
	require.Len(t, laws, 1)
	assert.Equal(t, "labor-law", laws[0].Slug)

	law, err := f.corpora.GetBySlug(ctx, "labor-law")
	require.NoError(t, err)
	assert.Equal(t, "l1", law.ID)
	_, err = f.corpora.GetBySlug(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, f.corpora.Delete(ctx, "u1", "l1"), core.ErrValidation)
}

func TestTitleHelpers(t *testing.T) {
	assert.Equal(t, "Office Lease", TitleFromFileName("office_lease.pdf"))
	assert.Equal(t, "Nda 2024", TitleFromFileName("/tmp/nda_2024.docx"))
	assert.Equal(t, "short", SessionTitle("short"))
	long := strings.Repeat("a", 60)
	assert.Equal(t, strings.Repeat("a", 50)+"...", SessionTitle(long))
}
