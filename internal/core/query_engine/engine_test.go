package query_engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/core/llm/llmtest"
	"github.com/markdave123-py/legalmind/internal/core/vectorindex"
	"github.com/markdave123-py/legalmind/internal/models"
)

type engineFixture struct {
	index  *vectorindex.Manager
	llm    *llmtest.ScriptedLLM
	engine *Engine
}

func newEngineFixture() *engineFixture {
	index := vectorindex.NewManager(vectorindex.NewMemoryBackend(), llmtest.NewHashEmbedder(64))
	llm := &llmtest.ScriptedLLM{Answer: "The notice period is sixty days."}
	return &engineFixture{index: index, llm: llm, engine: NewEngine(index, llm)}
}

func (f *engineFixture) ingest(t *testing.T, c *models.Corpus, texts ...string) {
	t.Helper()
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{ID: fmt.Sprintf("%s-%d", c.ID, i), CorpusID: c.ID, Ordinal: i, PageNumber: i%3 + 1, Content: text}
	}
	require.NoError(t, f.index.Add(context.Background(), f.index.Collection(c), chunks))
}

func readyDocument(id string) *models.Corpus {
	return &models.Corpus{ID: id, Kind: models.CorpusKindDocument, Title: "Lease", Language: "en", Status: models.StatusReady}
}

func TestAnswer_ChatOnDocument(t *testing.T) {
	f := newEngineFixture()
	c := readyDocument("c1")
	f.ingest(t, c,
		"The termination notice period is sixty days written notice.",
		"Rent is due on the first day of each month.",
		"The deposit is refundable within thirty days.",
	)

	res, err := f.engine.Answer(context.Background(), Request{Corpus: c, Task: TaskChat, Input: "What is the termination notice period?"})
	require.NoError(t, err)
	assert.Equal(t, "The notice period is sixty days.", res.Answer)
	require.Len(t, res.Citations, 3)
	assert.Equal(t, 0, res.Citations[0].ChunkIndex, "most relevant chunk first")
	for _, cit := range res.Citations {
		assert.GreaterOrEqual(t, cit.Page, 1)
		assert.LessOrEqual(t, cit.Page, 3)
	}

	call, err := f.llm.Last()
	require.NoError(t, err)
	assert.Equal(t, "What is the termination notice period?", call.User)
	assert.Zero(t, call.Temperature)
	assert.True(t, strings.HasPrefix(call.System, documentSystemPrompt))
	assert.Contains(t, call.System, "sixty days written notice.")
	assert.NotContains(t, call.System, "What is the termination notice period?", "question stays out of the grounding context")
}

func TestAnswer_CitationsComeFromRetrievedSet(t *testing.T) {
	f := newEngineFixture()
	c := readyDocument("c1")
	texts := make([]string, 30)
	for i := range texts {
		texts[i] = fmt.Sprintf("Clause %d refers to Article %d of the Civil Code.", i, i+100)
	}
	f.ingest(t, c, texts...)
	other := readyDocument("other")
	f.ingest(t, other, "Foreign corpus text that must never be cited.")

	res, err := f.engine.Answer(context.Background(), Request{Corpus: c, Task: TaskReferences})
	require.NoError(t, err)
	assert.Len(t, res.Citations, 20)

	known := map[string]bool{}
	for _, text := range texts {
		known[text] = true
	}
	for _, cit := range res.Citations {
		assert.True(t, known[cit.Content], "citation %q not in corpus", cit.Content)
	}
}

func TestAnswer_AnalysisDefaults(t *testing.T) {
	f := newEngineFixture()
	c := readyDocument("c1")
	f.ingest(t, c, "The tenant pays rent monthly.")

	_, err := f.engine.Answer(context.Background(), Request{Corpus: c, Task: TaskSummary, Title: "Office Lease"})
	require.NoError(t, err)

	call, _ := f.llm.Last()
	tmpl, _ := Lookup(TaskSummary)
	assert.Equal(t, tmpl.Instruction, call.User)
	assert.InDelta(t, 0.1, call.Temperature, 1e-6)
	assert.Contains(t, call.System, "**Document Overview**")
	assert.Contains(t, call.System, "Document title: Office Lease")
}

func TestAnswer_LawCorpus(t *testing.T) {
	f := newEngineFixture()
	law := &models.Corpus{ID: "l1", Kind: models.CorpusKindLaw, Slug: "labor-law", Language: "ar", Status: models.StatusReady}
	f.ingest(t, law, "المادة الأولى يسري هذا القانون", "المادة الثانية الأجر", "المادة الثالثة الإجازات")

	res, err := f.engine.Answer(context.Background(), Request{Corpus: law, Task: TaskClauses})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Citations)

	call, _ := f.llm.Last()
	tmpl, _ := Lookup(TaskClauses)
	assert.Equal(t, tmpl.LawInstruction, call.User)
	assert.True(t, strings.HasPrefix(call.System, lawSystemPrompt))
	assert.Contains(t, call.System, arabicLawContextNote)
	assert.Contains(t, call.System, "(in Arabic)")
}

func TestAnswer_ArabicDocumentIsNotCalledALaw(t *testing.T) {
	f := newEngineFixture()
	c := &models.Corpus{ID: "d-ar", Kind: models.CorpusKindDocument, Title: "عقد إيجار", Language: "ar", Status: models.StatusReady}
	f.ingest(t, c, "يلتزم المستأجر بدفع الأجرة شهريا")

	_, err := f.engine.Answer(context.Background(), Request{Corpus: c, Task: TaskSummary})
	require.NoError(t, err)

	call, _ := f.llm.Last()
	assert.Contains(t, call.System, arabicDocumentContextNote)
	assert.NotContains(t, call.System, "Egyptian law written IN ARABIC")
	assert.Contains(t, call.System, "(in Arabic)")
}

func TestAnswer_ComplianceCategory(t *testing.T) {
	f := newEngineFixture()
	c := readyDocument("c1")
	f.ingest(t, c, "Employees work 60 hours per week without overtime pay.")

	_, err := f.engine.Answer(context.Background(), Request{Corpus: c, Task: TaskCompliance, LawCategory: "labor"})
	require.NoError(t, err)

	call, _ := f.llm.Last()
	assert.Contains(t, call.User, "Area of law: labor.")
	assert.Contains(t, call.System, "Area of law to check against: labor")
	assert.Zero(t, call.Temperature)
}

func TestAnswer_Errors(t *testing.T) {
	f := newEngineFixture()
	c := readyDocument("c1")
	f.ingest(t, c, "text")
	ctx := context.Background()

	_, err := f.engine.Answer(ctx, Request{Task: TaskChat, Input: "q"})
	assert.ErrorIs(t, err, core.ErrValidation)

	pending := &models.Corpus{ID: "p", Kind: models.CorpusKindDocument, Status: models.StatusProcessing}
	_, err = f.engine.Answer(ctx, Request{Corpus: pending, Task: TaskChat, Input: "q"})
	assert.ErrorIs(t, err, core.ErrNotReady)

	_, err = f.engine.Answer(ctx, Request{Corpus: c, Task: "poetry"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.engine.Answer(ctx, Request{Corpus: c, Task: TaskChat, Input: "   "})
	assert.ErrorIs(t, err, core.ErrValidation)

	f.llm.Err = errors.New("upstream 503")
	_, err = f.engine.Answer(ctx, Request{Corpus: c, Task: TaskChat, Input: "q"})
	assert.ErrorIs(t, err, core.ErrGeneration)
	assert.Contains(t, err.Error(), "upstream 503")

	f.llm.Err = nil
	f.llm.Answer = "  "
	_, err = f.engine.Answer(ctx, Request{Corpus: c, Task: TaskChat, Input: "q"})
	assert.ErrorIs(t, err, core.ErrGeneration)
}

func TestAnswer_EmptyCollectionStillAnswers(t *testing.T) {
	f := newEngineFixture()
	res, err := f.engine.Answer(context.Background(), Request{Corpus: readyDocument("empty"), Task: TaskChat, Input: "q"})
	require.NoError(t, err)
	assert.Empty(t, res.Citations)

	call, _ := f.llm.Last()
	assert.Contains(t, call.System, noContextNote)
}

func TestResolveStrategy(t *testing.T) {
	doc := &models.Corpus{Kind: models.CorpusKindDocument}
	law := &models.Corpus{Kind: models.CorpusKindLaw}

	assert.Equal(t, StrategySimilarity, resolveStrategy(StrategyAuto, StrategyAuto, doc))
	assert.Equal(t, StrategyDiverse, resolveStrategy(StrategyAuto, StrategyAuto, law))
	assert.Equal(t, StrategySimilarity, resolveStrategy(StrategySimilarity, StrategyAuto, law))
	assert.Equal(t, StrategyDiverse, resolveStrategy(StrategyAuto, StrategyDiverse, doc))
	assert.Equal(t, StrategySimilarity, resolveStrategy("bogus", StrategyAuto, doc))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 200))
	assert.Equal(t, "abc...", Preview("abcdef", 3))
	assert.Equal(t, "مرح...", Preview("مرحبا", 3))
}

func TestTaskTable(t *testing.T) {
	want := map[string]struct {
		k    int
		temp float32
	}{
		TaskChat:             {15, 0},
		TaskClauses:          {10, 0},
		TaskSummary:          {15, 0.1},
		TaskCompliance:       {12, 0},
		TaskBilingualSummary: {15, 0.2},
		TaskReferences:       {20, 0},
	}
	for name, w := range want {
		tmpl, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, w.k, tmpl.K, name)
		assert.InDelta(t, w.temp, tmpl.Temperature, 1e-6, name)
		if name != TaskChat {
			assert.NotEmpty(t, tmpl.System, name)
			assert.NotEmpty(t, tmpl.Instruction, name)
		}
	}
	assert.Equal(t, []string{TaskBilingualSummary, TaskClauses, TaskCompliance, TaskReferences, TaskSummary}, AnalysisTasks())
}
