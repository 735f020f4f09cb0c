// Package query_engine answers questions and runs structured analyses over a
// single ready corpus: retrieve, fill the task template, generate.
package query_engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/core/normalizer"
	"github.com/markdave123-py/legalmind/internal/core/vectorindex"
	"github.com/markdave123-py/legalmind/internal/models"
)

// PreviewRunes bounds the citation preview text.
const PreviewRunes = 200

// Request is one retrieval + generation call.
//
// Input:       the question (chat) or an instruction overriding the task default.
// Title:       optional title of the corpus, added to the prompt.
// LawCategory: area of law a compliance check is run against.
type Request struct {
	Corpus      *models.Corpus
	Task        string
	Input       string
	Title       string
	LawCategory string
	Strategy    Strategy
}

type Result struct {
	Answer    string            `json:"answer"`
	Citations []models.Citation `json:"sources"`
}

type Engine struct {
	index  *vectorindex.Manager
	llm    core.LLMProvider
	fetchK int
	lambda float32
}

func NewEngine(index *vectorindex.Manager, llm core.LLMProvider) *Engine {
	return &Engine{
		index:  index,
		llm:    llm,
		fetchK: vectorindex.DefaultFetchK,
		lambda: vectorindex.DefaultLambda,
	}
}

// Answer retrieves chunks for the request, generates the answer and cites
// exactly the retrieved chunks.
func (e *Engine) Answer(ctx context.Context, req Request) (*Result, error) {
	if req.Corpus == nil {
		return nil, fmt.Errorf("%w: corpus is required", core.ErrValidation)
	}
	if !req.Corpus.IsReady() {
		return nil, fmt.Errorf("%w: corpus %s is %s", core.ErrNotReady, req.Corpus.ID, req.Corpus.Status)
	}
	tmpl, ok := Lookup(req.Task)
	if !ok {
		return nil, fmt.Errorf("%w: unknown task %q", core.ErrValidation, req.Task)
	}

	input := strings.TrimSpace(req.Input)
	if input == "" {
		if tmpl.Name == TaskChat {
			return nil, fmt.Errorf("%w: question is required", core.ErrValidation)
		}
		input = tmpl.Instruction
		if req.Corpus.IsLaw() && tmpl.LawInstruction != "" {
			input = tmpl.LawInstruction
		}
	}
	if tmpl.Name == TaskCompliance && req.LawCategory != "" {
		input = fmt.Sprintf("%s Area of law: %s.", input, req.LawCategory)
	}

	hits, err := e.retrieve(ctx, req, tmpl, input)
	if err != nil {
		return nil, err
	}

	system := buildSystemPrompt(tmpl, req, hits)
	answer, err := e.llm.Generate(ctx, system, input, tmpl.Temperature)
	if err != nil {
		return nil, core.Wrap(core.ErrGeneration, tmpl.Name, err)
	}
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("%w: %s: empty answer", core.ErrGeneration, tmpl.Name)
	}

	log.Printf("QueryEngine: %s on corpus %s used %d chunks", tmpl.Name, req.Corpus.ID, len(hits))
	return &Result{Answer: answer, Citations: citations(hits)}, nil
}

func (e *Engine) retrieve(ctx context.Context, req Request, tmpl TaskSpec, query string) ([]vectorindex.Hit, error) {
	h := e.index.Collection(req.Corpus)
	switch resolveStrategy(req.Strategy, tmpl.Strategy, req.Corpus) {
	case StrategyDiverse:
		return e.index.SearchDiverse(ctx, h, query, tmpl.K, e.fetchK, e.lambda)
	default:
		return e.index.SearchSimilarity(ctx, h, query, tmpl.K)
	}
}

// resolveStrategy prefers the request, then the task, then the corpus kind.
func resolveStrategy(requested, task Strategy, corpus *models.Corpus) Strategy {
	for _, s := range []Strategy{requested, task} {
		if s == StrategySimilarity || s == StrategyDiverse {
			return s
		}
	}
	if corpus.IsLaw() {
		return StrategyDiverse
	}
	return StrategySimilarity
}

func buildSystemPrompt(tmpl TaskSpec, req Request, hits []vectorindex.Hit) string {
	arabic := normalizer.IsArabic(req.Corpus.Language)

	var b strings.Builder
	if req.Corpus.IsLaw() {
		b.WriteString(lawSystemPrompt)
	} else {
		b.WriteString(documentSystemPrompt)
	}

	if tmpl.System != "" {
		b.WriteString("\n\n")
		b.WriteString(tmpl.System)
	}
	if arabic && !(tmpl.Name == TaskChat && req.Corpus.IsLaw()) {
		b.WriteString("\n\n")
		if req.Corpus.IsLaw() {
			b.WriteString(arabicLawContextNote)
		} else {
			b.WriteString(arabicDocumentContextNote)
		}
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		fmt.Fprintf(&b, "\n\nDocument title: %s", title)
	}
	if tmpl.Name == TaskCompliance && req.LawCategory != "" {
		fmt.Fprintf(&b, "\nArea of law to check against: %s", req.LawCategory)
	}

	if arabic {
		b.WriteString("\n\nContext from the document (in Arabic):\n")
	} else {
		b.WriteString("\n\nContext from the document:\n")
	}
	b.WriteString(formatContext(hits))
	return b.String()
}

func formatContext(hits []vectorindex.Hit) string {
	if len(hits) == 0 {
		return noContextNote
	}
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = fmt.Sprintf("[Page %d]\n%s", h.Page, h.Content)
	}
	return strings.Join(parts, "\n\n")
}

func citations(hits []vectorindex.Hit) []models.Citation {
	out := make([]models.Citation, 0, len(hits))
	for _, h := range hits {
		out = append(out, models.Citation{
			Content:    Preview(h.Content, PreviewRunes),
			Page:       h.Page,
			ChunkIndex: h.Ordinal,
		})
	}
	return out
}

// Preview truncates s to n runes, marking the cut with "...".
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
