package services

import (
	"context"
	"fmt"

	"github.com/markdave123-py/legalmind/internal/core"
	qe "github.com/markdave123-py/legalmind/internal/core/query_engine"
	"github.com/markdave123-py/legalmind/internal/models"
)

// AnalysisOptions tune a single analysis run. All fields are optional.
type AnalysisOptions struct {
	Instruction string
	LawCategory string
	Strategy    qe.Strategy
}

type AnalysisResult struct {
	Task        string            `json:"task"`
	Result      string            `json:"result"`
	Sources     []models.Citation `json:"sources"`
	CorpusID    string            `json:"corpus_id"`
	CorpusTitle string            `json:"corpus_title"`
}

type AnalysisService struct {
	corpora *CorpusService
	engine  *qe.Engine
}

func NewAnalysisService(corpora *CorpusService, engine *qe.Engine) *AnalysisService {
	return &AnalysisService{corpora: corpora, engine: engine}
}

// Analyze runs one of the structured analysis tasks over a ready corpus.
func (s *AnalysisService) Analyze(ctx context.Context, callerID, corpusID, task string, opts AnalysisOptions) (*AnalysisResult, error) {
	if task == qe.TaskChat {
		return nil, fmt.Errorf("%w: use the chat endpoint for questions", core.ErrValidation)
	}
	if _, ok := qe.Lookup(task); !ok {
		return nil, fmt.Errorf("%w: unknown analysis %q", core.ErrValidation, task)
	}

	corpus, err := s.corpora.Get(ctx, callerID, corpusID)
	if err != nil {
		return nil, err
	}

	title := corpus.Title
	if corpus.IsLaw() && corpus.TitleAlt != "" {
		title = corpus.TitleAlt
	}
	res, err := s.engine.Answer(ctx, qe.Request{
		Corpus:      corpus,
		Task:        task,
		Input:       opts.Instruction,
		Title:       title,
		LawCategory: opts.LawCategory,
		Strategy:    opts.Strategy,
	})
	if err != nil {
		return nil, err
	}

	return &AnalysisResult{
		Task:        task,
		Result:      res.Answer,
		Sources:     res.Citations,
		CorpusID:    corpus.ID,
		CorpusTitle: corpus.Title,
	}, nil
}
