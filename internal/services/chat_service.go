package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/markdave123-py/legalmind/internal/core"
	qe "github.com/markdave123-py/legalmind/internal/core/query_engine"
	"github.com/markdave123-py/legalmind/internal/models"
)

type QueryResult struct {
	Answer    string            `json:"answer"`
	Sources   []models.Citation `json:"sources"`
	SessionID string            `json:"session_id"`
	MessageID string            `json:"message_id"`
}

type ChatService struct {
	corpora  *CorpusService
	sessions *SessionStore
	engine   *qe.Engine
}

func NewChatService(corpora *CorpusService, sessions *SessionStore, engine *qe.Engine) *ChatService {
	return &ChatService{corpora: corpora, sessions: sessions, engine: engine}
}

// Query answers a question against one corpus inside a session. The question
// is stored before generation; the answer only once generation succeeds.
func (s *ChatService) Query(ctx context.Context, callerID, corpusID, question, sessionID string) (*QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", core.ErrValidation)
	}

	corpus, err := s.corpora.Get(ctx, callerID, corpusID)
	if err != nil {
		return nil, err
	}
	if !corpus.IsReady() {
		return nil, fmt.Errorf("%w: corpus %s is %s", core.ErrNotReady, corpus.ID, corpus.Status)
	}

	session, err := s.sessions.GetOrCreate(ctx, sessionID, callerID, corpus.ID, question)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Append(ctx, session, models.RoleUser, question, nil); err != nil {
		return nil, err
	}

	res, err := s.engine.Answer(ctx, qe.Request{
		Corpus: corpus,
		Task:   qe.TaskChat,
		Input:  question,
		Title:  corpus.Title,
	})
	if err != nil {
		log.Printf("ChatService: query on corpus %s failed: %v", corpus.ID, err)
		return nil, err
	}

	msg, err := s.sessions.Append(ctx, session, models.RoleAssistant, res.Answer, res.Citations)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		Answer:    res.Answer,
		Sources:   res.Citations,
		SessionID: session.ID,
		MessageID: msg.ID,
	}, nil
}
