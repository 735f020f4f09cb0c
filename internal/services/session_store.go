package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/models"
)

const sessionTitleRunes = 50

// SessionDetail is a session with its full message history.
type SessionDetail struct {
	Session  models.ChatSession   `json:"session"`
	Messages []models.ChatMessage `json:"messages"`
}

// SessionStore keeps conversations per caller and corpus.
type SessionStore struct {
	db core.DbClient
}

func NewSessionStore(db core.DbClient) *SessionStore {
	return &SessionStore{db: db}
}

// GetOrCreate resumes sessionID when it belongs to the caller and corpus, or
// opens a new session titled after the first question when sessionID is empty.
func (s *SessionStore) GetOrCreate(ctx context.Context, sessionID, callerID, corpusID, question string) (*models.ChatSession, error) {
	if sessionID != "" {
		session, err := s.owned(ctx, callerID, sessionID)
		if err != nil {
			return nil, err
		}
		if session.CorpusID != corpusID {
			return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, sessionID)
		}
		return session, nil
	}

	session := &models.ChatSession{
		ID:       uuid.NewString(),
		CorpusID: corpusID,
		CallerID: callerID,
		Title:    SessionTitle(question),
	}
	if err := s.db.CreateChatSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Append persists a message and bumps the session's updated_at.
func (s *SessionStore) Append(ctx context.Context, session *models.ChatSession, role, content string, sources []models.Citation) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      role,
		Content:   content,
		Sources:   sources,
	}
	if err := s.db.AddChatMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.db.TouchChatSession(ctx, session.ID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *SessionStore) List(ctx context.Context, callerID string) ([]models.ChatSession, error) {
	return s.db.ListChatSessions(ctx, callerID)
}

func (s *SessionStore) Get(ctx context.Context, callerID, sessionID string) (*SessionDetail, error) {
	session, err := s.owned(ctx, callerID, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := s.db.GetMessagesBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: *session, Messages: messages}, nil
}

func (s *SessionStore) Delete(ctx context.Context, callerID, sessionID string) error {
	if _, err := s.owned(ctx, callerID, sessionID); err != nil {
		return err
	}
	return s.db.DeleteChatSession(ctx, sessionID)
}

// owned hides sessions of other callers behind ErrSessionNotFound.
func (s *SessionStore) owned(ctx context.Context, callerID, sessionID string) (*models.ChatSession, error) {
	session, err := s.db.GetChatSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.CallerID != callerID {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, sessionID)
	}
	return session, nil
}

// SessionTitle is the first question cut to 50 runes.
func SessionTitle(question string) string {
	q := strings.Join(strings.Fields(question), " ")
	r := []rune(q)
	if len(r) <= sessionTitleRunes {
		return q
	}
	return string(r[:sessionTitleRunes]) + "..."
}
