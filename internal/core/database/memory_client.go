package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/models"
)

var _ core.DbClient = (*MemoryClient)(nil)

// MemoryClient keeps every table in process memory. It mirrors the Postgres
// client's semantics, including cascading deletes.
type MemoryClient struct {
	mu       sync.RWMutex
	corpora  map[string]models.Corpus
	chunks   map[string][]models.Chunk
	sessions map[string]models.ChatSession
	messages map[string][]models.ChatMessage
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		corpora:  make(map[string]models.Corpus),
		chunks:   make(map[string][]models.Chunk),
		sessions: make(map[string]models.ChatSession),
		messages: make(map[string][]models.ChatMessage),
	}
}

func (c *MemoryClient) Close() error { return nil }

func (c *MemoryClient) CreateCorpus(_ context.Context, corpus *models.Corpus) error {
	if corpus == nil {
		return errors.New("nil corpus")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.corpora[corpus.ID]; ok {
		return fmt.Errorf("%w: corpus %s already exists", core.ErrPersistence, corpus.ID)
	}
	if corpus.Slug != "" {
		for _, existing := range c.corpora {
			if existing.Slug == corpus.Slug {
				return fmt.Errorf("%w: slug %q already exists", core.ErrPersistence, corpus.Slug)
			}
		}
	}
	now := time.Now().UTC()
	if corpus.CreatedAt.IsZero() {
		corpus.CreatedAt = now
	}
	if corpus.UpdatedAt.IsZero() {
		corpus.UpdatedAt = now
	}
	c.corpora[corpus.ID] = *corpus
	return nil
}

func (c *MemoryClient) GetCorpusByID(_ context.Context, id string) (*models.Corpus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	corpus, ok := c.corpora[id]
	if !ok {
		return nil, nil
	}
	return &corpus, nil
}

func (c *MemoryClient) GetCorpusBySlug(_ context.Context, slug string) (*models.Corpus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, corpus := range c.corpora {
		if corpus.Slug == slug {
			return &corpus, nil
		}
	}
	return nil, nil
}

func (c *MemoryClient) ListCorpora(_ context.Context, f core.CorpusFilter) ([]models.Corpus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var out []models.Corpus
	for _, corpus := range c.corpora {
		if f.OwnerID != "" && corpus.OwnerID != f.OwnerID && !(f.IncludeShared && corpus.OwnerID == "") {
			continue
		}
		if f.Kind != "" && corpus.Kind != f.Kind {
			continue
		}
		if f.Status != "" && corpus.Status != f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(corpus.Title), search) &&
			!strings.Contains(strings.ToLower(corpus.TitleAlt), search) {
			continue
		}
		out = append(out, corpus)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *MemoryClient) UpdateCorpusMetadata(_ context.Context, corpus *models.Corpus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.corpora[corpus.ID]
	if !ok {
		return fmt.Errorf("corpus %s: %w", corpus.ID, core.ErrNotFound)
	}
	existing.Title = corpus.Title
	existing.TitleAlt = corpus.TitleAlt
	existing.Description = corpus.Description
	existing.Language = corpus.Language
	if corpus.StorageURL != "" {
		existing.FileName = corpus.FileName
		existing.StorageURL = corpus.StorageURL
		existing.ContentType = corpus.ContentType
		existing.SizeBytes = corpus.SizeBytes
	}
	existing.UpdatedAt = time.Now().UTC()
	c.corpora[corpus.ID] = existing
	return nil
}

func (c *MemoryClient) UpdateCorpusStatus(_ context.Context, id, status, errMsg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.corpora[id]
	if !ok {
		return fmt.Errorf("corpus %s: %w", id, core.ErrNotFound)
	}
	existing.Status = status
	existing.Error = errMsg
	existing.UpdatedAt = time.Now().UTC()
	c.corpora[id] = existing
	return nil
}

func (c *MemoryClient) MarkCorpusReady(_ context.Context, id string, pageCount, chunkCount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.corpora[id]
	if !ok {
		return fmt.Errorf("corpus %s: %w", id, core.ErrNotFound)
	}
	now := time.Now().UTC()
	existing.Status = models.StatusReady
	existing.Error = ""
	existing.PageCount = pageCount
	existing.ChunkCount = chunkCount
	existing.UpdatedAt = now
	existing.ProcessedAt = &now
	c.corpora[id] = existing
	return nil
}

// DeleteCorpus removes the corpus with its chunks, sessions and messages.
func (c *MemoryClient) DeleteCorpus(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.corpora, id)
	delete(c.chunks, id)
	for sid, s := range c.sessions {
		if s.CorpusID == id {
			delete(c.sessions, sid)
			delete(c.messages, sid)
		}
	}
	return nil
}

func (c *MemoryClient) InsertChunks(_ context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range chunks {
		if _, ok := c.corpora[ch.CorpusID]; !ok {
			return fmt.Errorf("%w: chunk %s references unknown corpus %s", core.ErrPersistence, ch.ID, ch.CorpusID)
		}
	}
	for _, ch := range chunks {
		c.chunks[ch.CorpusID] = append(c.chunks[ch.CorpusID], ch)
	}
	return nil
}

func (c *MemoryClient) GetChunksByCorpus(_ context.Context, corpusID string) ([]models.Chunk, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := append([]models.Chunk(nil), c.chunks[corpusID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (c *MemoryClient) DeleteChunksByCorpus(_ context.Context, corpusID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.chunks, corpusID)
	return nil
}

func (c *MemoryClient) CreateChatSession(_ context.Context, s *models.ChatSession) error {
	if s == nil {
		return errors.New("nil session")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.corpora[s.CorpusID]; !ok {
		return fmt.Errorf("%w: session references unknown corpus %s", core.ErrPersistence, s.CorpusID)
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	c.sessions[s.ID] = *s
	return nil
}

func (c *MemoryClient) GetChatSession(_ context.Context, id string) (*models.ChatSession, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *MemoryClient) ListChatSessions(_ context.Context, callerID string) ([]models.ChatSession, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.ChatSession
	for _, s := range c.sessions {
		if s.CallerID == callerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *MemoryClient) TouchChatSession(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, core.ErrNotFound)
	}
	s.UpdatedAt = time.Now().UTC()
	c.sessions[id] = s
	return nil
}

func (c *MemoryClient) DeleteChatSession(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	delete(c.messages, id)
	return nil
}

func (c *MemoryClient) AddChatMessage(_ context.Context, m *models.ChatMessage) error {
	if m == nil {
		return errors.New("nil message")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[m.SessionID]; !ok {
		return fmt.Errorf("%w: message references unknown session %s", core.ErrPersistence, m.SessionID)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	msg := *m
	msg.Sources = append([]models.Citation(nil), m.Sources...)
	c.messages[m.SessionID] = append(c.messages[m.SessionID], msg)
	return nil
}

// GetMessagesBySession returns messages in insertion order.
func (c *MemoryClient) GetMessagesBySession(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.ChatMessage(nil), c.messages[sessionID]...), nil
}
