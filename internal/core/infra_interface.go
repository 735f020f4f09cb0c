package core

import (
	"context"

	"github.com/markdave123-py/legalmind/internal/models"
)

// CorpusFilter narrows ListCorpora. Empty fields match everything.
type CorpusFilter struct {
	OwnerID       string
	IncludeShared bool // also return corpora without an owner
	Kind          string
	Status        string
	Search        string // case-insensitive title match
}

// DbClient defines all persistence operations the services need.
// Getters return (nil, nil) when the row does not exist.
type DbClient interface {
	CreateCorpus(ctx context.Context, c *models.Corpus) error
	GetCorpusByID(ctx context.Context, id string) (*models.Corpus, error)
	GetCorpusBySlug(ctx context.Context, slug string) (*models.Corpus, error)
	ListCorpora(ctx context.Context, f CorpusFilter) ([]models.Corpus, error)
	UpdateCorpusMetadata(ctx context.Context, c *models.Corpus) error
	UpdateCorpusStatus(ctx context.Context, id, status, errMsg string) error
	MarkCorpusReady(ctx context.Context, id string, pageCount, chunkCount int) error
	DeleteCorpus(ctx context.Context, id string) error

	InsertChunks(ctx context.Context, chunks []models.Chunk) error
	GetChunksByCorpus(ctx context.Context, corpusID string) ([]models.Chunk, error)
	DeleteChunksByCorpus(ctx context.Context, corpusID string) error

	CreateChatSession(ctx context.Context, s *models.ChatSession) error
	GetChatSession(ctx context.Context, id string) (*models.ChatSession, error)
	ListChatSessions(ctx context.Context, callerID string) ([]models.ChatSession, error)
	TouchChatSession(ctx context.Context, id string) error
	DeleteChatSession(ctx context.Context, id string) error
	AddChatMessage(ctx context.Context, m *models.ChatMessage) error
	GetMessagesBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
