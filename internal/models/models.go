package models

import (
	"time"
)

// Corpus kinds.
const (
	CorpusKindDocument = "document"
	CorpusKindLaw      = "law"
)

// Ingestion statuses. A corpus moves pending -> processing -> ready | failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Corpus is one logical unit of source text: a user-uploaded document or a curated law.
type Corpus struct {
	ID          string     `db:"id" json:"id"`
	Kind        string     `db:"kind" json:"kind"`                   // "document" or "law"
	Slug        string     `db:"slug" json:"slug,omitempty"`         // curated laws only
	OwnerID     string     `db:"owner_id" json:"owner_id,omitempty"` // empty for shared corpora
	Title       string     `db:"title" json:"title"`
	TitleAlt    string     `db:"title_alt" json:"title_alt,omitempty"`
	Description string     `db:"description" json:"description,omitempty"`
	FileName    string     `db:"file_name" json:"file_name"`
	StorageURL  string     `db:"storage_url" json:"storage_url"` // object storage reference
	ContentType string     `db:"content_type" json:"content_type"`
	SizeBytes   int64      `db:"size_bytes" json:"size_bytes"`
	Language    string     `db:"language" json:"language"`
	Status      string     `db:"status" json:"status"` // pending | processing | ready | failed
	Error       string     `db:"error" json:"error,omitempty"`
	PageCount   int        `db:"page_count" json:"page_count"`
	ChunkCount  int        `db:"chunk_count" json:"chunk_count"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// IsLaw reports whether the corpus belongs to the curated legal corpus.
func (c *Corpus) IsLaw() bool { return c.Kind == CorpusKindLaw }

// IsReady reports whether the corpus may be queried.
func (c *Corpus) IsReady() bool { return c.Status == StatusReady }

// Chunk is one bounded text span of a corpus.
type Chunk struct {
	ID         string    `db:"id" json:"id"`
	CorpusID   string    `db:"corpus_id" json:"corpus_id"`
	Ordinal    int       `db:"ordinal" json:"ordinal"`
	PageNumber int       `db:"page_number" json:"page_number"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Citation points an answer back to the chunk it was drawn from.
type Citation struct {
	Content    string `json:"content"`
	Page       int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
}

// ChatSession represents one conversation between a caller and a corpus.
type ChatSession struct {
	ID        string    `db:"id" json:"id"`
	CorpusID  string    `db:"corpus_id" json:"corpus_id"`
	CallerID  string    `db:"caller_id" json:"caller_id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ChatMessage represents an individual chat message (user or assistant).
type ChatMessage struct {
	ID        string     `db:"id" json:"id"`
	SessionID string     `db:"session_id" json:"session_id"`
	Role      string     `db:"role" json:"role"`       // "user" or "assistant"
	Content   string     `db:"content" json:"content"` // message text
	Sources   []Citation `db:"sources" json:"sources,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
