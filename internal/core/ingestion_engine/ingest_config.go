package ingestion_engine

import (
	"context"
	"time"

	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/core/segmenter"
	"github.com/markdave123-py/legalmind/internal/core/vectorindex"
)

// IngestConfig tunes the pipeline.
//
// ChunkSize:    maximum runes per chunk.
// ChunkOverlap: runes of trailing context repeated at the start of the next chunk.
// Timeout:      upper bound for a single corpus run; zero means 10 minutes.
type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	Timeout      time.Duration
}

// Job asks the pipeline to (re)build one corpus.
type Job struct {
	CorpusID string `json:"corpus_id"`
	Force    bool   `json:"force"`
}

// Queue carries ingestion jobs to workers.
type Queue interface {
	Publish(ctx context.Context, job Job) error
	// Consume delivers jobs to handler until ctx is done. A handler error
	// marks the delivery as failed; it is never redelivered.
	Consume(ctx context.Context, handler func(context.Context, Job) error) error
}

// Guard prevents two workers from ingesting the same corpus at once.
type Guard interface {
	Acquire(ctx context.Context, corpusID string) (bool, error)
	Release(ctx context.Context, corpusID string) error
}

// DocumentIngestor orchestrates background ingestion:
//
// db:        corpus state and chunk rows.
// loader:    object storage read + text extraction.
// index:     per-corpus vector collections.
// segmenter: chunking of normalized pages.
// queue:     job transport (in-process channel or a broker).
// guard:     optional per-corpus lock.
type DocumentIngestor struct {
	db        core.DbClient
	loader    *Loader
	index     *vectorindex.Manager
	segmenter *segmenter.Segmenter
	queue     Queue
	guard     Guard
	cfg       IngestConfig
}
