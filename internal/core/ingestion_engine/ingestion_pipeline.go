package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/core/segmenter"
	"github.com/markdave123-py/legalmind/internal/core/vectorindex"
	"github.com/markdave123-py/legalmind/internal/models"
)

const defaultIngestTimeout = 10 * time.Minute

var _ Ingestor = (*DocumentIngestor)(nil)

// NewDocumentIngestor constructs the ingestor. guard may be nil.
func NewDocumentIngestor(db core.DbClient, loader *Loader, index *vectorindex.Manager, queue Queue, guard Guard, cfg IngestConfig) *DocumentIngestor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultIngestTimeout
	}
	return &DocumentIngestor{
		db:        db,
		loader:    loader,
		index:     index,
		segmenter: segmenter.New(segmenter.WithChunkSize(cfg.ChunkSize), segmenter.WithOverlap(cfg.ChunkOverlap)),
		queue:     queue,
		guard:     guard,
		cfg:       cfg,
	}
}

// Start runs numWorkers consumers on the job queue until ctx is done.
func (i *DocumentIngestor) Start(ctx context.Context, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			err := i.queue.Consume(ctx, func(ctx context.Context, job Job) error {
				log.Printf("DocumentIngestor: Processing corpus %s by worker with ID %d", job.CorpusID, w)
				if err := i.ProcessOne(ctx, job); err != nil {
					log.Printf("DocumentIngestor: Error processing corpus %s: %v", job.CorpusID, err)
					return err
				}
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("DocumentIngestor: worker %d stopped: %v", w, err)
				return
			}
			log.Println("DocumentIngestor: Worker shutting down.")
		}(w)
	}
}

// Enqueue schedules a corpus for ingestion.
func (i *DocumentIngestor) Enqueue(ctx context.Context, job Job) error {
	if err := i.queue.Publish(ctx, job); err != nil {
		return fmt.Errorf("enqueue corpus %s: %w", job.CorpusID, err)
	}
	return nil
}

// ProcessOne runs the ingestion state machine for a single corpus:
// processing -> load -> segment -> replace chunks and vectors -> ready.
// Any failure leaves the corpus failed with no chunk rows and no collection.
func (i *DocumentIngestor) ProcessOne(ctx context.Context, job Job) error {
	if i.guard != nil {
		ok, err := i.guard.Acquire(ctx, job.CorpusID)
		if err != nil {
			return fmt.Errorf("acquire ingest lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", core.ErrAlreadyProcessing, job.CorpusID)
		}
		defer func() {
			if err := i.guard.Release(context.WithoutCancel(ctx), job.CorpusID); err != nil {
				log.Printf("DocumentIngestor: release lock for %s: %v", job.CorpusID, err)
			}
		}()
	}

	corpus, err := i.db.GetCorpusByID(ctx, job.CorpusID)
	if err != nil {
		return err
	}
	if corpus == nil {
		return fmt.Errorf("corpus %s: %w", job.CorpusID, core.ErrNotFound)
	}
	if corpus.IsReady() && !job.Force {
		log.Printf("DocumentIngestor: corpus %s already ready, skipping", corpus.ID)
		return nil
	}

	if err := i.db.UpdateCorpusStatus(ctx, corpus.ID, models.StatusProcessing, ""); err != nil {
		return err
	}

	proctx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
	defer cancel()

	h := i.index.Collection(corpus)
	pageCount, chunkCount, err := i.build(proctx, corpus, h)
	if err != nil {
		i.fail(context.WithoutCancel(ctx), corpus, h, err)
		return err
	}

	if err := i.db.MarkCorpusReady(ctx, corpus.ID, pageCount, chunkCount); err != nil {
		i.fail(context.WithoutCancel(ctx), corpus, h, err)
		return err
	}
	log.Printf("DocumentIngestor: corpus %s ready (%d pages, %d chunks)", corpus.ID, pageCount, chunkCount)
	return nil
}

func (i *DocumentIngestor) build(ctx context.Context, corpus *models.Corpus, h vectorindex.Handle) (int, int, error) {
	pages, err := i.loader.Load(ctx, corpus)
	if err != nil {
		return 0, 0, err
	}

	chunks := i.buildChunks(corpus, pages)
	if len(chunks) == 0 {
		return 0, 0, fmt.Errorf("%w: document produced no text chunks", core.ErrLoad)
	}

	// Stale rows and vectors from an earlier run go first so a re-ingest
	// never mixes generations.
	if err := i.db.DeleteChunksByCorpus(ctx, corpus.ID); err != nil {
		return 0, 0, err
	}
	if err := i.index.Purge(ctx, h); err != nil {
		return 0, 0, err
	}

	if err := i.db.InsertChunks(ctx, chunks); err != nil {
		return 0, 0, err
	}
	if err := i.index.Add(ctx, h, chunks); err != nil {
		return 0, 0, err
	}
	return len(pages), len(chunks), nil
}

// fail cleans up partial output and records the error on the corpus.
func (i *DocumentIngestor) fail(ctx context.Context, corpus *models.Corpus, h vectorindex.Handle, cause error) {
	if err := i.index.Purge(ctx, h); err != nil {
		log.Printf("DocumentIngestor: purge after failure for %s: %v", corpus.ID, err)
	}
	if err := i.db.DeleteChunksByCorpus(ctx, corpus.ID); err != nil {
		log.Printf("DocumentIngestor: delete chunks after failure for %s: %v", corpus.ID, err)
	}
	if err := i.db.UpdateCorpusStatus(ctx, corpus.ID, models.StatusFailed, cause.Error()); err != nil {
		log.Printf("DocumentIngestor: mark %s failed: %v", corpus.ID, err)
	}
}
