package vectorindex

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/models"
)

// Handle addresses the collection of a single corpus.
type Handle struct {
	Name     string
	CorpusID string
}

// Manager owns the corpus -> collection mapping and all embedding calls.
type Manager struct {
	backend     Backend
	embedder    core.EmbeddingProvider
	batchSize   int
	concurrency int
}

// Option configures a Manager.
type Option func(*Manager)

// WithBatchSize sets how many chunk texts go into one embedding request.
func WithBatchSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

// WithConcurrency bounds the number of embedding requests in flight.
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

func NewManager(backend Backend, embedder core.EmbeddingProvider, opts ...Option) *Manager {
	m := &Manager{backend: backend, embedder: embedder, batchSize: 64, concurrency: 4}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CollectionName derives the collection name from the corpus identity.
// Kinds get distinct prefixes, and ids/slugs are unique within a kind, so the
// mapping is injective.
func CollectionName(c *models.Corpus) string {
	if c.IsLaw() {
		return "law_" + c.Slug
	}
	return "document_" + c.ID
}

// Collection returns the handle for a corpus. The collection itself is
// created on the first Add.
func (m *Manager) Collection(c *models.Corpus) Handle {
	return Handle{Name: CollectionName(c), CorpusID: c.ID}
}

// Add embeds the chunks and writes them to the corpus collection. Re-ingestion
// must Purge first; Add does not remove stale records.
func (m *Manager) Add(ctx context.Context, h Handle, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	vectors, err := m.embedAll(ctx, chunks)
	if err != nil {
		return err
	}

	if err := m.backend.EnsureCollection(ctx, h.Name, len(vectors[0])); err != nil {
		return core.Wrap(core.ErrVectorIndex, "ensure collection "+h.Name, err)
	}

	records := make([]Record, len(chunks))
	for i, ch := range chunks {
		records[i] = Record{
			ID:       ch.ID,
			CorpusID: h.CorpusID,
			Ordinal:  ch.Ordinal,
			Page:     ch.PageNumber,
			Content:  ch.Content,
			Vector:   vectors[i],
		}
	}
	if err := m.backend.Upsert(ctx, h.Name, records); err != nil {
		return core.Wrap(core.ErrVectorIndex, "upsert into "+h.Name, err)
	}
	log.Printf("VectorIndex: stored %d records in %s", len(records), h.Name)
	return nil
}

// embedAll embeds chunk texts in batches with bounded concurrency, keeping
// the input order.
func (m *Manager) embedAll(ctx context.Context, chunks []models.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for start := 0; start < len(chunks); start += m.batchSize {
		end := min(start+m.batchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, ch := range chunks[start:end] {
				texts = append(texts, ch.Content)
			}
			out, err := m.embedder.EmbedTexts(gctx, texts)
			if err != nil {
				return core.Wrap(core.ErrVectorIndex, "embed chunks", err)
			}
			if len(out) != len(texts) {
				return fmt.Errorf("%w: embedder returned %d vectors for %d texts", core.ErrVectorIndex, len(out), len(texts))
			}
			copy(vectors[start:end], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, v := range vectors {
		if len(v) == 0 || len(v) != len(vectors[0]) {
			return nil, fmt.Errorf("%w: inconsistent embedding for chunk %d", core.ErrVectorIndex, i)
		}
	}
	return vectors, nil
}

// SearchSimilarity returns the k records most similar to the query.
func (m *Manager) SearchSimilarity(ctx context.Context, h Handle, query string, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	qv, err := m.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := m.backend.Search(ctx, h.Name, h.CorpusID, qv, k, false)
	if err != nil {
		return nil, core.Wrap(core.ErrVectorIndex, "search "+h.Name, err)
	}
	return ownHits(h, hits), nil
}

// SearchDiverse over-fetches fetchK candidates and keeps k of them with
// maximal marginal relevance.
func (m *Manager) SearchDiverse(ctx context.Context, h Handle, query string, k, fetchK int, lambda float32) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	if fetchK < k {
		fetchK = k
	}
	qv, err := m.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	cands, err := m.backend.Search(ctx, h.Name, h.CorpusID, qv, fetchK, true)
	if err != nil {
		return nil, core.Wrap(core.ErrVectorIndex, "search "+h.Name, err)
	}
	return maximalMarginalRelevance(qv, ownHits(h, cands), k, lambda), nil
}

// Purge drops the corpus collection. A missing collection is not an error.
func (m *Manager) Purge(ctx context.Context, h Handle) error {
	if err := m.backend.DropCollection(ctx, h.Name); err != nil {
		return core.Wrap(core.ErrVectorIndex, "drop "+h.Name, err)
	}
	return nil
}

func (m *Manager) embedQuery(ctx context.Context, query string) ([]float32, error) {
	out, err := m.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, core.Wrap(core.ErrVectorIndex, "embed query", err)
	}
	if len(out) != 1 || len(out[0]) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", core.ErrVectorIndex)
	}
	return out[0], nil
}

// ownHits drops anything not tagged with the handle's corpus.
func ownHits(h Handle, hits []Hit) []Hit {
	out := hits[:0]
	for _, hit := range hits {
		if hit.CorpusID == h.CorpusID {
			out = append(out, hit)
		}
	}
	return out
}
