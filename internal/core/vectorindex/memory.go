package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend is a brute-force, in-process backend.
type MemoryBackend struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	dim     int
	records map[string]Record
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{collections: make(map[string]*memCollection)}
}

func (b *MemoryBackend) EnsureCollection(_ context.Context, name string, dim int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.collections[name]; ok {
		if c.dim != dim {
			return fmt.Errorf("collection %s has dimension %d, got %d", name, c.dim, dim)
		}
		return nil
	}
	b.collections[name] = &memCollection{dim: dim, records: make(map[string]Record)}
	return nil
}

func (b *MemoryBackend) Upsert(_ context.Context, name string, records []Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.collections[name]
	if !ok {
		return fmt.Errorf("collection %s does not exist", name)
	}
	for _, r := range records {
		if len(r.Vector) != c.dim {
			return fmt.Errorf("record %s has dimension %d, want %d", r.ID, len(r.Vector), c.dim)
		}
		r.Vector = append([]float32(nil), r.Vector...)
		c.records[r.ID] = r
	}
	return nil
}

func (b *MemoryBackend) Search(_ context.Context, name, corpusID string, vector []float32, k int, withVectors bool) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.collections[name]
	if !ok || k <= 0 {
		return nil, nil
	}

	hits := make([]Hit, 0, len(c.records))
	for _, r := range c.records {
		if r.CorpusID != corpusID {
			continue
		}
		h := Hit{Record: r, Score: cosine(vector, r.Vector)}
		if withVectors {
			h.Vector = append([]float32(nil), r.Vector...)
		} else {
			h.Vector = nil
		}
		hits = append(hits, h)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (b *MemoryBackend) DropCollection(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.collections, name)
	return nil
}

// Count reports the number of records in a collection, or -1 when it does not exist.
func (b *MemoryBackend) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.collections[name]
	if !ok {
		return -1
	}
	return len(c.records)
}
