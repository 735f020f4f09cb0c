// Package vectorindex maps corpora to isolated vector collections and runs
// similarity and diversity-aware retrieval over them.
package vectorindex

import (
	"context"
)

// Record is one embedded chunk stored in a collection.
type Record struct {
	ID       string
	CorpusID string
	Ordinal  int
	Page     int
	Content  string
	Vector   []float32
}

// Hit is a search result. Vector is only populated when the backend was asked
// to return vectors.
type Hit struct {
	Record
	Score float32
}

// Backend is a vector storage service addressed by collection name.
// Every implementation filters search results by corpus id in addition to
// the collection name.
type Backend interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, name string, dim int) error
	Upsert(ctx context.Context, name string, records []Record) error
	// Search returns up to k records ranked by cosine similarity. A missing
	// collection yields no hits.
	Search(ctx context.Context, name, corpusID string, vector []float32, k int, withVectors bool) ([]Hit, error)
	// DropCollection removes the collection. A missing collection is not an error.
	DropCollection(ctx context.Context, name string) error
}
