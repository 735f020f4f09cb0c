// Package pgvector stores corpus collections as rows of a shared Postgres
// table, one logical collection per name.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/legalmind/internal/core/vectorindex"
)

var _ vectorindex.Backend = (*Backend)(nil)

// Backend expects the vector_collections and vector_records tables created
// by the database bootstrap script.
type Backend struct {
	db *sql.DB
}

func New(db *sql.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) EnsureCollection(ctx context.Context, name string, dim int) error {
	const insert = `
		INSERT INTO vector_collections (name, dim)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := b.db.ExecContext(ctx, insert, name, dim); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}

	var existing int
	if err := b.db.QueryRowContext(ctx, `SELECT dim FROM vector_collections WHERE name = $1`, name).Scan(&existing); err != nil {
		return fmt.Errorf("read collection %s: %w", name, err)
	}
	if existing != dim {
		return fmt.Errorf("collection %s has dimension %d, got %d", name, existing, dim)
	}
	return nil
}

// Upsert writes all records in a single transaction.
func (b *Backend) Upsert(ctx context.Context, name string, records []vectorindex.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := b.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO vector_records
			(collection, id, corpus_id, ordinal, page, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (collection, id) DO UPDATE SET
			corpus_id = EXCLUDED.corpus_id,
			ordinal   = EXCLUDED.ordinal,
			page      = EXCLUDED.page,
			content   = EXCLUDED.content,
			embedding = EXCLUDED.embedding
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			name, r.ID, r.CorpusID, r.Ordinal, r.Page, r.Content, pgvector.NewVector(r.Vector),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (b *Backend) Search(ctx context.Context, name, corpusID string, vector []float32, k int, withVectors bool) ([]vectorindex.Hit, error) {
	const q = `
		SELECT id, corpus_id, ordinal, page, content, embedding, 1 - (embedding <=> $3) AS score
		FROM vector_records
		WHERE collection = $1 AND corpus_id = $2
		ORDER BY embedding <=> $3
		LIMIT $4
	`
	rows, err := b.db.QueryContext(ctx, q, name, corpusID, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", name, err)
	}
	defer rows.Close()

	var out []vectorindex.Hit
	for rows.Next() {
		var (
			h     vectorindex.Hit
			emb   pgvector.Vector
			score float64
		)
		if err := rows.Scan(&h.ID, &h.CorpusID, &h.Ordinal, &h.Page, &h.Content, &emb, &score); err != nil {
			return nil, err
		}
		h.Score = float32(score)
		if withVectors {
			h.Vector = emb.Slice()
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (b *Backend) DropCollection(ctx context.Context, name string) error {
	tx, err := b.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vector_records WHERE collection = $1`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("drop records of %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vector_collections WHERE name = $1`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("drop collection %s: %w", name, err)
	}
	return tx.Commit()
}
