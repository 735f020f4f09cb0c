package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/legalmind/internal/config"
	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/models"
)

var _ core.DbClient = (*DatabaseClient)(nil)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn := cfg.DatabaseURL
	if cfg.SslCertPath != "" {
		if _, err := os.Stat(cfg.SslCertPath); err != nil {
			return nil, fmt.Errorf("ssl cert not accessible at %q: %w", cfg.SslCertPath, err)
		}
		// Append SSL params to the provided DATABASE_URL safely.
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.SslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// DB exposes the pool so the pgvector backend can share it.
func (c *DatabaseClient) DB() *sql.DB { return c.db }

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func persistErr(op string, err error) error {
	return core.Wrap(core.ErrPersistence, op, err)
}

// Corpora

const corpusColumns = `
	id, kind, COALESCE(slug, ''), COALESCE(owner_id, ''), title, title_alt, description,
	file_name, storage_url, content_type, size_bytes, language, status, error,
	page_count, chunk_count, created_at, updated_at, processed_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCorpus(row rowScanner) (*models.Corpus, error) {
	var c models.Corpus
	err := row.Scan(
		&c.ID, &c.Kind, &c.Slug, &c.OwnerID, &c.Title, &c.TitleAlt, &c.Description,
		&c.FileName, &c.StorageURL, &c.ContentType, &c.SizeBytes, &c.Language, &c.Status, &c.Error,
		&c.PageCount, &c.ChunkCount, &c.CreatedAt, &c.UpdatedAt, &c.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *DatabaseClient) CreateCorpus(ctx context.Context, corpus *models.Corpus) error {
	if corpus == nil {
		return errors.New("nil corpus")
	}
	const q = `
		INSERT INTO corpora
			(id, kind, slug, owner_id, title, title_alt, description, file_name, storage_url,
			 content_type, size_bytes, language, status, error, created_at, updated_at)
		VALUES
			($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9,
			 $10, $11, $12, $13, $14, now(), now())
		RETURNING created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, q,
		corpus.ID, corpus.Kind, corpus.Slug, corpus.OwnerID, corpus.Title, corpus.TitleAlt, corpus.Description,
		corpus.FileName, corpus.StorageURL, corpus.ContentType, corpus.SizeBytes, corpus.Language,
		corpus.Status, corpus.Error,
	).Scan(&corpus.CreatedAt, &corpus.UpdatedAt)
	return persistErr("create corpus", err)
}

func (c *DatabaseClient) GetCorpusByID(ctx context.Context, id string) (*models.Corpus, error) {
	q := `SELECT ` + corpusColumns + ` FROM corpora WHERE id = $1`
	corpus, err := scanCorpus(c.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("get corpus", err)
	}
	return corpus, nil
}

func (c *DatabaseClient) GetCorpusBySlug(ctx context.Context, slug string) (*models.Corpus, error) {
	q := `SELECT ` + corpusColumns + ` FROM corpora WHERE slug = $1`
	corpus, err := scanCorpus(c.db.QueryRowContext(ctx, q, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("get corpus by slug", err)
	}
	return corpus, nil
}

func (c *DatabaseClient) ListCorpora(ctx context.Context, f core.CorpusFilter) ([]models.Corpus, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.OwnerID != "" {
		if f.IncludeShared {
			where = append(where, "(owner_id = "+arg(f.OwnerID)+" OR owner_id IS NULL)")
		} else {
			where = append(where, "owner_id = "+arg(f.OwnerID))
		}
	}
	if f.Kind != "" {
		where = append(where, "kind = "+arg(f.Kind))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, "(title ILIKE "+p+" OR title_alt ILIKE "+p+")")
	}

	q := `SELECT ` + corpusColumns + ` FROM corpora`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id ASC`

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, persistErr("list corpora", err)
	}
	defer rows.Close()

	var out []models.Corpus
	for rows.Next() {
		corpus, err := scanCorpus(rows)
		if err != nil {
			return nil, persistErr("scan corpus", err)
		}
		out = append(out, *corpus)
	}
	return out, persistErr("list corpora", rows.Err())
}

func (c *DatabaseClient) UpdateCorpusMetadata(ctx context.Context, corpus *models.Corpus) error {
	const q = `
		UPDATE corpora
		SET title = $2, title_alt = $3, description = $4, language = $5,
		    file_name = COALESCE(NULLIF($6, ''), file_name),
		    storage_url = COALESCE(NULLIF($7, ''), storage_url),
		    content_type = COALESCE(NULLIF($8, ''), content_type),
		    size_bytes = CASE WHEN $7 = '' THEN size_bytes ELSE $9 END,
		    updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, corpus.ID, corpus.Title, corpus.TitleAlt, corpus.Description, corpus.Language,
		corpus.FileName, corpus.StorageURL, corpus.ContentType, corpus.SizeBytes)
	return c.expectRow(res, err, "update corpus metadata", corpus.ID)
}

func (c *DatabaseClient) UpdateCorpusStatus(ctx context.Context, id, status, errMsg string) error {
	const q = `
		UPDATE corpora
		SET status = $2, error = $3, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status, errMsg)
	return c.expectRow(res, err, "update corpus status", id)
}

func (c *DatabaseClient) MarkCorpusReady(ctx context.Context, id string, pageCount, chunkCount int) error {
	const q = `
		UPDATE corpora
		SET status = 'ready', error = '', page_count = $2, chunk_count = $3,
		    processed_at = now(), updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, pageCount, chunkCount)
	return c.expectRow(res, err, "mark corpus ready", id)
}

// DeleteCorpus relies on ON DELETE CASCADE for chunks, sessions and messages.
func (c *DatabaseClient) DeleteCorpus(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM corpora WHERE id = $1`, id)
	return persistErr("delete corpus", err)
}

func (c *DatabaseClient) expectRow(res sql.Result, err error, op, id string) error {
	if err != nil {
		return persistErr(op, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("corpus %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// Chunks

// InsertChunks inserts chunks in a single transaction.
func (c *DatabaseClient) InsertChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return persistErr("begin tx", err)
	}

	const q = `
		INSERT INTO chunks (id, corpus_id, ordinal, page_number, content, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return persistErr("prepare chunk insert", err)
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		if _, err := stmt.ExecContext(ctx, ch.ID, ch.CorpusID, ch.Ordinal, ch.PageNumber, ch.Content); err != nil {
			_ = tx.Rollback()
			return persistErr("insert chunk", err)
		}
	}
	return persistErr("commit chunks", tx.Commit())
}

func (c *DatabaseClient) GetChunksByCorpus(ctx context.Context, corpusID string) ([]models.Chunk, error) {
	const q = `
		SELECT id, corpus_id, ordinal, page_number, content, created_at
		FROM chunks
		WHERE corpus_id = $1
		ORDER BY ordinal ASC
	`
	rows, err := c.db.QueryContext(ctx, q, corpusID)
	if err != nil {
		return nil, persistErr("get chunks", err)
	}
	defer rows.Close()

	var out []models.Chunk
	for rows.Next() {
		var ch models.Chunk
		if err := rows.Scan(&ch.ID, &ch.CorpusID, &ch.Ordinal, &ch.PageNumber, &ch.Content, &ch.CreatedAt); err != nil {
			return nil, persistErr("scan chunk", err)
		}
		out = append(out, ch)
	}
	return out, persistErr("get chunks", rows.Err())
}

func (c *DatabaseClient) DeleteChunksByCorpus(ctx context.Context, corpusID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM chunks WHERE corpus_id = $1`, corpusID)
	return persistErr("delete chunks", err)
}

// Chat sessions

func (c *DatabaseClient) CreateChatSession(ctx context.Context, s *models.ChatSession) error {
	if s == nil {
		return errors.New("nil session")
	}
	const q = `
		INSERT INTO chat_sessions (id, corpus_id, caller_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, q, s.ID, s.CorpusID, s.CallerID, s.Title).Scan(&s.CreatedAt, &s.UpdatedAt)
	return persistErr("create chat session", err)
}

func (c *DatabaseClient) GetChatSession(ctx context.Context, id string) (*models.ChatSession, error) {
	const q = `
		SELECT id, corpus_id, caller_id, title, created_at, updated_at
		FROM chat_sessions WHERE id = $1
	`
	var s models.ChatSession
	err := c.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.CorpusID, &s.CallerID, &s.Title, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("get chat session", err)
	}
	return &s, nil
}

func (c *DatabaseClient) ListChatSessions(ctx context.Context, callerID string) ([]models.ChatSession, error) {
	const q = `
		SELECT id, corpus_id, caller_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE caller_id = $1
		ORDER BY updated_at DESC, id ASC
	`
	rows, err := c.db.QueryContext(ctx, q, callerID)
	if err != nil {
		return nil, persistErr("list chat sessions", err)
	}
	defer rows.Close()

	var out []models.ChatSession
	for rows.Next() {
		var s models.ChatSession
		if err := rows.Scan(&s.ID, &s.CorpusID, &s.CallerID, &s.Title, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, persistErr("scan chat session", err)
		}
		out = append(out, s)
	}
	return out, persistErr("list chat sessions", rows.Err())
}

func (c *DatabaseClient) TouchChatSession(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return persistErr("touch chat session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (c *DatabaseClient) DeleteChatSession(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	return persistErr("delete chat session", err)
}

func (c *DatabaseClient) AddChatMessage(ctx context.Context, m *models.ChatMessage) error {
	if m == nil {
		return errors.New("nil message")
	}
	sources, err := json.Marshal(m.Sources)
	if err != nil {
		return persistErr("encode sources", err)
	}
	const q = `
		INSERT INTO chat_messages (id, session_id, role, content, sources, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, now())
		RETURNING created_at
	`
	err = c.db.QueryRowContext(ctx, q, m.ID, m.SessionID, m.Role, m.Content, string(sources)).Scan(&m.CreatedAt)
	return persistErr("add chat message", err)
}

func (c *DatabaseClient) GetMessagesBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	const q = `
		SELECT id, session_id, role, content, sources, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := c.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, persistErr("get messages", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var (
			m       models.ChatMessage
			sources []byte
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &sources, &m.CreatedAt); err != nil {
			return nil, persistErr("scan message", err)
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &m.Sources); err != nil {
				return nil, persistErr("decode sources", err)
			}
		}
		out = append(out, m)
	}
	return out, persistErr("get messages", rows.Err())
}
