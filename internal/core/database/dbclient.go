package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/markdave123-py/legalmind/internal/config"
	"github.com/markdave123-py/legalmind/internal/core"
)

// MemoryURL selects the in-process store instead of Postgres.
const MemoryURL = "memory://"

// Open returns the persistence client selected by DATABASE_URL. The *sql.DB
// is nil for the in-memory store.
func Open(ctx context.Context, cfg *config.Config) (core.DbClient, *sql.DB, error) {
	if strings.HasPrefix(cfg.DatabaseURL, MemoryURL) {
		return NewMemoryClient(), nil, nil
	}
	client, err := NewDatabaseClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, client.DB(), nil
}
