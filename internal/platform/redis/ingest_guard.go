package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	ingestion "github.com/markdave123-py/legalmind/internal/core/ingestion_engine"
)

var _ ingestion.Guard = (*IngestGuard)(nil)

// IngestGuard holds a SETNX lock per corpus. The TTL frees locks left behind
// by a crashed worker.
type IngestGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIngestGuard(client *redis.Client, ttl time.Duration) *IngestGuard {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &IngestGuard{client: client, ttl: ttl}
}

func lockKey(corpusID string) string {
	return "legalmind:ingest:" + corpusID
}

func (g *IngestGuard) Acquire(ctx context.Context, corpusID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, lockKey(corpusID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

func (g *IngestGuard) Release(ctx context.Context, corpusID string) error {
	if err := g.client.Del(ctx, lockKey(corpusID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
