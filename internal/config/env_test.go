package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "memory://")
	t.Setenv("CHUNK_SIZE", "")

	cfg := LoadConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "memory://", cfg.DatabaseURL)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 50, cfg.MaxUploadMB)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 6334, cfg.QdrantPort)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/legalmind")
	t.Setenv("VECTOR_BACKEND", "qdrant")
	t.Setenv("INGEST_WORKERS", "4")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg := LoadConfig()
	assert.Equal(t, "qdrant", cfg.VectorBackend)
	assert.Equal(t, 4, cfg.IngestWorkers)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "twelve")
	assert.Equal(t, 12, getEnvInt("SOME_INT", 12))
}
