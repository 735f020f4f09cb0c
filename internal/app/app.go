package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/markdave123-py/legalmind/internal/config"
	"github.com/markdave123-py/legalmind/internal/core"
	db "github.com/markdave123-py/legalmind/internal/core/database"
	ingestion "github.com/markdave123-py/legalmind/internal/core/ingestion_engine"
	"github.com/markdave123-py/legalmind/internal/core/llm"
	objectclient "github.com/markdave123-py/legalmind/internal/core/object-client"
	qe "github.com/markdave123-py/legalmind/internal/core/query_engine"
	"github.com/markdave123-py/legalmind/internal/core/vectorindex"
	"github.com/markdave123-py/legalmind/internal/core/vectorindex/pgvector"
	"github.com/markdave123-py/legalmind/internal/core/vectorindex/qdrant"
	"github.com/markdave123-py/legalmind/internal/platform/rabbitmq"
	"github.com/markdave123-py/legalmind/internal/platform/redis"
	"github.com/markdave123-py/legalmind/internal/seed"
	"github.com/markdave123-py/legalmind/internal/services"
)

type App struct {
	cfg *config.Config

	DB       core.DbClient
	Storage  core.ObjectClient
	Index    *vectorindex.Manager
	Ingestor *ingestion.DocumentIngestor
	Corpora  *services.CorpusService
	Sessions *services.SessionStore
	Chat     *services.ChatService
	Analysis *services.AnalysisService
	Seeder   *seed.Seeder
	Server   *Server

	closers []func() error
}

// Providers are the model clients the app runs on.
type Providers struct {
	Embedder core.EmbeddingProvider
	LLM      core.LLMProvider
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{cfg: cfg}
	fail := func(err error) (*App, error) {
		a.Close()
		return nil, err
	}

	dbClient, sqlDB, err := db.Open(appCtx, cfg)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, dbClient.Close)
	log.Println("Database initialized and ready.")

	storage, err := a.openStorage(appCtx)
	if err != nil {
		return fail(err)
	}
	log.Println("Object client initialized and ready.")

	providers, err := a.openProviders(appCtx)
	if err != nil {
		return fail(err)
	}

	backend, err := a.openVectorBackend(sqlDB)
	if err != nil {
		return fail(err)
	}

	queue, err := a.openQueue(appCtx)
	if err != nil {
		return fail(err)
	}
	guard, err := a.openGuard(appCtx)
	if err != nil {
		return fail(err)
	}

	a.wire(dbClient, storage, backend, providers, queue, guard)
	return a, nil
}

// wire builds the services and HTTP server on top of opened infrastructure.
func (a *App) wire(dbClient core.DbClient, storage core.ObjectClient, backend vectorindex.Backend, p Providers, queue ingestion.Queue, guard ingestion.Guard) {
	cfg := a.cfg
	a.DB = dbClient
	a.Storage = storage
	a.Index = vectorindex.NewManager(backend, p.Embedder, vectorindex.WithBatchSize(cfg.EmbedBatchSize))

	a.Ingestor = ingestion.NewDocumentIngestor(dbClient, ingestion.NewLoader(storage, false), a.Index, queue, guard,
		ingestion.IngestConfig{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap})

	engine := qe.NewEngine(a.Index, p.LLM)
	a.Corpora = services.NewCorpusService(dbClient, storage, a.Index, a.Ingestor, cfg.BucketName, cfg.MaxUploadMB)
	a.Sessions = services.NewSessionStore(dbClient)
	a.Chat = services.NewChatService(a.Corpora, a.Sessions, engine)
	a.Analysis = services.NewAnalysisService(a.Corpora, engine)
	a.Seeder = seed.NewSeeder(dbClient, storage, a.Ingestor, cfg.BucketName, cfg.LawsDir, 2)
	a.Server = NewServer(cfg, a)
}

func (a *App) openStorage(ctx context.Context) (core.ObjectClient, error) {
	if a.cfg.ObjectStore == "memory" {
		return objectclient.NewMemoryClient(a.cfg.BucketName), nil
	}
	return objectclient.NewS3Client(ctx, a.cfg)
}

func (a *App) openProviders(ctx context.Context) (Providers, error) {
	switch a.cfg.LLMProvider {
	case "ollama":
		client, err := llm.NewOllamaClient(a.cfg.OllamaHost, a.cfg.OllamaEmbedModel, a.cfg.OllamaGenModel)
		if err != nil {
			return Providers{}, fmt.Errorf("couldn't initialize ollama, %w", err)
		}
		return Providers{Embedder: client, LLM: client}, nil
	case "gemini", "":
		embedder, err := llm.NewGeminiEmbedder(ctx, a.cfg.AIAPIKey, a.cfg.EmbedModel)
		if err != nil {
			return Providers{}, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		a.closers = append(a.closers, embedder.Close)
		gen, err := llm.NewGeminiLLM(ctx, a.cfg.AIAPIKey, a.cfg.GenModel)
		if err != nil {
			return Providers{}, fmt.Errorf("couldn't initialize the llm, %w", err)
		}
		a.closers = append(a.closers, gen.Close)
		return Providers{Embedder: embedder, LLM: gen}, nil
	default:
		return Providers{}, fmt.Errorf("unknown LLM_PROVIDER %q", a.cfg.LLMProvider)
	}
}

func (a *App) openVectorBackend(sqlDB *sql.DB) (vectorindex.Backend, error) {
	switch a.cfg.VectorBackend {
	case "qdrant":
		b, err := qdrant.New(a.cfg.QdrantHost, a.cfg.QdrantPort, a.cfg.QdrantAPIKey)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b.Close)
		return b, nil
	case "memory":
		return vectorindex.NewMemoryBackend(), nil
	case "pgvector", "":
		if sqlDB == nil {
			return nil, errors.New("VECTOR_BACKEND=pgvector needs a Postgres DATABASE_URL")
		}
		return pgvector.New(sqlDB), nil
	default:
		return nil, fmt.Errorf("unknown VECTOR_BACKEND %q", a.cfg.VectorBackend)
	}
}

// openQueue uses RabbitMQ when RABBITMQ_URL is set, an in-process channel otherwise.
func (a *App) openQueue(ctx context.Context) (ingestion.Queue, error) {
	if a.cfg.RabbitMQURL == "" {
		return ingestion.NewChannelQueue(64), nil
	}
	conn, err := rabbitmq.New(ctx, a.cfg.RabbitMQURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)
	return rabbitmq.NewJobQueue(conn, a.cfg.IngestQueue), nil
}

func (a *App) openGuard(ctx context.Context) (ingestion.Guard, error) {
	if a.cfg.RedisAddr == "" {
		return nil, nil
	}
	client, err := redis.New(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	return redis.NewIngestGuard(client, time.Duration(a.cfg.IngestLockTTL)*time.Second), nil
}

// StartWorkers runs the ingestion consumers until ctx is done.
func (a *App) StartWorkers(ctx context.Context) {
	a.Ingestor.Start(ctx, a.cfg.IngestWorkers)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("App: close failed: %v", err)
		}
	}
	a.closers = nil
}
