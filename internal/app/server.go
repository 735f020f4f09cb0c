package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/legalmind/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/legalmind/internal/api/middlewares"
	"github.com/markdave123-py/legalmind/internal/config"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, a *App) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, a),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv}
}

func NewRouter(cfg *config.Config, a *App) http.Handler {
	corpusHandler := handlers.NewCorpusHandler(a.Corpora, cfg.MaxUploadMB)
	chatHandler := handlers.NewChatHandler(a.Chat)
	analysisHandler := handlers.NewAnalysisHandler(a.Analysis)
	lawHandler := handlers.NewLawHandler(a.Corpora)
	sessionHandler := handlers.NewSessionHandler(a.Sessions)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))

		api.Route("/corpora", func(c chi.Router) {
			c.Post("/", corpusHandler.Upload)
			c.Get("/", corpusHandler.List)
			c.Get("/{id}", corpusHandler.Get)
			c.Delete("/{id}", corpusHandler.Delete)
			c.Post("/{id}/ingest", corpusHandler.Ingest)
			c.Post("/{id}/chat", chatHandler.Query)
			c.Post("/{id}/analyze/{task}", analysisHandler.Analyze)
		})
		api.Get("/analyses", analysisHandler.Tasks)

		api.Get("/laws", lawHandler.List)
		api.Get("/laws/{slug}", lawHandler.Get)

		api.Get("/sessions", sessionHandler.List)
		api.Get("/sessions/{id}", sessionHandler.Get)
		api.Delete("/sessions/{id}", sessionHandler.Delete)
	})

	return r
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
