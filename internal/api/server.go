package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/llm"
)

// Summarizer turns extracted document text into one summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Replier answers a single chat message.
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Server is the HTTP API server for docqa.
type Server struct {
	router    chi.Router
	summaries Summarizer
	chat      Replier
	llm       *llm.Client
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server. client may be nil, in
// which case the stats endpoint reports itself unavailable.
func NewServer(summaries Summarizer, chat Replier, client *llm.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		summaries: summaries,
		chat:      chat,
		llm:       client,
		log:       log,
		cfg:       cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/upload", s.handleUpload)
		r.Post("/api/chat", s.handleChat)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
