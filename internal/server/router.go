package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inletai/inlet/internal/api"
	"github.com/inletai/inlet/internal/api/handlers"
	"github.com/inletai/inlet/internal/api/middleware"
)

type RouterConfig struct {
	DocumentHandler  *handlers.DocumentHandler
	EmbeddingHandler *handlers.EmbeddingHandler
	PromptHandler    *handlers.PromptHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Document uploads carry whole files in the request body.
	const maxBodyBytes int64 = 50 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", cfg.DocumentHandler.Upload)
		r.Get("/", cfg.DocumentHandler.List)
		r.Delete("/{name}", cfg.DocumentHandler.Delete)
	})
	r.Post("/process", cfg.DocumentHandler.Process)

	r.Route("/embeddings", func(r chi.Router) {
		r.Get("/", cfg.EmbeddingHandler.List)
		r.Delete("/", cfg.EmbeddingHandler.Delete)
	})
	r.Post("/search", cfg.EmbeddingHandler.Search)

	r.Route("/prompts", func(r chi.Router) {
		r.Post("/", cfg.PromptHandler.Add)
		r.Get("/", cfg.PromptHandler.List)
		r.Delete("/", cfg.PromptHandler.Delete)
	})

	return r
}
