package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/inletai/inlet/internal/api"
	"github.com/inletai/inlet/internal/domain"
)

// VectorIndexService is the vector index surface the embedding handlers
// need.
type VectorIndexService interface {
	ListAll(ctx context.Context, limit int) ([]domain.VectorRecord, error)
	DeleteByPattern(ctx context.Context, pattern string) error
}

// QuerySearcher embeds query text and runs similarity search.
type QuerySearcher interface {
	Search(ctx context.Context, query string, k int, filename string) ([]domain.SearchHit, error)
}

type EmbeddingHandler struct {
	vectors  VectorIndexService
	searcher QuerySearcher
}

func NewEmbeddingHandler(vectors VectorIndexService, searcher QuerySearcher) *EmbeddingHandler {
	return &EmbeddingHandler{vectors: vectors, searcher: searcher}
}

// List handles GET /embeddings?limit=N.
func (h *EmbeddingHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := h.vectors.ListAll(r.Context(), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if records == nil {
		records = []domain.VectorRecord{}
	}
	api.Success(w, http.StatusOK, records)
}

// Delete handles DELETE /embeddings?pattern=glob. The pattern is required
// so a bare DELETE can never wipe the whole index by accident.
func (h *EmbeddingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		api.Error(w, http.StatusBadRequest, "pattern is required")
		return
	}

	if err := h.vectors.DeleteByPattern(r.Context(), pattern); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"pattern": pattern})
}

type SearchRequest struct {
	Query    string `json:"query"`
	K        int    `json:"k"`
	Filename string `json:"filename"`
}

// Search handles POST /search.
func (h *EmbeddingHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hits, err := h.searcher.Search(r.Context(), req.Query, req.K, req.Filename)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}
	api.Success(w, http.StatusOK, hits)
}
