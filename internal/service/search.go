package service

import (
	"context"
	"strings"

	"github.com/inletai/inlet/internal/domain"
	"github.com/inletai/inlet/internal/vectorstore"
)

// VectorSearchAPI is the similarity-search slice of the vector index.
type VectorSearchAPI interface {
	Search(ctx context.Context, embedding []float32, k int, filter *vectorstore.Filter) ([]domain.SearchHit, error)
}

// SearchService embeds a query and runs similarity search over the content
// index.
type SearchService struct {
	embedder EmbeddingClient
	vectors  VectorSearchAPI
}

// NewSearchService creates a new SearchService instance
func NewSearchService(embedder EmbeddingClient, vectors VectorSearchAPI) *SearchService {
	return &SearchService{embedder: embedder, vectors: vectors}
}

// Search returns the k nearest chunks for the query text, optionally
// restricted to one document's records.
func (s *SearchService) Search(ctx context.Context, query string, k int, filename string) ([]domain.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "query cannot be empty")
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, domain.EmbeddingError(err)
	}

	var filter *vectorstore.Filter
	if filename != "" {
		filter = &vectorstore.Filter{Filename: filename}
	}
	return s.vectors.Search(ctx, embedding, k, filter)
}
