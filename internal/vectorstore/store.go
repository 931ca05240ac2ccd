// Package vectorstore implements the vector index engine on Postgres with
// pgvector: index lifecycle, keyed upsert, similarity search, key and
// pattern deletes, and the prompt-result sub-index.
package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/inletai/inlet/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ContentIndexName and PromptIndexName are the two indexes the pipeline
// uses. Content vectors and prompt results live in separate indexes so a
// full cache wipe never touches document embeddings.
const (
	ContentIndexName = "doc-index"
	PromptIndexName  = "prompt-index"
)

// DefaultListLimit caps listing queries when the caller passes no limit.
const DefaultListLimit = 1000

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Filter restricts similarity search results. Zero values match everything.
type Filter struct {
	Filename         string
	MetadataContains string
}

// Store owns the vector record and prompt result keyspaces.
type Store struct {
	db     dbtx
	metric domain.DistanceMetric
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, metric: domain.DistanceCosine}
}

func NewWithTx(tx dbtx) *Store {
	return &Store{db: tx, metric: domain.DistanceCosine}
}

// EnsureIndex registers the index and creates its ANN structure if absent.
// Calling it again with the same parameters is a no-op: the registry insert
// and index creation both tolerate an existing definition.
func (s *Store) EnsureIndex(ctx context.Context, name string, dimension int, metric domain.DistanceMetric) error {
	if dimension <= 0 {
		dimension = domain.EmbeddingDimensions
	}
	if metric == "" {
		metric = domain.DistanceCosine
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO vector_indexes (name, dimension, metric)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING`,
		name, dimension, string(metric),
	)
	if err != nil {
		return domain.IndexUnavailableError(err)
	}

	// The prompt index carries no embedding column, so only the content
	// index gets an ANN structure.
	if name == ContentIndexName {
		stmt := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s ON vector_records USING hnsw (embedding %s)`,
			identifier("idx_"+name+"_embedding"), opClass(metric),
		)
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return domain.IndexUnavailableError(err)
		}
		s.metric = metric
	}

	return nil
}

// Upsert writes or overwrites the record at key. Last write wins.
func (s *Store) Upsert(ctx context.Context, rec domain.VectorRecord) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO vector_records (key, content, metadata, filename, embedding)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (key) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			filename = EXCLUDED.filename,
			embedding = EXCLUDED.embedding`,
		rec.Key, rec.Content, rec.Metadata, rec.Filename, pgvector.NewVector(rec.Embedding),
	)
	if err != nil {
		return domain.IndexUnavailableError(err)
	}
	return nil
}

// Search returns the k nearest records for the query embedding, ranked by
// the index's distance metric, ties broken by key order.
func (s *Store) Search(ctx context.Context, embedding []float32, k int, filter *Filter) ([]domain.SearchHit, error) {
	if k <= 0 {
		k = 10
	}

	query := fmt.Sprintf(
		`SELECT key, content, metadata, filename, embedding %s $1 AS distance
		 FROM vector_records`,
		operator(s.metric),
	)
	args := []any{pgvector.NewVector(embedding)}

	var where []string
	if filter != nil && filter.Filename != "" {
		args = append(args, filter.Filename)
		where = append(where, fmt.Sprintf("filename = $%d", len(args)))
	}
	if filter != nil && filter.MetadataContains != "" {
		args = append(args, "%"+filter.MetadataContains+"%")
		where = append(where, fmt.Sprintf("metadata LIKE $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	args = append(args, k)
	query += fmt.Sprintf(" ORDER BY distance ASC, key ASC LIMIT $%d", len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.IndexUnavailableError(err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var hit domain.SearchHit
		var distance float64
		if err := rows.Scan(&hit.Key, &hit.Content, &hit.Metadata, &hit.Filename, &distance); err != nil {
			return nil, domain.IndexUnavailableError(err)
		}
		hit.Score = 1.0 / (1.0 + distance)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.IndexUnavailableError(err)
	}

	return hits, nil
}

// DeleteKeys deletes each key from both keyspaces. Missing keys are not
// errors.
func (s *Store) DeleteKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM vector_records WHERE key = ANY($1)`, keys); err != nil {
		return domain.IndexUnavailableError(err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM prompt_results WHERE key = ANY($1)`, keys); err != nil {
		return domain.IndexUnavailableError(err)
	}
	return nil
}

// DeleteByPattern deletes every key matching the glob-like pattern
// (* and ? wildcards) from both keyspaces. Doc and prompt keys are disjoint
// by prefix, so a prompt:* sweep never touches content vectors.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) error {
	like := globToLike(pattern)
	if _, err := s.db.Exec(ctx, `DELETE FROM vector_records WHERE key LIKE $1`, like); err != nil {
		return domain.IndexUnavailableError(err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM prompt_results WHERE key LIKE $1`, like); err != nil {
		return domain.IndexUnavailableError(err)
	}
	return nil
}

// ListAll returns up to limit vector records in key order, for debug and UI
// listings. A non-positive limit applies DefaultListLimit.
func (s *Store) ListAll(ctx context.Context, limit int) ([]domain.VectorRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT key, content, metadata, filename
		 FROM vector_records
		 ORDER BY key ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, domain.IndexUnavailableError(err)
	}
	defer rows.Close()

	var records []domain.VectorRecord
	for rows.Next() {
		var rec domain.VectorRecord
		if err := rows.Scan(&rec.Key, &rec.Content, &rec.Metadata, &rec.Filename); err != nil {
			return nil, domain.IndexUnavailableError(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.IndexUnavailableError(err)
	}

	return records, nil
}

func operator(metric domain.DistanceMetric) string {
	switch metric {
	case domain.DistanceL2:
		return "<->"
	case domain.DistanceInnerProduct:
		return "<#>"
	default:
		return "<=>"
	}
}

func opClass(metric domain.DistanceMetric) string {
	switch metric {
	case domain.DistanceL2:
		return "vector_l2_ops"
	case domain.DistanceInnerProduct:
		return "vector_ip_ops"
	default:
		return "vector_cosine_ops"
	}
}

// identifier sanitizes a name for use as a SQL identifier.
func identifier(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
}
