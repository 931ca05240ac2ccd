//go:build integration

package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/inletai/inlet/internal/domain"
	"github.com/inletai/inlet/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitEmbedding(axis int) []float32 {
	v := make([]float32, domain.EmbeddingDimensions)
	v[axis] = 1.0
	return v
}

func TestStoreIntegration(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := New(pool)

	t.Run("ensure index twice is a no-op", func(t *testing.T) {
		require.NoError(t, store.EnsureIndex(ctx, ContentIndexName, domain.EmbeddingDimensions, domain.DistanceCosine))
		require.NoError(t, store.EnsureIndex(ctx, ContentIndexName, domain.EmbeddingDimensions, domain.DistanceCosine))
		require.NoError(t, store.EnsureIndex(ctx, PromptIndexName, 0, ""))
	})

	t.Run("upsert overwrites in place", func(t *testing.T) {
		key := domain.DocChunkKey("converted/a.pdf.txt", 0)
		rec := domain.VectorRecord{
			Key:       key,
			Content:   "first",
			Filename:  "converted/a.pdf.txt",
			Embedding: unitEmbedding(0),
		}
		require.NoError(t, store.Upsert(ctx, rec))

		rec.Content = "second"
		require.NoError(t, store.Upsert(ctx, rec))

		records, err := store.ListAll(ctx, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, key, records[0].Key)
		assert.Equal(t, "second", records[0].Content)
	})

	t.Run("search ranks by cosine distance with key tie-break", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		near := domain.VectorRecord{Key: "doc:near:0", Content: "near", Embedding: unitEmbedding(0)}
		far := domain.VectorRecord{Key: "doc:far:0", Content: "far", Embedding: unitEmbedding(1)}
		require.NoError(t, store.Upsert(ctx, near))
		require.NoError(t, store.Upsert(ctx, far))

		hits, err := store.Search(ctx, unitEmbedding(0), 2, nil)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "doc:near:0", hits[0].Key)
		assert.Greater(t, hits[0].Score, hits[1].Score)
	})

	t.Run("search with filename filter", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		for i := 0; i < 3; i++ {
			rec := domain.VectorRecord{
				Key:       domain.DocChunkKey("converted/a.pdf.txt", i),
				Filename:  "converted/a.pdf.txt",
				Embedding: unitEmbedding(i),
			}
			require.NoError(t, store.Upsert(ctx, rec))
		}
		other := domain.VectorRecord{Key: "doc:other:0", Filename: "other.txt", Embedding: unitEmbedding(5)}
		require.NoError(t, store.Upsert(ctx, other))

		hits, err := store.Search(ctx, unitEmbedding(0), 10, &Filter{Filename: "converted/a.pdf.txt"})
		require.NoError(t, err)
		assert.Len(t, hits, 3)
		for _, hit := range hits {
			assert.Equal(t, "converted/a.pdf.txt", hit.Filename)
		}
	})

	t.Run("delete keys ignores missing", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		rec := domain.VectorRecord{Key: "doc:x:0", Embedding: unitEmbedding(0)}
		require.NoError(t, store.Upsert(ctx, rec))

		require.NoError(t, store.DeleteKeys(ctx, []string{"doc:x:0", "doc:missing:0"}))

		records, err := store.ListAll(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("prompt sweep leaves content vectors", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		rec := domain.VectorRecord{Key: "doc:keep:0", Embedding: unitEmbedding(0)}
		require.NoError(t, store.Upsert(ctx, rec))
		require.NoError(t, store.AddPromptResult(ctx, "one", "answer one", "a.txt", "q1"))
		require.NoError(t, store.AddPromptResult(ctx, "two", "answer\ntwo", "b.txt", "q2"))

		results, err := store.GetPromptResults(ctx, 0)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "answer two", results[1].Result)

		require.NoError(t, store.DeletePromptResults(ctx, "prompt*"))

		results, err = store.GetPromptResults(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, results)

		records, err := store.ListAll(ctx, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "doc:keep:0", records[0].Key)
	})

	t.Run("list all respects limit", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		for i := 0; i < 5; i++ {
			rec := domain.VectorRecord{
				Key:       fmt.Sprintf("doc:bulk:%d", i),
				Embedding: unitEmbedding(i),
			}
			require.NoError(t, store.Upsert(ctx, rec))
		}

		records, err := store.ListAll(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})
}
