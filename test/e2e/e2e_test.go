//go:build e2e

package e2e

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type documentState struct {
	Filename          string `json:"filename"`
	Converted         bool   `json:"converted"`
	EmbeddingsAdded   bool   `json:"embeddings_added"`
	ConvertedFilename string `json:"converted_filename"`
}

type vectorRecord struct {
	Key      string `json:"key"`
	Content  string `json:"content"`
	Filename string `json:"filename"`
}

type searchHit struct {
	Key      string  `json:"key"`
	Content  string  `json:"content"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// TestE2E_DocumentIngestionFlow walks a plain-text document through the
// full lifecycle: upload, enqueue, worker ingestion, search, delete.
func TestE2E_DocumentIngestionFlow(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	content := "the quarterly refund policy allows returns within thirty days"

	t.Run("upload plain text document", func(t *testing.T) {
		resp, status, err := env.UploadDocument("notes.txt", "text/plain", []byte(content))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, status)

		var state documentState
		require.NoError(t, json.Unmarshal(resp.Data, &state))
		assert.Equal(t, "notes.txt", state.Filename)
		assert.True(t, state.Converted)
		assert.False(t, state.EmbeddingsAdded)
	})

	t.Run("list shows pending embeddings", func(t *testing.T) {
		resp, status, err := env.Get("/documents")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		var states []documentState
		require.NoError(t, json.Unmarshal(resp.Data, &states))
		require.Len(t, states, 1)
		assert.False(t, states[0].EmbeddingsAdded)
	})

	t.Run("process enqueues the document", func(t *testing.T) {
		resp, status, err := env.Post("/process", nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		var result struct {
			Enqueued int `json:"enqueued"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, 1, result.Enqueued)
	})

	t.Run("worker ingests the document", func(t *testing.T) {
		env.RunWorkerPass()

		resp, _, err := env.Get("/documents")
		require.NoError(t, err)

		var states []documentState
		require.NoError(t, json.Unmarshal(resp.Data, &states))
		require.Len(t, states, 1)
		assert.True(t, states[0].EmbeddingsAdded)
	})

	t.Run("chunk is indexed under a deterministic key", func(t *testing.T) {
		resp, _, err := env.Get("/embeddings")
		require.NoError(t, err)

		var records []vectorRecord
		require.NoError(t, json.Unmarshal(resp.Data, &records))
		require.Len(t, records, 1)
		assert.Equal(t, "doc:notes.txt:0", records[0].Key)
		assert.Equal(t, "notes.txt", records[0].Filename)
		assert.Equal(t, content, records[0].Content)
	})

	t.Run("search finds the chunk", func(t *testing.T) {
		resp, status, err := env.Post("/search", map[string]interface{}{
			"query": content,
			"k":     3,
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		var hits []searchHit
		require.NoError(t, json.Unmarshal(resp.Data, &hits))
		require.NotEmpty(t, hits)
		assert.Equal(t, "doc:notes.txt:0", hits[0].Key)
		assert.InDelta(t, 1.0, hits[0].Score, 0.001)
	})

	t.Run("reprocess without process_all enqueues nothing", func(t *testing.T) {
		resp, _, err := env.Post("/process", nil)
		require.NoError(t, err)

		var result struct {
			Enqueued int `json:"enqueued"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, 0, result.Enqueued)
	})

	t.Run("process_all reprocesses embedded documents", func(t *testing.T) {
		resp, _, err := env.Post("/process?process_all=true", nil)
		require.NoError(t, err)

		var result struct {
			Enqueued int `json:"enqueued"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, 1, result.Enqueued)

		env.RunWorkerPass()

		// Re-ingestion overwrites the same key instead of duplicating
		listResp, _, err := env.Get("/embeddings")
		require.NoError(t, err)
		var records []vectorRecord
		require.NoError(t, json.Unmarshal(listResp.Data, &records))
		assert.Len(t, records, 1)
	})

	t.Run("delete removes document and vectors", func(t *testing.T) {
		resp, status, err := env.Delete("/documents/notes.txt")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		var report struct {
			Filename string `json:"filename"`
			Steps    []struct {
				Step string `json:"step"`
				OK   bool   `json:"ok"`
			} `json:"steps"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &report))
		assert.Equal(t, "notes.txt", report.Filename)
		for _, step := range report.Steps {
			assert.True(t, step.OK, "step %s failed", step.Step)
		}

		docsResp, _, err := env.Get("/documents")
		require.NoError(t, err)
		var states []documentState
		require.NoError(t, json.Unmarshal(docsResp.Data, &states))
		assert.Empty(t, states)

		vecResp, _, err := env.Get("/embeddings")
		require.NoError(t, err)
		var records []vectorRecord
		require.NoError(t, json.Unmarshal(vecResp.Data, &records))
		assert.Empty(t, records)
	})

	t.Run("deleting a missing document returns 404", func(t *testing.T) {
		_, status, err := env.Delete("/documents/notes.txt")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

// TestE2E_PromptCacheAndIndexPruning covers the prompt-result cache and
// pattern-based vector deletion.
func TestE2E_PromptCacheAndIndexPruning(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("cache and list prompt results", func(t *testing.T) {
		resp, status, err := env.Post("/prompts", map[string]string{
			"id":     "batch-7",
			"result": "the policy allows thirty day returns",
			"prompt": "summarize the refund policy",
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, status)

		var created struct {
			Key string `json:"key"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &created))
		assert.Equal(t, "prompt:batch-7", created.Key)

		listResp, _, err := env.Get("/prompts")
		require.NoError(t, err)
		var results []struct {
			Key    string `json:"key"`
			Result string `json:"result"`
		}
		require.NoError(t, json.Unmarshal(listResp.Data, &results))
		require.Len(t, results, 1)
		assert.Equal(t, "prompt:batch-7", results[0].Key)
	})

	t.Run("prompt sweep leaves content vectors alone", func(t *testing.T) {
		_, status, err := env.UploadDocument("facts.txt", "text/plain", []byte("water boils at one hundred degrees"))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, status)

		_, _, err = env.Post("/process", nil)
		require.NoError(t, err)
		env.RunWorkerPass()

		_, status, err = env.Delete("/prompts")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		listResp, _, err := env.Get("/prompts")
		require.NoError(t, err)
		var results []json.RawMessage
		require.NoError(t, json.Unmarshal(listResp.Data, &results))
		assert.Empty(t, results)

		vecResp, _, err := env.Get("/embeddings")
		require.NoError(t, err)
		var records []vectorRecord
		require.NoError(t, json.Unmarshal(vecResp.Data, &records))
		assert.Len(t, records, 1)
	})

	t.Run("pattern delete prunes matching chunks", func(t *testing.T) {
		_, status, err := env.Delete("/embeddings?pattern=doc:facts.txt:*")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		vecResp, _, err := env.Get("/embeddings")
		require.NoError(t, err)
		var records []vectorRecord
		require.NoError(t, json.Unmarshal(vecResp.Data, &records))
		assert.Empty(t, records)
	})

	t.Run("bare embeddings delete is rejected", func(t *testing.T) {
		_, status, err := env.Delete("/embeddings")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}
