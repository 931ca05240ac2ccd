package domain

import "fmt"

const (
	// EmbeddingDimensions is the output dimensionality of the embedding
	// model backing the content index.
	EmbeddingDimensions = 1536

	// DocKeyPrefix and PromptKeyPrefix partition the record keyspace.
	DocKeyPrefix    = "doc"
	PromptKeyPrefix = "prompt"
)

// DistanceMetric selects how similarity search ranks records.
type DistanceMetric string

const (
	DistanceCosine       DistanceMetric = "cosine"
	DistanceL2           DistanceMetric = "l2"
	DistanceInnerProduct DistanceMetric = "ip"
)

// VectorRecord is one keyed embedding record in the content index. Filename
// back-references the owning document; the index never cascades deletes on
// its own.
type VectorRecord struct {
	Key       string    `json:"key"`
	Content   string    `json:"content"`
	Metadata  string    `json:"metadata"`
	Filename  string    `json:"filename"`
	Embedding []float32 `json:"-"`
}

// SearchHit is a VectorRecord with its similarity score, nearest first.
type SearchHit struct {
	VectorRecord
	Score float64 `json:"score"`
}

// PromptResult is a cached LLM completion keyed by source chunk id, stored
// in a distinct index from content vectors so cache sweeps never touch
// document embeddings.
type PromptResult struct {
	Key      string `json:"key"`
	Result   string `json:"result"`
	Filename string `json:"filename"`
	Prompt   string `json:"prompt"`
}

// DocChunkKey builds the deterministic key for one chunk of a document, so
// redelivered work items overwrite records in place instead of growing the
// index.
func DocChunkKey(docRef string, chunkIndex int) string {
	return fmt.Sprintf("%s:%s:%d", DocKeyPrefix, docRef, chunkIndex)
}

// PromptKey builds the key for a cached prompt result.
func PromptKey(id string) string {
	return fmt.Sprintf("%s:%s", PromptKeyPrefix, id)
}
