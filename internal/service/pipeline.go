// Package service implements the ingestion pipeline: the per-document
// state machine from upload through conversion and embedding, plus the
// synchronous deletion flow and similarity search.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/inletai/inlet/internal/domain"
	"github.com/inletai/inlet/internal/queue"
	"github.com/inletai/inlet/internal/telemetry"
)

// PageBreak separates page-window chunks inside a converted artifact, so a
// later run can recover the exact chunk boundaries without re-analyzing the
// document. Form feed is the conventional page-break character in extracted
// text.
const PageBreak = "\f"

// ObjectAPI is the slice of the object store the pipeline needs.
type ObjectAPI interface {
	Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string) (string, error)
}

// StateAPI is the document state store contract.
type StateAPI interface {
	Get(ctx context.Context, filename string) (domain.DocumentState, error)
	List(ctx context.Context) ([]domain.DocumentState, error)
	Update(ctx context.Context, filename string, update domain.StateUpdate) error
}

// VectorAPI is the slice of the vector index the pipeline needs.
type VectorAPI interface {
	Upsert(ctx context.Context, rec domain.VectorRecord) error
	ListAll(ctx context.Context, limit int) ([]domain.VectorRecord, error)
	DeleteKeys(ctx context.Context, keys []string) error
}

// WorkQueue enqueues ingestion work items.
type WorkQueue interface {
	Enqueue(ctx context.Context, filename string) (*queue.Item, error)
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// LayoutAnalyzer extracts paragraphs and tables from a document reachable
// at a signed URL.
type LayoutAnalyzer interface {
	Analyze(ctx context.Context, documentURL string) (domain.Layout, error)
}

// TranslatorClient translates extracted text into a target language.
type TranslatorClient interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// ChunkExtractor windows analyzed layout into page chunks.
type ChunkExtractor interface {
	Extract(l domain.Layout) []string
}

// PipelineConfig carries the pipeline's tunables.
type PipelineConfig struct {
	// TranslateTarget, when set, translates converted text into this
	// language before it is stored and embedded.
	TranslateTarget string

	// Chunking controls splitting of plain-text documents. Zero value
	// applies DefaultChunkConfig.
	Chunking ChunkConfig
}

// Pipeline orchestrates document ingestion. Each work item is one document,
// processed to completion: convert if needed, chunk, embed, upsert, then
// flip embeddings_added. State advances only after the step's side effect
// is durably confirmed.
type Pipeline struct {
	objects    ObjectAPI
	states     StateAPI
	vectors    VectorAPI
	queue      WorkQueue
	embedder   EmbeddingClient
	analyzer   LayoutAnalyzer
	translator TranslatorClient
	extractor  ChunkExtractor
	cfg        PipelineConfig
}

// NewPipeline creates a Pipeline. Analyzer and translator may be nil when
// the corresponding collaborator is not configured; documents needing them
// then fail their conversion step instead of silently skipping it.
func NewPipeline(
	objects ObjectAPI,
	states StateAPI,
	vectors VectorAPI,
	workQueue WorkQueue,
	embedder EmbeddingClient,
	analyzer LayoutAnalyzer,
	translator TranslatorClient,
	extractor ChunkExtractor,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.Chunking.MaxChars <= 0 {
		cfg.Chunking = DefaultChunkConfig()
	}
	return &Pipeline{
		objects:    objects,
		states:     states,
		vectors:    vectors,
		queue:      workQueue,
		embedder:   embedder,
		analyzer:   analyzer,
		translator: translator,
		extractor:  extractor,
		cfg:        cfg,
	}
}

// Upload stores a new document and its initial state record. Plain-text
// uploads need no conversion and start converted.
func (p *Pipeline) Upload(ctx context.Context, filename string, data []byte, contentType string) (domain.DocumentState, error) {
	if strings.TrimSpace(filename) == "" {
		return domain.DocumentState{}, domain.ErrEmptyFilename
	}
	if strings.HasPrefix(filename, domain.ConvertedPrefix) {
		return domain.DocumentState{}, domain.NewDomainError(domain.ErrCodeValidation,
			fmt.Sprintf("filename must not start with %q", domain.ConvertedPrefix))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	state := domain.DocumentState{
		Filename:  filename,
		Converted: isPlainText(filename, contentType),
	}
	if err := p.objects.Upload(ctx, filename, data, contentType, state.ToMetadata()); err != nil {
		return domain.DocumentState{}, err
	}
	return state, nil
}

// ListDocuments returns the state records of all source documents.
func (p *Pipeline) ListDocuments(ctx context.Context) ([]domain.DocumentState, error) {
	return p.states.List(ctx)
}

// EnqueueCandidates enqueues one work item per candidate document and
// returns the enqueued count. By default only documents still lacking
// embeddings are candidates; processAll reprocesses every document, used
// for re-indexing after an embedding-model change.
func (p *Pipeline) EnqueueCandidates(ctx context.Context, processAll bool) (int, error) {
	states, err := p.states.List(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, state := range states {
		if !processAll && state.EmbeddingsAdded {
			continue
		}
		if _, err := p.queue.Enqueue(ctx, state.Filename); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// ProcessItem runs one document through the state machine: convert if not
// yet converted, then embed every chunk and upsert it, and only after all
// chunks succeed flip embeddings_added. Deterministic chunk keys make a
// redelivered item overwrite its records in place, so partial failures are
// safe to retry.
func (p *Pipeline) ProcessItem(ctx context.Context, filename string) error {
	ctx, span := telemetry.StartSpan(ctx, "pipeline.process_item", telemetry.SpanAttributes{
		Filename:  filename,
		Operation: "ingest",
	})
	defer span.End()

	if err := p.processItem(ctx, filename); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

func (p *Pipeline) processItem(ctx context.Context, filename string) error {
	state, err := p.states.Get(ctx, filename)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			// Deleted between enqueue and dequeue. Nothing to do.
			log.Printf("Skipping %s: document no longer exists", filename)
			return nil
		}
		return err
	}

	if !state.Converted {
		state, err = p.convert(ctx, state)
		if err != nil {
			return err
		}
	}

	if err := p.embed(ctx, state); err != nil {
		return err
	}

	return p.states.Update(ctx, filename, domain.StateUpdate{
		EmbeddingsAdded: domain.BoolPtr(true),
	})
}

// convert analyzes the document's layout, extracts its page-window chunks,
// optionally translates them, and writes the converted artifact. The state
// record is updated only after the artifact upload succeeds; on failure
// converted stays false so a retry re-attempts the whole step.
func (p *Pipeline) convert(ctx context.Context, state domain.DocumentState) (domain.DocumentState, error) {
	if p.analyzer == nil {
		return state, domain.ConversionError(errors.New("no conversion endpoint configured"))
	}

	signedURL, err := p.objects.SignedURL(ctx, state.Filename)
	if err != nil {
		return state, domain.ConversionError(err)
	}

	layout, err := p.analyzer.Analyze(ctx, signedURL)
	if err != nil {
		return state, domain.ConversionError(err)
	}

	chunks := p.extractor.Extract(layout)
	if p.translator != nil && p.cfg.TranslateTarget != "" {
		for i, chunk := range chunks {
			if chunk == "" {
				continue
			}
			translated, err := p.translator.Translate(ctx, chunk, p.cfg.TranslateTarget)
			if err != nil {
				return state, domain.ConversionError(err)
			}
			chunks[i] = translated
		}
	}

	convertedFilename := state.Filename + ".txt"
	artifactKey := domain.ConvertedPrefix + convertedFilename
	text := strings.Join(chunks, PageBreak)
	if err := p.objects.Upload(ctx, artifactKey, []byte(text), "text/plain; charset=utf-8", nil); err != nil {
		return state, domain.ConversionError(err)
	}

	update := domain.StateUpdate{
		Converted:         domain.BoolPtr(true),
		ConvertedFilename: domain.StringPtr(convertedFilename),
	}
	if err := p.states.Update(ctx, state.Filename, update); err != nil {
		return state, err
	}
	update.Apply(&state)

	return state, nil
}

// chunkMetadata is the metadata JSON stored on every vector record.
type chunkMetadata struct {
	Source string `json:"source"`
	Chunk  int    `json:"chunk"`
}

// embed generates and upserts an embedding for every chunk of the
// document's text. Any chunk failure aborts before embeddings_added flips;
// records already upserted remain and are overwritten on retry.
func (p *Pipeline) embed(ctx context.Context, state domain.DocumentState) error {
	sourceKey := state.Filename
	if key := state.ConvertedKey(); key != "" {
		sourceKey = key
	}

	data, err := p.objects.Download(ctx, sourceKey)
	if err != nil {
		return domain.EmbeddingError(err)
	}

	docRef := state.DocRef()
	for i, chunk := range p.chunks(string(data), state.ConvertedFilename != "") {
		if strings.TrimSpace(chunk) == "" {
			// Empty page windows keep their index but carry nothing to embed.
			continue
		}

		embedding, err := p.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return domain.EmbeddingError(err)
		}

		meta, err := json.Marshal(chunkMetadata{Source: docRef, Chunk: i})
		if err != nil {
			return err
		}

		rec := domain.VectorRecord{
			Key:       domain.DocChunkKey(docRef, i),
			Content:   chunk,
			Metadata:  string(meta),
			Filename:  docRef,
			Embedding: embedding,
		}
		if err := p.vectors.Upsert(ctx, rec); err != nil {
			return err
		}
	}

	return nil
}

// chunks recovers the embedding units for a document's text. Converted
// artifacts preserve their page-window boundaries via PageBreak; plain-text
// documents are split by the text chunker.
func (p *Pipeline) chunks(text string, converted bool) []string {
	if converted {
		return strings.Split(text, PageBreak)
	}
	return chunkText(text, p.cfg.Chunking)
}

// DeleteStep names one step of the deletion flow.
type DeleteStep string

const (
	DeleteStepSource     DeleteStep = "source"
	DeleteStepConverted  DeleteStep = "converted"
	DeleteStepEmbeddings DeleteStep = "embeddings"
)

// DeleteStepResult reports the outcome of one deletion step.
type DeleteStepResult struct {
	Step  DeleteStep `json:"step"`
	OK    bool       `json:"ok"`
	Error string     `json:"error,omitempty"`
}

// DeleteReport is the per-step outcome of deleting one document.
type DeleteReport struct {
	Filename string             `json:"filename"`
	Steps    []DeleteStepResult `json:"steps"`
}

// Failed reports whether any deletion step failed.
func (r *DeleteReport) Failed() bool {
	for _, step := range r.Steps {
		if !step.OK {
			return true
		}
	}
	return false
}

func (r *DeleteReport) add(step DeleteStep, err error) {
	result := DeleteStepResult{Step: step, OK: err == nil}
	if err != nil {
		result.Error = err.Error()
	}
	r.Steps = append(r.Steps, result)
}

// Delete removes a document synchronously: source bytes, converted
// artifact if one exists, and every vector record referencing the
// document. Each step runs regardless of earlier failures and the report
// carries the per-step outcomes. The state record lives in the source
// object's metadata and disappears with it.
func (p *Pipeline) Delete(ctx context.Context, filename string) (*DeleteReport, error) {
	state, err := p.states.Get(ctx, filename)
	if err != nil {
		return nil, err
	}

	report := &DeleteReport{Filename: filename}
	report.add(DeleteStepSource, p.objects.Delete(ctx, filename))
	if key := state.ConvertedKey(); key != "" {
		report.add(DeleteStepConverted, p.objects.Delete(ctx, key))
	}
	report.add(DeleteStepEmbeddings, p.deleteVectors(ctx, state.DocRef()))

	return report, nil
}

// deleteVectors removes every vector record whose filename metadata
// references the document. Records are looked up via a full listing and
// filtered client-side, then deleted by key.
func (p *Pipeline) deleteVectors(ctx context.Context, docRef string) error {
	records, err := p.vectors.ListAll(ctx, 0)
	if err != nil {
		return err
	}

	var keys []string
	for _, rec := range records {
		if rec.Filename == docRef {
			keys = append(keys, rec.Key)
		}
	}
	return p.vectors.DeleteKeys(ctx, keys)
}

// isPlainText reports whether an upload needs no layout analysis.
func isPlainText(filename, contentType string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".txt") ||
		strings.HasPrefix(contentType, "text/plain")
}
