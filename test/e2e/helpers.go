//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inletai/inlet/internal/api/handlers"
	"github.com/inletai/inlet/internal/domain"
	"github.com/inletai/inlet/internal/jobs"
	"github.com/inletai/inlet/internal/layout"
	"github.com/inletai/inlet/internal/queue"
	"github.com/inletai/inlet/internal/server"
	"github.com/inletai/inlet/internal/service"
	"github.com/inletai/inlet/internal/storage"
	"github.com/inletai/inlet/internal/testutil"
	"github.com/inletai/inlet/internal/vectorstore"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Pool       *pgxpool.Pool
	Server     *httptest.Server
	Objects    *storage.ObjectStore
	Worker     *jobs.IngestWorker
	HTTPClient *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and an
// in-process server. Embeddings come from a deterministic stub so no
// external providers are needed.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	objects, err := storage.NewObjectStore(ctx, storage.ObjectStoreConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "inlet-e2e",
		UsePathStyle:    true,
		SignedURLTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create object store: %v", err)
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	states := storage.NewStateStore(objects)

	vectors := vectorstore.New(pool)
	if err := vectors.EnsureIndex(ctx, vectorstore.ContentIndexName, domain.EmbeddingDimensions, domain.DistanceCosine); err != nil {
		t.Fatalf("failed to ensure content index: %v", err)
	}
	if err := vectors.EnsureIndex(ctx, vectorstore.PromptIndexName, domain.EmbeddingDimensions, domain.DistanceCosine); err != nil {
		t.Fatalf("failed to ensure prompt index: %v", err)
	}

	ingestQueue := queue.New(pool)
	embedder := &stubEmbedder{}

	pipeline := service.NewPipeline(objects, states, vectors, ingestQueue, embedder, nil, nil, layout.NewExtractor(2), service.PipelineConfig{})
	searcher := service.NewSearchService(embedder, vectors)
	worker := jobs.NewIngestWorker(ingestQueue, pipeline)

	router := server.NewRouter(server.RouterConfig{
		DocumentHandler:  handlers.NewDocumentHandler(pipeline),
		EmbeddingHandler: handlers.NewEmbeddingHandler(vectors, searcher),
		PromptHandler:    handlers.NewPromptHandler(vectors),
	})
	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		Server:     srv,
		Objects:    objects,
		Worker:     worker,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// RunWorkerPass drains the ingestion queue once, the way one polling tick
// of the background worker would.
func (e *E2ETestEnv) RunWorkerPass() {
	if err := e.Worker.ProcessJobs(e.Ctx); err != nil {
		e.T.Fatalf("worker pass failed: %v", err)
	}
}

// APIResponse mirrors the server's JSON envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request against the test server.
func (e *E2ETestEnv) Get(path string) (*APIResponse, int, error) {
	req, err := http.NewRequest("GET", e.Server.URL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	return e.send(req)
}

// Post performs a POST request with a JSON body.
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, int, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequest("POST", e.Server.URL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req)
}

// Delete performs a DELETE request.
func (e *E2ETestEnv) Delete(path string) (*APIResponse, int, error) {
	req, err := http.NewRequest("DELETE", e.Server.URL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	return e.send(req)
}

// UploadDocument posts a file as the "file" part of a multipart form.
func (e *E2ETestEnv) UploadDocument(filename, contentType string, data []byte) (*APIResponse, int, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := make(map[string][]string)
	partHeader["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	if contentType != "" {
		partHeader["Content-Type"] = []string{contentType}
	}
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, 0, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, 0, err
	}
	if err := writer.Close(); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequest("POST", e.Server.URL+"/documents", &buf)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.send(req)
}

func (e *E2ETestEnv) send(req *http.Request) (*APIResponse, int, error) {
	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to parse response %q: %w", body, err)
	}
	return &apiResp, resp.StatusCode, nil
}

// stubEmbedder produces stable vectors derived from the text itself, so
// identical text always lands in the same spot of the index.
type stubEmbedder struct{}

func (s *stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	embedding := make([]float32, domain.EmbeddingDimensions)
	for i := range embedding {
		word := binary.BigEndian.Uint32(sum[(i*4)%28 : (i*4)%28+4])
		embedding[i] = float32(word%1000)/1000.0 - 0.5
	}
	return embedding, nil
}
