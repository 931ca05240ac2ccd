package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inletai/inlet/internal/domain"
	"github.com/inletai/inlet/internal/layout"
	"github.com/inletai/inlet/internal/queue"
)

// MockObjectAPI mocks the object store
type MockObjectAPI struct {
	mock.Mock
}

func (m *MockObjectAPI) Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	args := m.Called(ctx, key, data, contentType, metadata)
	return args.Error(0)
}

func (m *MockObjectAPI) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectAPI) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectAPI) SignedURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// MockStateAPI mocks the document state store
type MockStateAPI struct {
	mock.Mock
}

func (m *MockStateAPI) Get(ctx context.Context, filename string) (domain.DocumentState, error) {
	args := m.Called(ctx, filename)
	return args.Get(0).(domain.DocumentState), args.Error(1)
}

func (m *MockStateAPI) List(ctx context.Context) ([]domain.DocumentState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentState), args.Error(1)
}

func (m *MockStateAPI) Update(ctx context.Context, filename string, update domain.StateUpdate) error {
	args := m.Called(ctx, filename, update)
	return args.Error(0)
}

// MockVectorAPI mocks the vector index
type MockVectorAPI struct {
	mock.Mock
}

func (m *MockVectorAPI) Upsert(ctx context.Context, rec domain.VectorRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockVectorAPI) ListAll(ctx context.Context, limit int) ([]domain.VectorRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VectorRecord), args.Error(1)
}

func (m *MockVectorAPI) DeleteKeys(ctx context.Context, keys []string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// MockWorkQueue mocks the work queue
type MockWorkQueue struct {
	mock.Mock
}

func (m *MockWorkQueue) Enqueue(ctx context.Context, filename string) (*queue.Item, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Item), args.Error(1)
}

// MockEmbeddingClient mocks the OpenAI client
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockLayoutAnalyzer mocks the layout-analysis client
type MockLayoutAnalyzer struct {
	mock.Mock
}

func (m *MockLayoutAnalyzer) Analyze(ctx context.Context, documentURL string) (domain.Layout, error) {
	args := m.Called(ctx, documentURL)
	return args.Get(0).(domain.Layout), args.Error(1)
}

type pipelineMocks struct {
	objects  *MockObjectAPI
	states   *MockStateAPI
	vectors  *MockVectorAPI
	queue    *MockWorkQueue
	embedder *MockEmbeddingClient
	analyzer *MockLayoutAnalyzer
}

func newTestPipeline(t *testing.T) (*Pipeline, *pipelineMocks) {
	t.Helper()
	m := &pipelineMocks{
		objects:  new(MockObjectAPI),
		states:   new(MockStateAPI),
		vectors:  new(MockVectorAPI),
		queue:    new(MockWorkQueue),
		embedder: new(MockEmbeddingClient),
		analyzer: new(MockLayoutAnalyzer),
	}
	p := NewPipeline(m.objects, m.states, m.vectors, m.queue, m.embedder,
		m.analyzer, nil, layout.NewExtractor(2), PipelineConfig{})
	return p, m
}

func (m *pipelineMocks) assertExpectations(t *testing.T) {
	m.objects.AssertExpectations(t)
	m.states.AssertExpectations(t)
	m.vectors.AssertExpectations(t)
	m.queue.AssertExpectations(t)
	m.embedder.AssertExpectations(t)
	m.analyzer.AssertExpectations(t)
}

func testEmbedding() []float32 {
	embedding := make([]float32, domain.EmbeddingDimensions)
	for i := range embedding {
		embedding[i] = float32(i) * 0.001
	}
	return embedding
}

func TestPipeline_Upload_PlainTextStartsConverted(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()

	m.objects.On("Upload", ctx, "notes.txt", []byte("hello"), "text/plain", map[string]string{
		"converted":          "true",
		"embeddings_added":   "false",
		"converted_filename": "",
	}).Return(nil)

	state, err := p.Upload(ctx, "notes.txt", []byte("hello"), "text/plain")

	require.NoError(t, err)
	assert.True(t, state.Converted)
	assert.False(t, state.EmbeddingsAdded)
	m.assertExpectations(t)
}

func TestPipeline_Upload_BinaryStartsUnconverted(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()

	m.objects.On("Upload", ctx, "report.pdf", []byte{0x25, 0x50}, "application/pdf", map[string]string{
		"converted":          "false",
		"embeddings_added":   "false",
		"converted_filename": "",
	}).Return(nil)

	state, err := p.Upload(ctx, "report.pdf", []byte{0x25, 0x50}, "application/pdf")

	require.NoError(t, err)
	assert.False(t, state.Converted)
	m.assertExpectations(t)
}

func TestPipeline_Upload_ValidationErrors(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	_, err := p.Upload(ctx, "  ", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, domain.ErrEmptyFilename)

	_, err = p.Upload(ctx, "converted/sneaky.txt", []byte("x"), "text/plain")
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestPipeline_EnqueueCandidates_SkipsEmbedded(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()

	m.states.On("List", ctx).Return([]domain.DocumentState{
		{Filename: "a.pdf"},
		{Filename: "b.pdf", EmbeddingsAdded: true},
		{Filename: "c.txt", Converted: true},
	}, nil)
	m.queue.On("Enqueue", ctx, "a.pdf").Return(&queue.Item{Filename: "a.pdf"}, nil)
	m.queue.On("Enqueue", ctx, "c.txt").Return(&queue.Item{Filename: "c.txt"}, nil)

	count, err := p.EnqueueCandidates(ctx, false)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	m.assertExpectations(t)
}

func TestPipeline_EnqueueCandidates_ProcessAll(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()

	m.states.On("List", ctx).Return([]domain.DocumentState{
		{Filename: "a.pdf"},
		{Filename: "b.pdf", EmbeddingsAdded: true, Converted: true},
	}, nil)
	m.queue.On("Enqueue", ctx, "a.pdf").Return(&queue.Item{Filename: "a.pdf"}, nil)
	m.queue.On("Enqueue", ctx, "b.pdf").Return(&queue.Item{Filename: "b.pdf"}, nil)

	count, err := p.EnqueueCandidates(ctx, true)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	m.assertExpectations(t)
}

func TestPipeline_ProcessItem_ConvertsAndEmbeds(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()
	embedding := testEmbedding()

	m.states.On("Get", ctx, "report.pdf").Return(domain.DocumentState{Filename: "report.pdf"}, nil)
	m.objects.On("SignedURL", ctx, "report.pdf").Return("https://store/report.pdf?sig=x", nil)
	m.analyzer.On("Analyze", ctx, "https://store/report.pdf?sig=x").Return(domain.Layout{
		Paragraphs: []domain.Paragraph{
			{Text: "first page", PageNumber: 1},
			{Text: "third page", PageNumber: 3},
		},
	}, nil)
	m.objects.On("Upload", ctx, "converted/report.pdf.txt",
		[]byte("first page\n\fthird page\n"), "text/plain; charset=utf-8",
		map[string]string(nil)).Return(nil)
	m.states.On("Update", ctx, "report.pdf", mock.MatchedBy(func(u domain.StateUpdate) bool {
		return u.Converted != nil && *u.Converted &&
			u.ConvertedFilename != nil && *u.ConvertedFilename == "report.pdf.txt"
	})).Return(nil)
	m.objects.On("Download", ctx, "converted/report.pdf.txt").
		Return([]byte("first page\n\fthird page\n"), nil)
	m.embedder.On("GenerateEmbedding", ctx, "first page\n").Return(embedding, nil)
	m.embedder.On("GenerateEmbedding", ctx, "third page\n").Return(embedding, nil)
	m.vectors.On("Upsert", ctx, mock.MatchedBy(func(rec domain.VectorRecord) bool {
		return rec.Key == "doc:converted/report.pdf.txt:0" &&
			rec.Filename == "converted/report.pdf.txt" &&
			rec.Content == "first page\n"
	})).Return(nil)
	m.vectors.On("Upsert", ctx, mock.MatchedBy(func(rec domain.VectorRecord) bool {
		return rec.Key == "doc:converted/report.pdf.txt:1" &&
			rec.Content == "third page\n"
	})).Return(nil)
	m.states.On("Update", ctx, "report.pdf", mock.MatchedBy(func(u domain.StateUpdate) bool {
		return u.EmbeddingsAdded != nil && *u.EmbeddingsAdded
	})).Return(nil)

	err := p.ProcessItem(ctx, "report.pdf")

	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestPipeline_ProcessItem_ConversionFailureKeepsState(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()

	m.states.On("Get", ctx, "report.pdf").Return(domain.DocumentState{Filename: "report.pdf"}, nil)
	m.objects.On("SignedURL", ctx, "report.pdf").Return("https://store/report.pdf?sig=x", nil)
	m.analyzer.On("Analyze", ctx, mock.Anything).Return(domain.Layout{}, errors.New("service down"))

	err := p.ProcessItem(ctx, "report.pdf")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeConversion, domainErr.Code)
	m.states.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestPipeline_ProcessItem_PartialEmbedFailure(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()
	embedding := testEmbedding()

	state := domain.DocumentState{
		Filename:          "report.pdf",
		Converted:         true,
		ConvertedFilename: "report.pdf.txt",
	}
	m.states.On("Get", ctx, "report.pdf").Return(state, nil)
	m.objects.On("Download", ctx, "converted/report.pdf.txt").Return([]byte("alpha\fbeta"), nil)
	m.embedder.On("GenerateEmbedding", ctx, "alpha").Return(embedding, nil)
	m.embedder.On("GenerateEmbedding", ctx, "beta").Return(nil, errors.New("rate limited"))
	m.vectors.On("Upsert", ctx, mock.MatchedBy(func(rec domain.VectorRecord) bool {
		return rec.Key == "doc:converted/report.pdf.txt:0"
	})).Return(nil)

	err := p.ProcessItem(ctx, "report.pdf")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeEmbedding, domainErr.Code)
	m.states.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestPipeline_ProcessItem_RedeliveryReusesKeys(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()
	embedding := testEmbedding()

	state := domain.DocumentState{
		Filename:          "report.pdf",
		Converted:         true,
		EmbeddingsAdded:   true,
		ConvertedFilename: "report.pdf.txt",
	}
	m.states.On("Get", ctx, "report.pdf").Return(state, nil).Twice()
	m.objects.On("Download", ctx, "converted/report.pdf.txt").Return([]byte("alpha"), nil).Twice()
	m.embedder.On("GenerateEmbedding", ctx, "alpha").Return(embedding, nil).Twice()
	m.vectors.On("Upsert", ctx, mock.MatchedBy(func(rec domain.VectorRecord) bool {
		return rec.Key == "doc:converted/report.pdf.txt:0"
	})).Return(nil).Twice()
	m.states.On("Update", ctx, "report.pdf", mock.MatchedBy(func(u domain.StateUpdate) bool {
		return u.EmbeddingsAdded != nil && *u.EmbeddingsAdded
	})).Return(nil).Twice()

	require.NoError(t, p.ProcessItem(ctx, "report.pdf"))
	require.NoError(t, p.ProcessItem(ctx, "report.pdf"))
	m.assertExpectations(t)
}

func TestPipeline_ProcessItem_MissingDocumentIsNoop(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()

	m.states.On("Get", ctx, "gone.pdf").
		Return(domain.DocumentState{}, domain.ErrDocumentNotFound)

	err := p.ProcessItem(ctx, "gone.pdf")

	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestPipeline_ProcessItem_PlainTextSkipsConversion(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()
	embedding := testEmbedding()

	state := domain.DocumentState{Filename: "notes.txt", Converted: true}
	m.states.On("Get", ctx, "notes.txt").Return(state, nil)
	m.objects.On("Download", ctx, "notes.txt").Return([]byte("short note"), nil)
	m.embedder.On("GenerateEmbedding", ctx, "short note").Return(embedding, nil)
	m.vectors.On("Upsert", ctx, mock.MatchedBy(func(rec domain.VectorRecord) bool {
		return rec.Key == "doc:notes.txt:0" && rec.Filename == "notes.txt"
	})).Return(nil)
	m.states.On("Update", ctx, "notes.txt", mock.MatchedBy(func(u domain.StateUpdate) bool {
		return u.EmbeddingsAdded != nil && *u.EmbeddingsAdded
	})).Return(nil)

	err := p.ProcessItem(ctx, "notes.txt")

	require.NoError(t, err)
	m.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestPipeline_Delete_ReportsPerStep(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()

	state := domain.DocumentState{
		Filename:          "report.pdf",
		Converted:         true,
		EmbeddingsAdded:   true,
		ConvertedFilename: "report.pdf.txt",
	}
	m.states.On("Get", ctx, "report.pdf").Return(state, nil)
	m.objects.On("Delete", ctx, "report.pdf").Return(errors.New("access denied"))
	m.objects.On("Delete", ctx, "converted/report.pdf.txt").Return(nil)
	m.vectors.On("ListAll", ctx, 0).Return([]domain.VectorRecord{
		{Key: "doc:converted/report.pdf.txt:0", Filename: "converted/report.pdf.txt"},
		{Key: "doc:converted/report.pdf.txt:1", Filename: "converted/report.pdf.txt"},
		{Key: "doc:other.txt:0", Filename: "other.txt"},
	}, nil)
	m.vectors.On("DeleteKeys", ctx, []string{
		"doc:converted/report.pdf.txt:0",
		"doc:converted/report.pdf.txt:1",
	}).Return(nil)

	report, err := p.Delete(ctx, "report.pdf")

	require.NoError(t, err)
	require.Len(t, report.Steps, 3)
	assert.True(t, report.Failed())
	assert.Equal(t, DeleteStepSource, report.Steps[0].Step)
	assert.False(t, report.Steps[0].OK)
	assert.Contains(t, report.Steps[0].Error, "access denied")
	assert.True(t, report.Steps[1].OK)
	assert.True(t, report.Steps[2].OK)
	m.assertExpectations(t)
}

func TestPipeline_Delete_NotFound(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()

	m.states.On("Get", ctx, "gone.pdf").
		Return(domain.DocumentState{}, domain.ErrDocumentNotFound)

	_, err := p.Delete(ctx, "gone.pdf")

	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	m.assertExpectations(t)
}
