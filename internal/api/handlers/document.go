// Package handlers holds the HTTP handlers for the ingestion API.
package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inletai/inlet/internal/api"
	"github.com/inletai/inlet/internal/domain"
	"github.com/inletai/inlet/internal/service"
)

// DocumentService is the pipeline surface the document handlers need.
type DocumentService interface {
	Upload(ctx context.Context, filename string, data []byte, contentType string) (domain.DocumentState, error)
	ListDocuments(ctx context.Context) ([]domain.DocumentState, error)
	EnqueueCandidates(ctx context.Context, processAll bool) (int, error)
	Delete(ctx context.Context, filename string) (*service.DeleteReport, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload handles POST /documents. The document arrives as the "file" part
// of a multipart form; the part's filename becomes the document name.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file upload")
		return
	}

	state, err := h.svc.Upload(r.Context(), header.Filename, data, header.Header.Get("Content-Type"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, state)
}

// List handles GET /documents.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	states, err := h.svc.ListDocuments(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if states == nil {
		states = []domain.DocumentState{}
	}
	api.Success(w, http.StatusOK, states)
}

// ProcessResponse reports the result of a batch-processing request.
type ProcessResponse struct {
	Enqueued int    `json:"enqueued"`
	Message  string `json:"message"`
}

// Process handles POST /process. By default only documents still lacking
// embeddings are enqueued; process_all=true reprocesses everything.
func (h *DocumentHandler) Process(w http.ResponseWriter, r *http.Request) {
	processAll := r.URL.Query().Get("process_all") == "true"

	count, err := h.svc.EnqueueCandidates(r.Context(), processAll)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ProcessResponse{
		Enqueued: count,
		Message:  fmt.Sprintf("conversion started for %d documents", count),
	})
}

// Delete handles DELETE /documents/{name}. The response carries the
// per-step deletion report; a partial failure is still a report, not an
// error status.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		api.Error(w, http.StatusBadRequest, "document name is required")
		return
	}

	report, err := h.svc.Delete(r.Context(), name)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	status := http.StatusOK
	if report.Failed() {
		status = http.StatusMultiStatus
	}
	api.Success(w, status, report)
}
