package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/inletai/inlet/internal/api"
	"github.com/inletai/inlet/internal/domain"
)

// PromptCacheService is the prompt-result sub-index surface.
type PromptCacheService interface {
	AddPromptResult(ctx context.Context, id, result, filename, prompt string) error
	GetPromptResults(ctx context.Context, limit int) ([]domain.PromptResult, error)
	DeletePromptResults(ctx context.Context, prefix string) error
}

type PromptHandler struct {
	svc PromptCacheService
}

func NewPromptHandler(svc PromptCacheService) *PromptHandler {
	return &PromptHandler{svc: svc}
}

type AddPromptResultRequest struct {
	ID       string `json:"id"`
	Result   string `json:"result"`
	Filename string `json:"filename"`
	Prompt   string `json:"prompt"`
}

// Add handles POST /prompts.
func (h *PromptHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddPromptResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.AddPromptResult(r.Context(), req.ID, req.Result, req.Filename, req.Prompt); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, map[string]string{"key": domain.PromptKey(req.ID)})
}

// List handles GET /prompts?limit=N.
func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	results, err := h.svc.GetPromptResults(r.Context(), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if results == nil {
		results = []domain.PromptResult{}
	}
	api.Success(w, http.StatusOK, results)
}

// Delete handles DELETE /prompts?prefix=glob. An empty prefix sweeps the
// whole prompt cache; content vectors are never affected.
func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	if err := h.svc.DeletePromptResults(r.Context(), prefix); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}
