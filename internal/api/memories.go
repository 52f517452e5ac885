package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/deva-ai/deva/internal/api/respond"
	"github.com/deva-ai/deva/internal/model"
	"github.com/deva-ai/deva/internal/store"
)

type MemoryHandler struct {
	memories store.Memories
}

func NewMemoryHandler(m store.Memories) *MemoryHandler {
	return &MemoryHandler{memories: m}
}

// CreateMemory POST /api/memories
func (h *MemoryHandler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      string     `json:"title"`
		Content    string     `json:"content"`
		Tags       []string   `json:"tags,omitempty"`
		Importance int        `json:"importance,omitempty"`
		EventTime  *time.Time `json:"eventTime,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Content == "" {
		respond.WriteBadRequest(w, "content is required")
		return
	}

	rec := &model.MemoryRecord{
		Title:      req.Title,
		Content:    req.Content,
		Tags:       req.Tags,
		Importance: req.Importance,
		EventTime:  req.EventTime,
	}
	saved, err := h.memories.Create(r.Context(), rec)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		respond.WriteInternalError(w, "Failed to create memory")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, saved)
}

// ListMemories GET /api/memories
func (h *MemoryHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	mems, err := h.memories.List(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "Failed to list memories")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"memories": mems,
		"count":    len(mems),
	})
}

// GetMemory GET /api/memories/{memoryId}
func (h *MemoryHandler) GetMemory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["memoryId"]
	rec, err := h.memories.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "Memory not found")
			return
		}
		respond.WriteInternalError(w, "Failed to get memory")
		return
	}
	respond.WriteJSON(w, http.StatusOK, rec)
}

// UpdateMemory PUT /api/memories/{memoryId}
func (h *MemoryHandler) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["memoryId"]
	var req model.UpdateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	updated, err := h.memories.Update(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			respond.WriteNotFound(w, "Memory not found")
		case errors.Is(err, model.ErrValidation):
			respond.WriteBadRequest(w, err.Error())
		default:
			respond.WriteInternalError(w, "Failed to update memory")
		}
		return
	}
	respond.WriteJSON(w, http.StatusOK, updated)
}

// DeleteMemory DELETE /api/memories/{memoryId}
func (h *MemoryHandler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["memoryId"]
	if err := h.memories.Delete(r.Context(), id); err != nil {
		respond.WriteInternalError(w, "Failed to delete memory")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
