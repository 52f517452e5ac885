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

type ReminderHandler struct {
	reminders store.Reminders
}

func NewReminderHandler(r store.Reminders) *ReminderHandler {
	return &ReminderHandler{reminders: r}
}

// CreateReminder POST /api/reminders
func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Task     string    `json:"task"`
		RemindAt time.Time `json:"remindAt"`
		Repeat   *string   `json:"repeat,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	saved, err := h.reminders.Schedule(r.Context(), &model.Reminder{
		Task:     req.Task,
		RemindAt: req.RemindAt,
		Repeat:   req.Repeat,
	})
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		respond.WriteInternalError(w, "Failed to create reminder")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, saved)
}

// ListReminders GET /api/reminders?pending=true
func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	pendingOnly := r.URL.Query().Get("pending") == "true"
	rems, err := h.reminders.List(r.Context(), pendingOnly)
	if err != nil {
		respond.WriteInternalError(w, "Failed to list reminders")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reminders": rems,
		"count":     len(rems),
	})
}

// CompleteReminder POST /api/reminders/{reminderId}/complete
func (h *ReminderHandler) CompleteReminder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["reminderId"]
	if err := h.reminders.Complete(r.Context(), id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "Reminder not found")
			return
		}
		respond.WriteInternalError(w, "Failed to complete reminder")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteReminder DELETE /api/reminders/{reminderId}
func (h *ReminderHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["reminderId"]
	if err := h.reminders.Delete(r.Context(), id); err != nil {
		respond.WriteInternalError(w, "Failed to delete reminder")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
