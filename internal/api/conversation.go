package api

import (
	"net/http"
	"strconv"

	"github.com/deva-ai/deva/internal/api/respond"
	"github.com/deva-ai/deva/internal/store"
)

const defaultConversationLimit = 20

type ConversationHandler struct {
	turns store.Turns
}

func NewConversationHandler(t store.Turns) *ConversationHandler {
	return &ConversationHandler{turns: t}
}

// RecentTurns GET /api/conversation?limit=N
func (h *ConversationHandler) RecentTurns(w http.ResponseWriter, r *http.Request) {
	limit := defaultConversationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	turns, err := h.turns.Recent(r.Context(), limit)
	if err != nil {
		respond.WriteInternalError(w, "Failed to load conversation")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"turns": turns,
		"count": len(turns),
	})
}
