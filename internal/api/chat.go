package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deva-ai/deva/internal/api/respond"
	"github.com/deva-ai/deva/internal/chat"
)

// ChatHandler drives the orchestrator from HTTP. The companion serves a
// single user, so one session serializes all exchanges.
type ChatHandler struct {
	orch *chat.Orchestrator
	sess *chat.Session
	log  zerolog.Logger
}

func NewChatHandler(orch *chat.Orchestrator, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{orch: orch, sess: chat.NewSession(), log: log}
}

// Chat POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respond.WriteBadRequest(w, "message is required")
		return
	}

	reply, err := h.orch.Exchange(r.Context(), h.sess, req.Message)
	if err != nil {
		h.log.Error().Err(err).Msg("exchange failed")
		respond.WriteInternalError(w, "exchange failed, please retry")
		return
	}

	respond.WriteJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
