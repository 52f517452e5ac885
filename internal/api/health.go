package api

import (
	"net/http"
	"time"

	"github.com/deva-ai/deva/internal/api/respond"
	"github.com/deva-ai/deva/internal/store"
)

// HealthHandler reports service health. When a cached health supplier is
// wired it answers from that; otherwise it pings the store directly.
type HealthHandler struct {
	store   store.Store
	healthy func() bool
}

func NewHealthHandler(s store.Store, healthy func() bool) *HealthHandler {
	return &HealthHandler{store: s, healthy: healthy}
}

// CheckHealth GET /api/health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ok := false
	if h.healthy != nil {
		ok = h.healthy()
	} else {
		ok = h.store.Ping(r.Context()) == nil
	}

	status, code := "healthy", http.StatusOK
	if !ok {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	respond.WriteJSON(w, code, map[string]string{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
