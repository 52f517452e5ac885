package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deva-ai/deva/internal/assembler"
	"github.com/deva-ai/deva/internal/chat"
	"github.com/deva-ai/deva/internal/llm"
	"github.com/deva-ai/deva/internal/metrics"
	"github.com/deva-ai/deva/internal/model"
	"github.com/deva-ai/deva/internal/persona"
	"github.com/deva-ai/deva/internal/store"
	"github.com/deva-ai/deva/internal/store/sqlite"
	"github.com/deva-ai/deva/internal/tools"
)

func newTestRouter(t *testing.T) (*mux.Router, store.Store, *llm.MockModel) {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := sqlite.NewWithDB(db)
	require.NoError(t, s.EnsureSchema(context.Background()))

	m := llm.NewMockModel("mock", "test")
	mets := metrics.New()
	orch := chat.New(chat.Options{
		Store:     s,
		Model:     m,
		Assembler: assembler.New(s, persona.Profile{}, 10, 20),
		Registry: tools.NewRegistry(
			tools.NewSaveMemory(s.Memories(), nil),
			tools.NewSetReminder(s.Reminders()),
		),
		Metrics:      mets,
		Logger:       zerolog.Nop(),
		ModelTimeout: 5 * time.Second,
	})

	router := NewRouter(RouterDeps{
		Store:        s,
		Orchestrator: orch,
		Metrics:      mets,
		Logger:       zerolog.Nop(),
	})
	return router, s, m
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestChatEndpoint(t *testing.T) {
	router, s, m := newTestRouter(t)
	m.Enqueue(llm.Response{Text: "Hello to you too!"})

	rr := doJSON(t, router, http.MethodPost, "/api/chat", map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Hello to you too!", resp["reply"])

	turns, err := s.Turns().Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestChatEndpointValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/chat", map[string]string{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString("{not json"))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMemoryCRUD(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/memories", map[string]interface{}{
		"title":      "Race day",
		"content":    "Finished the 10k race",
		"tags":       []string{"fitness"},
		"importance": 4,
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var created model.MemoryRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 4, created.Importance)

	rr = doJSON(t, router, http.MethodGet, "/api/memories", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed struct {
		Memories []model.MemoryRecord `json:"memories"`
		Count    int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Count)

	newContent := "Finished the 10k race in under an hour"
	rr = doJSON(t, router, http.MethodPut, "/api/memories/"+created.ID, map[string]interface{}{
		"content": newContent,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var updated model.MemoryRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, newContent, updated.Content)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	rr = doJSON(t, router, http.MethodDelete, "/api/memories/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/memories/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMemoryNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/api/memories/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, http.MethodPut, "/api/memories/no-such-id", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReminderLifecycle(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/reminders", map[string]interface{}{
		"task":     "call mom",
		"remindAt": time.Date(2025, 8, 2, 15, 30, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created model.Reminder
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rr = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/reminders/%s/complete", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/reminders?pending=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.Equal(t, 0, listed.Count, "completed reminder is filtered from pending view")
}

func TestReminderValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/reminders", map[string]interface{}{
		"task": "call mom",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "missing remindAt is rejected")
}

func TestConversationEndpoint(t *testing.T) {
	router, s, _ := newTestRouter(t)
	ctx := context.Background()

	_, err := s.Turns().Append(ctx, model.RoleUser, "hello")
	require.NoError(t, err)
	_, err = s.Turns().Append(ctx, model.RoleAssistant, "hi!")
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodGet, "/api/conversation?limit=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Turns []model.ConversationTurn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Turns, 1)
	assert.Equal(t, "hi!", resp.Turns[0].Text)

	rr = doJSON(t, router, http.MethodGet, "/api/conversation?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	router, _, m := newTestRouter(t)
	m.Enqueue(llm.Response{Text: "hi"})

	rr := doJSON(t, router, http.MethodPost, "/api/chat", map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "deva_exchanges_total")
}
