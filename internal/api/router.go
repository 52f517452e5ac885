package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/deva-ai/deva/internal/api/recovery"
	"github.com/deva-ai/deva/internal/chat"
	"github.com/deva-ai/deva/internal/metrics"
	"github.com/deva-ai/deva/internal/store"
)

// RouterDeps carries everything the HTTP surface needs. Healthy is
// optional; without it the health endpoint pings the store per request.
type RouterDeps struct {
	Store        store.Store
	Orchestrator *chat.Orchestrator
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
	Healthy      func() bool
}

// NewRouter wires all API routes.
func NewRouter(deps RouterDeps) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	// Chat
	chatHandler := NewChatHandler(deps.Orchestrator, deps.Logger)
	root.HandleFunc("/api/chat", chatHandler.Chat).Methods("POST")

	// Memories
	memory := NewMemoryHandler(deps.Store.Memories())
	root.HandleFunc("/api/memories", memory.CreateMemory).Methods("POST")
	root.HandleFunc("/api/memories", memory.ListMemories).Methods("GET")
	root.HandleFunc("/api/memories/{memoryId}", memory.GetMemory).Methods("GET")
	root.HandleFunc("/api/memories/{memoryId}", memory.UpdateMemory).Methods("PUT")
	root.HandleFunc("/api/memories/{memoryId}", memory.DeleteMemory).Methods("DELETE")

	// Reminders
	reminder := NewReminderHandler(deps.Store.Reminders())
	root.HandleFunc("/api/reminders", reminder.CreateReminder).Methods("POST")
	root.HandleFunc("/api/reminders", reminder.ListReminders).Methods("GET")
	root.HandleFunc("/api/reminders/{reminderId}/complete", reminder.CompleteReminder).Methods("POST")
	root.HandleFunc("/api/reminders/{reminderId}", reminder.DeleteReminder).Methods("DELETE")

	// Conversation log
	conversation := NewConversationHandler(deps.Store.Turns())
	root.HandleFunc("/api/conversation", conversation.RecentTurns).Methods("GET")

	// Health
	healthHandler := NewHealthHandler(deps.Store, deps.Healthy)
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Metrics
	if deps.Metrics != nil {
		root.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	return root
}
