package store

import (
	"context"

	"github.com/deva-ai/deva/internal/model"
)

// Store exposes the persistence operations the companion core depends on.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
type Store interface {
	Memories() Memories
	Reminders() Reminders
	Turns() Turns

	// EnsureSchema creates the three tables if they do not exist. It is run
	// once at startup by the service bootstrap, never by the core.
	EnsureSchema(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
}

// Memories persists timestamped, tagged, importance-ranked facts.
type Memories interface {
	// Create assigns the identifier and both timestamps server-side.
	Create(ctx context.Context, m *model.MemoryRecord) (*model.MemoryRecord, error)

	// Recall returns up to limit records, most-recently-created first.
	Recall(ctx context.Context, limit int) ([]*model.MemoryRecord, error)

	// List returns all records, most-recently-created first.
	List(ctx context.Context) ([]*model.MemoryRecord, error)

	// Get returns model.ErrNotFound when the identifier does not exist.
	Get(ctx context.Context, id string) (*model.MemoryRecord, error)

	// Update applies a partial update and refreshes UpdatedAt. Returns
	// model.ErrNotFound when the identifier does not exist.
	Update(ctx context.Context, id string, req model.UpdateMemoryRequest) (*model.MemoryRecord, error)

	// Delete is idempotent: removing an absent identifier succeeds.
	Delete(ctx context.Context, id string) error
}

// Reminders persists scheduled tasks.
type Reminders interface {
	Schedule(ctx context.Context, r *model.Reminder) (*model.Reminder, error)

	// List returns reminders ordered by RemindAt ascending. With pendingOnly
	// set, completed reminders are filtered out.
	List(ctx context.Context, pendingOnly bool) ([]*model.Reminder, error)

	// Complete marks a reminder done. Returns model.ErrNotFound when absent.
	Complete(ctx context.Context, id string) error

	// Delete is idempotent, matching Memories.Delete.
	Delete(ctx context.Context, id string) error
}

// Turns is the append-only conversation log.
type Turns interface {
	Append(ctx context.Context, role model.Role, text string) (*model.ConversationTurn, error)

	// Recent returns the most recent limit turns in oldest-first order.
	Recent(ctx context.Context, limit int) ([]*model.ConversationTurn, error)
}
