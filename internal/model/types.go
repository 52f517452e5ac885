package model

import "time"

// Role attributes a conversation turn to one side of the exchange.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MemoryRecord is a durably stored fact about the user with metadata for recall.
type MemoryRecord struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Tags       []string   `json:"tags"`
	Importance int        `json:"importance"`
	EventTime  *time.Time `json:"eventTime,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// UpdateMemoryRequest is a partial update; nil fields are left unchanged.
// A non-nil Tags slice replaces the tag set wholesale.
type UpdateMemoryRequest struct {
	Title      *string    `json:"title,omitempty"`
	Content    *string    `json:"content,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Importance *int       `json:"importance,omitempty"`
	EventTime  *time.Time `json:"eventTime,omitempty"`
}

// Reminder is a durably stored scheduled task. RemindAt is always a concrete
// point in time; relative expressions are resolved before scheduling.
type Reminder struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	RemindAt  time.Time `json:"remindAt"`
	Repeat    *string   `json:"repeat,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationTurn is one message of the append-only conversation log.
// Turns are never mutated or deleted after creation.
type ConversationTurn struct {
	Seq       int64     `json:"seq"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultMemoryType is assigned when a record carries no explicit type tag.
const DefaultMemoryType = "thought"

// ClampImportance forces an importance value into the 1..5 range.
func ClampImportance(n int) int {
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}
