// Package llm defines the minimal language-model interface the companion
// core drives, unified across providers so downstream logic does not need
// per-vendor branching.
package llm

import "context"

// Message roles on the model wire. These are distinct from the conversation
// log roles: "system" and "tool" never appear in the durable log.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the prompt thread.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant messages that requested tool invocations.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`

	// ToolCallID is set on tool-role messages carrying an invocation result.
	ToolCallID string `json:"toolCallId,omitempty"`
}

// ToolCall is a function call request surfaced by a model provider.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable capability to the model.
// Parameters is a minimal JSON Schema object.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Request captures one normalized model invocation.
type Request struct {
	System   string           `json:"system,omitempty"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// Response is the provider's reply: final text, or tool call requests that
// must be answered before the model produces its final text.
type Response struct {
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	StopReason string     `json:"stopReason,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the interface required to drive one generation.
type Model interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
	Info() Info
}
