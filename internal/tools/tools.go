// Package tools exposes store mutations as named capabilities the model
// can invoke mid-turn.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deva-ai/deva/internal/llm"
)

// Tool is one capability the model may call. Execute returns the result
// text fed back to the model as the tool outcome; an error means the
// invocation itself failed (bad arguments, storage failure).
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry holds the available tools in registration order.
type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		r.Register(t)
	}
	return r
}

func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Definitions renders the registry for the model request.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Execute dispatches one model tool call. An unknown tool name is
// reported back to the model as the result rather than failing the
// exchange.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	t, ok := r.tools[call.Name]
	if !ok {
		return fmt.Sprintf("unknown tool %q", call.Name), nil
	}
	return t.Execute(ctx, json.RawMessage(call.Arguments))
}
