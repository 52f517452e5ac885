package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockModel is a lightweight in-memory Model useful for tests.
// Responses can be scripted in FIFO order with Enqueue, or registered per
// input prompt with AddResponse. Scripted responses win when present.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	queue     []Response
	responses map[string]string

	// Err, when set, fails every Invoke. Simulates transport errors.
	Err error

	// Requests records every request seen, newest last.
	Requests []Request
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider, SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue scripts responses returned in order, ahead of any canned prompts.
func (m *MockModel) Enqueue(resps ...Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resps...)
}

// Invoke implements Model.
func (m *MockModel) Invoke(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return &resp, nil
	}

	var lastUser string
	for _, msg := range req.Messages {
		if msg.Role == RoleUser {
			lastUser = msg.Content
		}
	}
	if canned, ok := m.responses[lastUser]; ok {
		return &Response{Text: canned, StopReason: "stop"}, nil
	}
	return &Response{Text: fmt.Sprintf("Mock response to: %s", lastUser), StopReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
