package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deva-ai/deva/internal/directive"
	"github.com/deva-ai/deva/internal/model"
	"github.com/deva-ai/deva/internal/store"
	"github.com/deva-ai/deva/internal/suggest"
)

// SaveMemory persists a fact the model decided is worth keeping. The
// title and tags come from inline tokens when present, otherwise from
// the suggestion enricher.
type SaveMemory struct {
	memories  store.Memories
	suggester *suggest.Suggester
}

func NewSaveMemory(m store.Memories, s *suggest.Suggester) *SaveMemory {
	return &SaveMemory{memories: m, suggester: s}
}

func (t *SaveMemory) Name() string { return "save_memory" }

func (t *SaveMemory) Description() string {
	return "Store an important fact about the user so it can be recalled in later conversations. Use when the user shares something worth remembering."
}

func (t *SaveMemory) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"information": map[string]any{
				"type":        "string",
				"description": "The fact to remember, in one or two sentences.",
			},
		},
		"required": []string{"information"},
	}
}

func (t *SaveMemory) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Information string `json:"information"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("save_memory arguments: %w", err)
	}
	info := strings.TrimSpace(in.Information)
	if info == "" {
		return "nothing to save: information was empty", nil
	}

	content, tags, importance := directive.ExtractInline(info)
	if content == "" {
		content = info
	}

	title := suggest.FallbackTitle(content)
	if t.suggester != nil {
		var suggested []string
		title, suggested = t.suggester.Suggest(ctx, content)
		if len(tags) == 0 {
			tags = suggested
		}
	}

	rec := &model.MemoryRecord{Title: title, Content: content, Tags: tags}
	if importance > 0 {
		rec.Importance = importance
	}
	saved, err := t.memories.Create(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("save memory: %w", err)
	}
	return fmt.Sprintf("saved memory %s: %s", saved.ID, saved.Title), nil
}
