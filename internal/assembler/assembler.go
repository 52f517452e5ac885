// Package assembler builds the model request for a chat exchange from
// stored memories, recent conversation turns and the persona preamble.
package assembler

import (
	"context"
	"fmt"
	"strings"

	"github.com/deva-ai/deva/internal/llm"
	"github.com/deva-ai/deva/internal/model"
	"github.com/deva-ai/deva/internal/persona"
	"github.com/deva-ai/deva/internal/store"
)

// Assembler gathers context for one exchange. It is stateless; every
// Build call reads the store fresh.
type Assembler struct {
	store        store.Store
	profile      persona.Profile
	memoryLimit  int
	historyLimit int
}

func New(s store.Store, profile persona.Profile, memoryLimit, historyLimit int) *Assembler {
	return &Assembler{store: s, profile: profile, memoryLimit: memoryLimit, historyLimit: historyLimit}
}

// Build assembles the system preamble and message list for userMessage.
// The caller is expected to have appended the user turn to the
// conversation log already; the recent window therefore carries it as the
// final message. A guard appends it anyway if the window missed it.
func (a *Assembler) Build(ctx context.Context, userMessage string) (llm.Request, error) {
	mems, err := a.store.Memories().Recall(ctx, a.memoryLimit)
	if err != nil {
		return llm.Request{}, fmt.Errorf("recall memories: %w", err)
	}

	turns, err := a.store.Turns().Recent(ctx, a.historyLimit)
	if err != nil {
		return llm.Request{}, fmt.Errorf("load conversation: %w", err)
	}

	msgs := make([]llm.Message, 0, len(turns)+1)
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == model.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Text})
	}
	if !endsWithUserMessage(msgs, userMessage) {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: userMessage})
	}

	return llm.Request{
		System:   persona.System(a.profile, MemoryBlock(mems)),
		Messages: msgs,
	}, nil
}

// MemoryBlock renders recalled memories as one bullet line each,
// most recent first.
func MemoryBlock(mems []*model.MemoryRecord) string {
	var b strings.Builder
	for i, m := range mems {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(m.Title)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

func endsWithUserMessage(msgs []llm.Message, text string) bool {
	if len(msgs) == 0 {
		return false
	}
	last := msgs[len(msgs)-1]
	return last.Role == llm.RoleUser && last.Content == text
}
