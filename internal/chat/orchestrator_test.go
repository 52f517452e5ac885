package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deva-ai/deva/internal/assembler"
	"github.com/deva-ai/deva/internal/llm"
	"github.com/deva-ai/deva/internal/metrics"
	"github.com/deva-ai/deva/internal/model"
	"github.com/deva-ai/deva/internal/persona"
	"github.com/deva-ai/deva/internal/store"
	"github.com/deva-ai/deva/internal/store/sqlite"
	"github.com/deva-ai/deva/internal/suggest"
	"github.com/deva-ai/deva/internal/tools"
)

type fixture struct {
	store store.Store
	model *llm.MockModel
	orch  *Orchestrator
	sess  *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := sqlite.NewWithDB(db)
	require.NoError(t, s.EnsureSchema(context.Background()))

	m := llm.NewMockModel("mock", "test")
	reg := tools.NewRegistry(
		tools.NewSaveMemory(s.Memories(), nil),
		tools.NewSetReminder(s.Reminders()),
	)
	orch := New(Options{
		Store:         s,
		Model:         m,
		Assembler:     assembler.New(s, persona.Profile{Name: "Sam"}, 10, 20),
		Registry:      reg,
		Metrics:       metrics.New(),
		Logger:        zerolog.Nop(),
		ModelTimeout:  5 * time.Second,
		MaxToolRounds: 4,
	})
	return &fixture{store: s, model: m, orch: orch, sess: NewSession()}
}

func TestExchangePlainConversation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.model.Enqueue(llm.Response{Text: "Hi Sam! Lovely to hear from you."})

	reply, err := f.orch.Exchange(ctx, f.sess, "hello!")
	require.NoError(t, err)
	assert.Equal(t, "Hi Sam! Lovely to hear from you.", reply)

	// Both turns logged, oldest-first.
	turns, err := f.store.Turns().Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "hello!", turns[0].Text)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Hi Sam! Lovely to hear from you.", turns[1].Text)
}

func TestExchangeModelSeesMemoriesAndHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.store.Memories().Create(ctx, &model.MemoryRecord{Title: "Running", Content: "trains for a 10k"})
	require.NoError(t, err)

	f.model.Enqueue(llm.Response{Text: "Your 10k training is on track!"})
	_, err = f.orch.Exchange(ctx, f.sess, "how is my training going?")
	require.NoError(t, err)

	require.Len(t, f.model.Requests, 1)
	req := f.model.Requests[0]
	assert.Contains(t, req.System, "Running: trains for a 10k")
	require.NotEmpty(t, req.Messages)
	assert.Equal(t, "how is my training going?", req.Messages[len(req.Messages)-1].Content)
	assert.Len(t, req.Tools, 2)
}

// stallingModel hangs until the context is cancelled, like a dead provider.
type stallingModel struct{}

func (s *stallingModel) Invoke(ctx context.Context, req llm.Request) (*llm.Response, error) {
	select {
	case <-time.After(10 * time.Second):
		return &llm.Response{Text: "too late"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *stallingModel) Info() llm.Info { return llm.Info{Name: "stalling", Provider: "test"} }

func TestExchangeRememberFallsBackWhenSuggestionStalls(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.orch.suggester = suggest.New(&stallingModel{}, zerolog.Nop(), 20*time.Millisecond)

	start := time.Now()
	reply, err := f.orch.Exchange(ctx, f.sess, "/remember I started a new job")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "stalled suggestion call must not hang the exchange")
	assert.Contains(t, reply, "I started a new job")

	mems, err := f.store.Memories().List(ctx)
	require.NoError(t, err)
	require.Len(t, mems, 1)
	assert.Equal(t, "I started a new job", mems[0].Title, "fallback title is the content")
}

func TestExchangeRememberBypassesModel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reply, err := f.orch.Exchange(ctx, f.sess, "/remember Finished the 10k race #fitness #milestone importance=5")
	require.NoError(t, err)
	assert.Contains(t, reply, "remember")
	assert.Empty(t, f.model.Requests, "explicit commands must not reach the model")

	mems, err := f.store.Memories().List(ctx)
	require.NoError(t, err)
	require.Len(t, mems, 1)
	assert.Equal(t, "Finished the 10k race", mems[0].Content)
	assert.Equal(t, []string{"fitness", "milestone"}, mems[0].Tags)
	assert.Equal(t, 5, mems[0].Importance)
}

func TestExchangeListThenDeleteByIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.orch.Exchange(ctx, f.sess, "/remember memory A")
	require.NoError(t, err)
	_, err = f.orch.Exchange(ctx, f.sess, "/remember memory B")
	require.NoError(t, err)

	reply, err := f.orch.Exchange(ctx, f.sess, "/list")
	require.NoError(t, err)
	lines := strings.Split(reply, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[1], "1. memory B", "newest first")
	assert.Contains(t, lines[2], "2. memory A")

	reply, err = f.orch.Exchange(ctx, f.sess, "/delete 1")
	require.NoError(t, err)
	assert.Contains(t, reply, "Deleted")

	mems, err := f.store.Memories().List(ctx)
	require.NoError(t, err)
	require.Len(t, mems, 1)
	assert.Equal(t, "memory A", mems[0].Content)
}

func TestExchangeDeleteWithoutListIsUserError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reply, err := f.orch.Exchange(ctx, f.sess, "/delete 1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "⚠ "))
	assert.Contains(t, reply, "/list")
}

func TestExchangeStaleIndexAfterDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.orch.Exchange(ctx, f.sess, "/remember memory A")
	require.NoError(t, err)
	_, err = f.orch.Exchange(ctx, f.sess, "/list")
	require.NoError(t, err)
	_, err = f.orch.Exchange(ctx, f.sess, "/delete 1")
	require.NoError(t, err)

	// The old mapping is gone after a delete; indexes must not resolve
	// against the stale view.
	reply, err := f.orch.Exchange(ctx, f.sess, "/delete 1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "⚠ "))
}

func TestExchangeUpdateByIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.orch.Exchange(ctx, f.sess, "/remember drinks two coffees a day")
	require.NoError(t, err)
	_, err = f.orch.Exchange(ctx, f.sess, "/list")
	require.NoError(t, err)

	reply, err := f.orch.Exchange(ctx, f.sess, "/update 1 switched to one coffee a day")
	require.NoError(t, err)
	assert.Contains(t, reply, "Updated")

	mems, err := f.store.Memories().List(ctx)
	require.NoError(t, err)
	require.Len(t, mems, 1)
	assert.Equal(t, "switched to one coffee a day", mems[0].Content)
}

func TestExchangeReminderNaturalLanguage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reply, err := f.orch.Exchange(ctx, f.sess, "remind me to call mom at 2025-08-02 15:30")
	require.NoError(t, err)
	assert.Contains(t, reply, "call mom")
	assert.Contains(t, reply, "2025-08-02 15:30")

	rems, err := f.store.Reminders().List(ctx, true)
	require.NoError(t, err)
	require.Len(t, rems, 1)
	assert.Equal(t, "call mom", rems[0].Task)
}

func TestExchangeReminderUnparseableTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reply, err := f.orch.Exchange(ctx, f.sess, "remind me to water the plants whenever")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "⚠ "))

	rems, err := f.store.Reminders().List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, rems, "failed parse must not create a reminder")
}

func TestExchangeRemindersShowsPendingOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.store.Reminders().Schedule(ctx, &model.Reminder{
		Task: "call mom", RemindAt: time.Date(2025, 8, 2, 15, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = f.store.Reminders().Schedule(ctx, &model.Reminder{
		Task: "stretch", RemindAt: time.Date(2025, 8, 3, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, f.store.Reminders().Complete(ctx, first.ID))

	reply, err := f.orch.Exchange(ctx, f.sess, "/reminders")
	require.NoError(t, err)
	assert.Contains(t, reply, "stretch")
	assert.NotContains(t, reply, "call mom", "completed reminders stay out of the pending view")
}

func TestExchangeModelToolCallLoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.model.Enqueue(
		llm.Response{
			ToolCalls: []llm.ToolCall{{
				ID:        "call_1",
				Name:      "set_reminder",
				Arguments: `{"reminder": "stretch | 2025-08-02 09:00"}`,
			}},
			StopReason: "tool_use",
		},
		llm.Response{Text: "Done! I'll remind you to stretch tomorrow morning."},
	)

	reply, err := f.orch.Exchange(ctx, f.sess, "hey, could you make sure I stretch tomorrow morning?")
	require.NoError(t, err)
	assert.Contains(t, reply, "stretch")

	rems, err := f.store.Reminders().List(ctx, true)
	require.NoError(t, err)
	require.Len(t, rems, 1)
	assert.Equal(t, "stretch", rems[0].Task)

	// Second request carries the tool result back to the model.
	require.Len(t, f.model.Requests, 2)
	second := f.model.Requests[1]
	last := second.Messages[len(second.Messages)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
}

func TestExchangeModelFailureFailsExchange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.model.Err = errors.New("upstream 500")

	_, err := f.orch.Exchange(ctx, f.sess, "hello?")
	require.Error(t, err)

	// No assistant turn is logged for a failed exchange.
	turns, err := f.store.Turns().Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, model.RoleUser, turns[0].Role)
}

func TestExchangeEmptyListReply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reply, err := f.orch.Exchange(ctx, f.sess, "/list")
	require.NoError(t, err)
	assert.Contains(t, reply, "/remember")
}
