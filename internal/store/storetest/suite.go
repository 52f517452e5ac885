package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deva-ai/deva/internal/model"
	"github.com/deva-ai/deva/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("MemoryRecallWindow", func(t *testing.T) { testRecallWindow(t, makeStore(t)) })
	t.Run("MemoryRoundTrip", func(t *testing.T) { testMemoryRoundTrip(t, makeStore(t)) })
	t.Run("MemoryUpdate", func(t *testing.T) { testMemoryUpdate(t, makeStore(t)) })
	t.Run("MemoryDelete", func(t *testing.T) { testMemoryDelete(t, makeStore(t)) })
	t.Run("Reminders", func(t *testing.T) { testReminders(t, makeStore(t)) })
	t.Run("ConversationLog", func(t *testing.T) { testConversationLog(t, makeStore(t)) })
}

func testRecallWindow(t *testing.T, s store.Store) {
	ctx := context.Background()

	titles := []string{"first", "second", "third", "fourth"}
	for _, title := range titles {
		_, err := s.Memories().Create(ctx, &model.MemoryRecord{Title: title, Content: "c-" + title})
		require.NoError(t, err)
	}

	// recall(limit) returns exactly min(limit, count) records, most-recent-first
	got, err := s.Memories().Recall(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fourth", got[0].Title)
	assert.Equal(t, "third", got[1].Title)

	got, err = s.Memories().Recall(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "fourth", got[0].Title)
	assert.Equal(t, "first", got[3].Title)

	all, err := s.Memories().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "fourth", all[0].Title)
}

func testMemoryRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.Memories().Create(ctx, &model.MemoryRecord{
		Title:      "Race day",
		Content:    "Finished the 10k race",
		Tags:       []string{"fitness", "food"},
		Importance: 4,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, model.DefaultMemoryType, created.Type)
	assert.False(t, created.CreatedAt.IsZero())

	all, err := s.Memories().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.ElementsMatch(t, []string{"fitness", "food"}, all[0].Tags)
	assert.Equal(t, 4, all[0].Importance)
	assert.Equal(t, "Finished the 10k race", all[0].Content)

	got, err := s.Memories().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = s.Memories().Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testMemoryUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.Memories().Create(ctx, &model.MemoryRecord{
		Title:      "groceries",
		Content:    "buy oat milk",
		Tags:       []string{"food"},
		Importance: 2,
	})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond) // ensure a later updated_at tick

	newContent := "buy oat milk and bananas"
	updated, err := s.Memories().Update(ctx, created.ID, model.UpdateMemoryRequest{Content: &newContent})
	require.NoError(t, err)

	// updated_at strictly increases, unspecified fields unchanged
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, newContent, updated.Content)
	assert.Equal(t, "groceries", updated.Title)
	assert.Equal(t, []string{"food"}, updated.Tags)
	assert.Equal(t, 2, updated.Importance)

	time.Sleep(5 * time.Millisecond)

	imp := 9
	updated2, err := s.Memories().Update(ctx, created.ID, model.UpdateMemoryRequest{Importance: &imp})
	require.NoError(t, err)
	assert.Equal(t, 5, updated2.Importance, "importance clamped to 1..5")
	assert.True(t, updated2.UpdatedAt.After(updated.UpdatedAt))

	_, err = s.Memories().Update(ctx, "00000000-0000-0000-0000-000000000000", model.UpdateMemoryRequest{Content: &newContent})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testMemoryDelete(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.Memories().Create(ctx, &model.MemoryRecord{Title: "ephemeral", Content: "gone soon"})
	require.NoError(t, err)

	require.NoError(t, s.Memories().Delete(ctx, created.ID))

	// the id never comes back
	all, err := s.Memories().List(ctx)
	require.NoError(t, err)
	for _, rec := range all {
		assert.NotEqual(t, created.ID, rec.ID)
	}
	_, err = s.Memories().Get(ctx, created.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// delete is idempotent: second call succeeds
	assert.NoError(t, s.Memories().Delete(ctx, created.ID))
}

func testReminders(t *testing.T, s store.Store) {
	ctx := context.Background()

	later := time.Date(2025, 8, 2, 15, 30, 0, 0, time.UTC)
	sooner := later.Add(-24 * time.Hour)

	r1, err := s.Reminders().Schedule(ctx, &model.Reminder{Task: "call mom", RemindAt: later})
	require.NoError(t, err)
	require.NotEmpty(t, r1.ID)
	assert.False(t, r1.Completed)

	_, err = s.Reminders().Schedule(ctx, &model.Reminder{Task: "water plants", RemindAt: sooner})
	require.NoError(t, err)

	_, err = s.Reminders().Schedule(ctx, &model.Reminder{Task: "no time"})
	assert.ErrorIs(t, err, model.ErrValidation)

	// remind_at ascending
	all, err := s.Reminders().List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "water plants", all[0].Task)
	assert.Equal(t, "call mom", all[1].Task)
	assert.True(t, all[0].RemindAt.Equal(sooner))

	require.NoError(t, s.Reminders().Complete(ctx, r1.ID))
	pending, err := s.Reminders().List(ctx, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "water plants", pending[0].Task)

	assert.ErrorIs(t, s.Reminders().Complete(ctx, "00000000-0000-0000-0000-000000000000"), model.ErrNotFound)

	require.NoError(t, s.Reminders().Delete(ctx, r1.ID))
	require.NoError(t, s.Reminders().Delete(ctx, r1.ID)) // idempotent
}

func testConversationLog(t *testing.T, s store.Store) {
	ctx := context.Background()

	texts := []string{"hi", "hello there", "how are you?", "doing well"}
	for i, text := range texts {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		_, err := s.Turns().Append(ctx, role, text)
		require.NoError(t, err)
	}

	// recent(limit) keeps the most recent entries, oldest-first
	recent, err := s.Turns().Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "how are you?", recent[0].Text)
	assert.Equal(t, "doing well", recent[1].Text)
	assert.Equal(t, model.RoleUser, recent[0].Role)
	assert.Equal(t, model.RoleAssistant, recent[1].Role)

	recent, err = s.Turns().Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	assert.Equal(t, "hi", recent[0].Text)
	for i := 1; i < len(recent); i++ {
		assert.Less(t, recent[i-1].Seq, recent[i].Seq)
	}
}
