package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/deva-ai/deva/internal/model"
	"github.com/deva-ai/deva/internal/store"
)

// SetReminder schedules a task from a model tool call. The argument is a
// single "task | YYYY-MM-DD HH:MM" string so a small model can produce
// it reliably.
type SetReminder struct {
	reminders store.Reminders
	now       func() time.Time
}

func NewSetReminder(r store.Reminders) *SetReminder {
	return &SetReminder{reminders: r, now: time.Now}
}

func (t *SetReminder) Name() string { return "set_reminder" }

func (t *SetReminder) Description() string {
	return "Schedule a reminder for the user. The reminder argument must be the task and the due time separated by a pipe, e.g. \"call mom | 2025-08-02 15:30\"."
}

func (t *SetReminder) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reminder": map[string]any{
				"type":        "string",
				"description": "Task and due time separated by |, time as YYYY-MM-DD HH:MM.",
			},
		},
		"required": []string{"reminder"},
	}
}

func (t *SetReminder) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Reminder string `json:"reminder"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("set_reminder arguments: %w", err)
	}

	task, spec, ok := strings.Cut(in.Reminder, "|")
	task = strings.TrimSpace(task)
	spec = strings.TrimSpace(spec)
	if !ok || task == "" || spec == "" {
		return `could not schedule: expected "task | YYYY-MM-DD HH:MM"`, nil
	}

	at, err := parseDue(spec, t.now().Location())
	if err != nil {
		return fmt.Sprintf("could not schedule: %q is not a time I understand, use YYYY-MM-DD HH:MM", spec), nil
	}

	saved, err := t.reminders.Schedule(ctx, &model.Reminder{Task: task, RemindAt: at})
	if err != nil {
		return "", fmt.Errorf("schedule reminder: %w", err)
	}
	return fmt.Sprintf("reminder %s set for %s: %s", saved.ID, at.Format("2006-01-02 15:04"), task), nil
}

func parseDue(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		time.RFC3339,
		"2006-01-02",
	} {
		if at, err := time.ParseInLocation(layout, s, loc); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matched %q", s)
}
