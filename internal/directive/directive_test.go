package directive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

func TestParsePlainTextIsNotADirective(t *testing.T) {
	d, err := Parse("how are you doing today?", now)
	require.NoError(t, err)
	assert.Equal(t, KindNone, d.Kind)
}

func TestParseRememberStripsInlineTokens(t *testing.T) {
	d, err := Parse("/remember Finished the 10k race #fitness #milestone importance=5", now)
	require.NoError(t, err)

	assert.Equal(t, KindRemember, d.Kind)
	assert.Equal(t, "Finished the 10k race", d.Content)
	assert.Equal(t, []string{"fitness", "milestone"}, d.Tags)
	assert.Equal(t, 5, d.Importance)
}

func TestParseRememberClampsImportance(t *testing.T) {
	d, err := Parse("/remember big news importance=99", now)
	require.NoError(t, err)
	assert.Equal(t, 5, d.Importance)
}

func TestParseRememberEmpty(t *testing.T) {
	_, err := Parse("/remember", now)
	var ue *UserError
	require.ErrorAs(t, err, &ue)

	_, err = Parse("/remember #onlytags", now)
	require.ErrorAs(t, err, &ue)
}

func TestParseListCommands(t *testing.T) {
	d, err := Parse("/list", now)
	require.NoError(t, err)
	assert.Equal(t, KindListMemories, d.Kind)

	d, err = Parse("/reminders", now)
	require.NoError(t, err)
	assert.Equal(t, KindListReminders, d.Kind)
}

func TestParseUpdate(t *testing.T) {
	d, err := Parse("/update 2 switched to morning workouts #fitness", now)
	require.NoError(t, err)

	assert.Equal(t, KindUpdate, d.Kind)
	assert.Equal(t, 2, d.Index)
	assert.Equal(t, "switched to morning workouts", d.Content)
	assert.Equal(t, []string{"fitness"}, d.Tags)
}

func TestParseUpdateMalformed(t *testing.T) {
	var ue *UserError
	for _, in := range []string{"/update", "/update two new text", "/update 0 text", "/update 3"} {
		_, err := Parse(in, now)
		assert.ErrorAs(t, err, &ue, "input %q", in)
	}
}

func TestParseUpdateTagsOnly(t *testing.T) {
	// Same rule as /remember: inline tokens alone leave nothing to store.
	_, err := Parse("/update 1 #fitness", now)
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Msg, "no content")
}

func TestParseDelete(t *testing.T) {
	d, err := Parse("/delete 1", now)
	require.NoError(t, err)
	assert.Equal(t, KindDelete, d.Kind)
	assert.Equal(t, 1, d.Index)

	var ue *UserError
	_, err = Parse("/delete first", now)
	assert.ErrorAs(t, err, &ue)
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/frobnicate", now)
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Msg, "/remember")
}

func TestParseReminderAbsoluteTimestamp(t *testing.T) {
	d, err := Parse("remind me to call mom at 2025-08-02 15:30", now)
	require.NoError(t, err)

	assert.Equal(t, KindSetReminder, d.Kind)
	assert.Equal(t, "call mom", d.Task)
	assert.Equal(t, time.Date(2025, 8, 2, 15, 30, 0, 0, time.UTC), d.RemindAt)
}

func TestParseReminderNaturalLanguage(t *testing.T) {
	d, err := Parse("remind me to stretch in an hour", now)
	require.NoError(t, err)

	assert.Equal(t, KindSetReminder, d.Kind)
	assert.Equal(t, "stretch", d.Task)
	assert.WithinDuration(t, now.Add(time.Hour), d.RemindAt, 2*time.Minute)
}

func TestParseReminderUnparseableTime(t *testing.T) {
	_, err := Parse("remind me to water the plants whenever", now)
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Msg, "when")
}

func TestParseReminderMissingTask(t *testing.T) {
	_, err := Parse("remind me to at 2025-08-02 15:30", now)
	var ue *UserError
	require.ErrorAs(t, err, &ue)
}
