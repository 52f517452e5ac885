// Package directive interprets free user text into a structured directive.
//
// Grammar:
//
//	/remember <content>        inline tokens: #tag (repeatable), importance=N
//	/list                      numbered view of stored memories
//	/reminders                 numbered view of scheduled reminders
//	/update <n> <text>         replace content of memory at index n
//	/delete <n>                delete memory at index n
//	remind me to <task> <time> natural-language reminder intent
//
// Anything else is not a directive and flows to the model untouched.
package directive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/deva-ai/deva/internal/model"
)

// Kind discriminates parsed directives.
type Kind int

const (
	KindNone Kind = iota
	KindRemember
	KindListMemories
	KindListReminders
	KindUpdate
	KindDelete
	KindSetReminder
)

// Directive is the structured form of one user instruction. Fields are
// populated per Kind.
type Directive struct {
	Kind       Kind
	Content    string // Remember, Update
	Tags       []string
	Importance int // 0 means unset
	Index      int // Update, Delete (1-based display index)
	Task       string
	RemindAt   time.Time
}

// UserError is a user-input problem: malformed syntax or an unparseable
// time expression. Its message is written for the user, not for logs.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

func userErrorf(format string, args ...any) error {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

var (
	reminderPrefix = regexp.MustCompile(`(?i)^remind me to\s+(.+)$`)
	absoluteTime   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}([ T]\d{2}:\d{2}(:\d{2})?)?`)
	importanceTok  = regexp.MustCompile(`(?i)^importance=(\d+)$`)
)

var nlParser = func() *when.Parser {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return p
}()

// Parse interprets text. Kind is KindNone when the text is plain
// conversation. A returned error is always a *UserError carrying a
// corrective message; no mutation should happen in that case.
func Parse(text string, now time.Time) (Directive, error) {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "/") {
		return parseCommand(trimmed)
	}
	if m := reminderPrefix.FindStringSubmatch(trimmed); m != nil {
		return parseReminder(m[1], now)
	}
	return Directive{Kind: KindNone}, nil
}

func parseCommand(text string) (Directive, error) {
	cmd, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "/remember":
		if rest == "" {
			return Directive{}, userErrorf("tell me what to remember, e.g. /remember I started a new job #work")
		}
		content, tags, importance := ExtractInline(rest)
		if content == "" {
			return Directive{}, userErrorf("that memory had tags but no content — add a few words to keep")
		}
		return Directive{Kind: KindRemember, Content: content, Tags: tags, Importance: importance}, nil

	case "/list":
		return Directive{Kind: KindListMemories}, nil

	case "/reminders":
		return Directive{Kind: KindListReminders}, nil

	case "/update":
		idxStr, content, _ := strings.Cut(rest, " ")
		idx, err := strconv.Atoi(idxStr)
		content = strings.TrimSpace(content)
		if err != nil || idx < 1 || content == "" {
			return Directive{}, userErrorf("usage: /update <number> <new text> — run /list first to see the numbers")
		}
		clean, tags, importance := ExtractInline(content)
		if clean == "" {
			return Directive{}, userErrorf("that update had tags but no content — add a few words to keep")
		}
		return Directive{Kind: KindUpdate, Index: idx, Content: clean, Tags: tags, Importance: importance}, nil

	case "/delete":
		idx, err := strconv.Atoi(rest)
		if err != nil || idx < 1 {
			return Directive{}, userErrorf("usage: /delete <number> — run /list first to see the numbers")
		}
		return Directive{Kind: KindDelete, Index: idx}, nil
	}

	return Directive{}, userErrorf("I don't know that command. Try /remember, /list, /reminders, /update or /delete.")
}

// parseReminder splits "call mom at 2025-08-02 15:30" into the task and a
// concrete due time. Absolute timestamps are tried first, then
// natural-language expressions ("tomorrow at 3pm", "in an hour").
func parseReminder(rest string, now time.Time) (Directive, error) {
	if loc := absoluteTime.FindStringIndex(rest); loc != nil {
		at, err := parseAbsolute(rest[loc[0]:loc[1]], now.Location())
		if err == nil {
			task := trimConnector(rest[:loc[0]] + rest[loc[1]:])
			if task == "" {
				return Directive{}, userErrorf("what should I remind you about?")
			}
			return Directive{Kind: KindSetReminder, Task: task, RemindAt: at}, nil
		}
	}

	r, err := nlParser.Parse(rest, now)
	if err != nil || r == nil {
		return Directive{}, userErrorf("I couldn't work out when to remind you — try something like \"remind me to call mom at 2025-08-02 15:30\" or \"in an hour\"")
	}
	task := trimConnector(rest[:r.Index] + rest[r.Index+len(r.Text):])
	if task == "" {
		return Directive{}, userErrorf("what should I remind you about?")
	}
	return Directive{Kind: KindSetReminder, Task: task, RemindAt: r.Time}, nil
}

func parseAbsolute(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matched %q", s)
}

// ExtractInline strips #tag and importance=N tokens from content and
// returns them as structured fields. Importance 0 means the token was
// absent.
func ExtractInline(content string) (string, []string, int) {
	var (
		kept       []string
		tags       []string
		importance int
	)
	for _, tok := range strings.Fields(content) {
		switch {
		case len(tok) > 1 && strings.HasPrefix(tok, "#"):
			tags = append(tags, strings.TrimPrefix(tok, "#"))
		case importanceTok.MatchString(tok):
			n, _ := strconv.Atoi(importanceTok.FindStringSubmatch(tok)[1])
			importance = model.ClampImportance(n)
		default:
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " "), tags, importance
}

func trimConnector(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), " ,.")
	lower := strings.ToLower(s)
	for _, conn := range []string{"at", "on", "in", "by"} {
		if lower == conn {
			return ""
		}
		if strings.HasSuffix(lower, " "+conn) {
			return strings.TrimSpace(s[:len(s)-len(conn)-1])
		}
	}
	return s
}
