// Package chat runs one exchange end to end: log the user turn, try the
// deterministic directive path, otherwise assemble context and drive the
// model with its tools, then log and return the reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deva-ai/deva/internal/assembler"
	"github.com/deva-ai/deva/internal/directive"
	"github.com/deva-ai/deva/internal/llm"
	"github.com/deva-ai/deva/internal/metrics"
	"github.com/deva-ai/deva/internal/model"
	"github.com/deva-ai/deva/internal/store"
	"github.com/deva-ai/deva/internal/suggest"
	"github.com/deva-ai/deva/internal/tools"
)

// warnPrefix marks user-facing corrective messages apart from normal
// replies.
const warnPrefix = "⚠ "

// Orchestrator processes exchanges. All collaborators are injected; it
// keeps no state of its own between exchanges.
type Orchestrator struct {
	store     store.Store
	model     llm.Model
	asm       *assembler.Assembler
	registry  *tools.Registry
	suggester *suggest.Suggester
	metrics   *metrics.Metrics
	log       zerolog.Logger

	modelTimeout  time.Duration
	maxToolRounds int
	now           func() time.Time
}

type Options struct {
	Store         store.Store
	Model         llm.Model
	Assembler     *assembler.Assembler
	Registry      *tools.Registry
	Suggester     *suggest.Suggester
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
	ModelTimeout  time.Duration
	MaxToolRounds int
}

func New(opts Options) *Orchestrator {
	if opts.ModelTimeout <= 0 {
		opts.ModelTimeout = 60 * time.Second
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = 4
	}
	return &Orchestrator{
		store:         opts.Store,
		model:         opts.Model,
		asm:           opts.Assembler,
		registry:      opts.Registry,
		suggester:     opts.Suggester,
		metrics:       opts.Metrics,
		log:           opts.Logger,
		modelTimeout:  opts.ModelTimeout,
		maxToolRounds: opts.MaxToolRounds,
		now:           time.Now,
	}
}

// Exchange runs the full state machine for one user message and returns
// the reply. A non-nil error means the exchange failed and no assistant
// turn was logged; user-input problems are not errors, they come back as
// corrective replies.
func (o *Orchestrator) Exchange(ctx context.Context, sess *Session, text string) (string, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return warnPrefix + "say something and I'll answer.", nil
	}

	if _, err := o.store.Turns().Append(ctx, model.RoleUser, text); err != nil {
		o.count(metrics.OutcomeFailure)
		return "", fmt.Errorf("append user turn: %w", err)
	}

	reply, err := o.respond(ctx, sess, text)
	if err != nil {
		o.count(metrics.OutcomeFailure)
		return "", err
	}

	if _, err := o.store.Turns().Append(ctx, model.RoleAssistant, reply); err != nil {
		o.count(metrics.OutcomeFailure)
		return "", fmt.Errorf("append assistant turn: %w", err)
	}

	if strings.HasPrefix(reply, warnPrefix) {
		o.count(metrics.OutcomeUserError)
	} else {
		o.count(metrics.OutcomeOK)
	}
	return reply, nil
}

func (o *Orchestrator) respond(ctx context.Context, sess *Session, text string) (string, error) {
	d, err := directive.Parse(text, o.now())
	if err != nil {
		var ue *directive.UserError
		if errors.As(err, &ue) {
			return warnPrefix + ue.Msg, nil
		}
		return "", err
	}
	if d.Kind != directive.KindNone {
		return o.handleDirective(ctx, sess, d)
	}
	return o.converse(ctx, text)
}

// handleDirective owns the reply for explicit commands; the model never
// sees these turns.
func (o *Orchestrator) handleDirective(ctx context.Context, sess *Session, d directive.Directive) (string, error) {
	switch d.Kind {
	case directive.KindRemember:
		return o.remember(ctx, d)
	case directive.KindListMemories:
		return o.listMemories(ctx, sess)
	case directive.KindListReminders:
		return o.listReminders(ctx)
	case directive.KindUpdate:
		return o.updateMemory(ctx, sess, d)
	case directive.KindDelete:
		return o.deleteMemory(ctx, sess, d)
	case directive.KindSetReminder:
		return o.setReminder(ctx, d)
	}
	return "", fmt.Errorf("unhandled directive kind %d", d.Kind)
}

func (o *Orchestrator) remember(ctx context.Context, d directive.Directive) (string, error) {
	title := suggest.FallbackTitle(d.Content)
	tags := d.Tags
	if o.suggester != nil {
		var suggested []string
		title, suggested = o.suggester.Suggest(ctx, d.Content)
		if len(tags) == 0 {
			tags = suggested
		}
	}

	rec := &model.MemoryRecord{Title: title, Content: d.Content, Tags: tags}
	if d.Importance > 0 {
		rec.Importance = d.Importance
	}
	saved, err := o.store.Memories().Create(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("save memory: %w", err)
	}
	return fmt.Sprintf("Got it, I'll remember that as %q.", saved.Title), nil
}

func (o *Orchestrator) listMemories(ctx context.Context, sess *Session) (string, error) {
	mems, err := o.store.Memories().List(ctx)
	if err != nil {
		return "", fmt.Errorf("list memories: %w", err)
	}
	if len(mems) == 0 {
		sess.setMemoryIndex(nil)
		return "I haven't saved any memories yet. Tell me something with /remember.", nil
	}

	ids := make([]string, len(mems))
	var b strings.Builder
	b.WriteString("Here's what I remember:\n")
	for i, m := range mems {
		ids[i] = m.ID
		fmt.Fprintf(&b, "%d. %s — %s", i+1, m.Title, m.Content)
		if len(m.Tags) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(m.Tags, ", "))
		}
		if m.Importance > 1 {
			fmt.Fprintf(&b, " (importance %d)", m.Importance)
		}
		b.WriteByte('\n')
	}
	sess.setMemoryIndex(ids)
	return strings.TrimRight(b.String(), "\n"), nil
}

func (o *Orchestrator) listReminders(ctx context.Context) (string, error) {
	rems, err := o.store.Reminders().List(ctx, true)
	if err != nil {
		return "", fmt.Errorf("list reminders: %w", err)
	}
	if len(rems) == 0 {
		return "No reminders scheduled. Try \"remind me to ...\".", nil
	}

	var b strings.Builder
	b.WriteString("Your reminders:\n")
	for i, r := range rems {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, r.RemindAt.Format("2006-01-02 15:04"), r.Task)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (o *Orchestrator) updateMemory(ctx context.Context, sess *Session, d directive.Directive) (string, error) {
	id, ok := sess.resolveMemory(d.Index)
	if !ok {
		return warnPrefix + "that number isn't on the current list. Run /list and try again.", nil
	}

	req := model.UpdateMemoryRequest{Content: &d.Content}
	if len(d.Tags) > 0 {
		req.Tags = d.Tags
	}
	if d.Importance > 0 {
		imp := d.Importance
		req.Importance = &imp
	}
	title := suggest.FallbackTitle(d.Content)
	if o.suggester != nil {
		title, _ = o.suggester.Suggest(ctx, d.Content)
	}
	req.Title = &title

	updated, err := o.store.Memories().Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			sess.invalidateMemoryIndex()
			return warnPrefix + "that memory is gone. Run /list for a fresh view.", nil
		}
		return "", fmt.Errorf("update memory: %w", err)
	}
	return fmt.Sprintf("Updated %d to %q.", d.Index, updated.Title), nil
}

func (o *Orchestrator) deleteMemory(ctx context.Context, sess *Session, d directive.Directive) (string, error) {
	id, ok := sess.resolveMemory(d.Index)
	if !ok {
		return warnPrefix + "that number isn't on the current list. Run /list and try again.", nil
	}
	if err := o.store.Memories().Delete(ctx, id); err != nil {
		return "", fmt.Errorf("delete memory: %w", err)
	}
	// List order shifted; stale indexes must not resolve.
	sess.invalidateMemoryIndex()
	return fmt.Sprintf("Deleted memory %d.", d.Index), nil
}

func (o *Orchestrator) setReminder(ctx context.Context, d directive.Directive) (string, error) {
	saved, err := o.store.Reminders().Schedule(ctx, &model.Reminder{Task: d.Task, RemindAt: d.RemindAt})
	if err != nil {
		return "", fmt.Errorf("schedule reminder: %w", err)
	}
	return fmt.Sprintf("Okay, I'll remind you to %s at %s.", saved.Task, saved.RemindAt.Format("2006-01-02 15:04")), nil
}

// converse drives the model, letting it call tools for up to
// maxToolRounds rounds before it must answer in text.
func (o *Orchestrator) converse(ctx context.Context, text string) (string, error) {
	req, err := o.asm.Build(ctx, text)
	if err != nil {
		return "", err
	}
	if o.registry != nil {
		req.Tools = o.registry.Definitions()
	}

	for round := 0; ; round++ {
		resp, err := o.invoke(ctx, req)
		if err != nil {
			return "", fmt.Errorf("model call: %w", err)
		}

		if len(resp.ToolCalls) == 0 || round >= o.maxToolRounds {
			if strings.TrimSpace(resp.Text) == "" {
				return "", fmt.Errorf("model returned an empty reply")
			}
			return resp.Text, nil
		}

		req.Messages = append(req.Messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			if o.metrics != nil {
				o.metrics.ToolInvocations.WithLabelValues(call.Name).Inc()
			}
			result, err := o.registry.Execute(ctx, call)
			if err != nil {
				return "", fmt.Errorf("tool %s: %w", call.Name, err)
			}
			o.log.Debug().Str("tool", call.Name).Str("result", result).Msg("tool executed")
			req.Messages = append(req.Messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}
}

func (o *Orchestrator) invoke(ctx context.Context, req llm.Request) (*llm.Response, error) {
	cctx, cancel := context.WithTimeout(ctx, o.modelTimeout)
	defer cancel()

	resp, err := o.model.Invoke(cctx, req)
	if err != nil && o.metrics != nil {
		o.metrics.ModelFailures.Inc()
	}
	return resp, err
}

func (o *Orchestrator) count(outcome string) {
	if o.metrics != nil {
		o.metrics.Exchanges.WithLabelValues(outcome).Inc()
	}
}
