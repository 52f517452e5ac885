// Package suggest asks the model for a short title and a few tags for a
// piece of memory content. It never fails: any model or parse problem
// falls back to a truncated title and no tags.
package suggest

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/deva-ai/deva/internal/llm"
)

const (
	maxTitleLen    = 50
	defaultTimeout = 60 * time.Second
)

const prompt = `Given this note, reply with JSON only, no prose:
{"title": "<short title, a few words>", "tags": ["<2-4 lowercase tags>"]}

Note: `

// Suggester enriches memory content with a title and tags.
type Suggester struct {
	model   llm.Model
	log     zerolog.Logger
	timeout time.Duration
}

func New(m llm.Model, log zerolog.Logger, timeout time.Duration) *Suggester {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Suggester{model: m, log: log, timeout: timeout}
}

// Suggest returns a title and tags for content. On any failure the title
// is the content truncated to a readable length and tags are empty. The
// model call is bounded by the configured timeout so a hung provider
// degrades to the fallback instead of stalling the exchange.
func (s *Suggester) Suggest(ctx context.Context, content string) (string, []string) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.model.Invoke(cctx, llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt + content}},
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("title suggestion failed, using fallback")
		return FallbackTitle(content), nil
	}

	var parsed struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}
	raw := stripFences(resp.Text)
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || strings.TrimSpace(parsed.Title) == "" {
		s.log.Debug().Str("raw", resp.Text).Msg("unparseable title suggestion, using fallback")
		return FallbackTitle(content), nil
	}

	tags := parsed.Tags
	if len(tags) > 4 {
		tags = tags[:4]
	}
	return strings.TrimSpace(parsed.Title), tags
}

// FallbackTitle truncates content to a short title.
func FallbackTitle(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= maxTitleLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:maxTitleLen])
}

// stripFences removes a surrounding markdown code fence if the model
// wrapped its JSON in one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
