package chat

import "sync"

// Session is the transient per-user state of a conversation: the
// critical section around the log read+append pair and the numbered
// index views built by the list commands. Durable state lives in the
// stores; a fresh Session against the same store resumes the same
// conversation.
type Session struct {
	mu sync.Mutex

	// memoryIndex maps the 1-based display index from the last /list to
	// durable memory identifiers. Nil until /list runs; invalidated when
	// a mutation changes list order.
	memoryIndex []string
}

func NewSession() *Session { return &Session{} }

func (s *Session) setMemoryIndex(ids []string) { s.memoryIndex = ids }

func (s *Session) invalidateMemoryIndex() { s.memoryIndex = nil }

// resolveMemory translates a display index into a durable id. ok is
// false when no mapping exists or the index falls outside it.
func (s *Session) resolveMemory(idx int) (string, bool) {
	if idx < 1 || idx > len(s.memoryIndex) {
		return "", false
	}
	return s.memoryIndex[idx-1], true
}
