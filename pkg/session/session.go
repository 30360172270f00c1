// Package session keeps per-session conversation histories behind an
// explicit store object instead of global process state.
package session

import (
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// History is one session's ordered message list.
type History struct {
	mu       sync.Mutex
	messages []llms.MessageContent
}

// Append adds messages to the end of the history.
func (h *History) Append(msgs ...llms.MessageContent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msgs...)
}

// Messages returns a copy of the history in order.
func (h *History) Messages() []llms.MessageContent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]llms.MessageContent, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages in the history.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Store maps session ids to their histories.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*History
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*History),
	}
}

// Get returns the history for the session id, creating it on first use.
func (s *Store) Get(sessionID string) *History {
	s.mu.RLock()
	h, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.sessions[sessionID]; ok {
		return h
	}
	h = &History{}
	s.sessions[sessionID] = h
	return h
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
