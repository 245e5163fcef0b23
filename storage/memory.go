// In-memory session storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/richinex/chimera/llm"
)

type memorySession struct {
	meta     Session
	messages []llm.ChatMessage
}

// MemoryStore implements SessionStore using an in-memory map.
// Data is lost when the process terminates.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

// WithClock overrides the clock (for tests).
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Create starts a new session, enforcing the session cap and expiry.
func (s *MemoryStore) Create(ctx context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpired(now)

	// Evict least-recently-active sessions down to the cap.
	for len(s.sessions) >= MaxSessions {
		oldest := ""
		var oldestActivity time.Time
		for id, sess := range s.sessions {
			if oldest == "" || sess.meta.LastActivity.Before(oldestActivity) {
				oldest = id
				oldestActivity = sess.meta.LastActivity
			}
		}
		delete(s.sessions, oldest)
	}

	meta := Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[meta.ID] = &memorySession{meta: meta}
	return meta, nil
}

// Append appends one message, rotating the oldest message out past the cap.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, msg llm.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpired(now)

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %q not found", sessionID)
	}

	sess.messages = append(sess.messages, msg)
	if len(sess.messages) > MaxMessagesPerSession {
		sess.messages = sess.messages[len(sess.messages)-MaxMessagesPerSession:]
	}
	sess.meta.LastActivity = now
	return nil
}

// Messages returns a copy of the session's message log.
// Returns an empty slice for missing or expired sessions.
func (s *MemoryStore) Messages(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || s.now().Sub(sess.meta.LastActivity) >= IdleExpiry {
		return []llm.ChatMessage{}, nil
	}

	copied := make([]llm.ChatMessage, len(sess.messages))
	copy(copied, sess.messages)
	return copied, nil
}

// Sessions lists live sessions, most recently active first.
func (s *MemoryStore) Sessions(ctx context.Context) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpired(s.now())

	sessions := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess.meta)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})
	return sessions, nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// purgeExpired drops sessions idle past IdleExpiry. Caller must hold s.mu.
func (s *MemoryStore) purgeExpired(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.meta.LastActivity) >= IdleExpiry {
			delete(s.sessions, id)
		}
	}
}

// Verify MemoryStore implements SessionStore
var _ SessionStore = (*MemoryStore)(nil)
