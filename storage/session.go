// Package storage provides session/history storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Rotation and expiry policy enforced identically by every backend

package storage

import (
	"context"
	"time"

	"github.com/richinex/chimera/llm"
)

const (
	// MaxSessions is the number of sessions that persist concurrently.
	// Creating a session beyond this evicts the least-recently-active one.
	MaxSessions = 5
	// MaxMessagesPerSession caps each session's message log; the oldest
	// messages rotate out when the cap is exceeded.
	MaxMessagesPerSession = 100
	// IdleExpiry purges sessions with no activity for this long.
	IdleExpiry = 24 * time.Hour
)

// Session is one chat session's metadata. The message log is owned by
// the store; the orchestration core only reads the active session's
// messages for context and appends completed turns.
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time
}

// SessionStore defines the interface for per-session message logs.
// Implementations enforce the rotation/expiry policy above.
type SessionStore interface {
	// Create starts a new session, purging expired sessions and evicting
	// the least-recently-active one if the session cap is reached.
	Create(ctx context.Context) (Session, error)

	// Append appends one message to a session's log, rotating out the
	// oldest message past the cap. Updates the session's activity time.
	Append(ctx context.Context, sessionID string, msg llm.ChatMessage) error

	// Messages returns a session's ordered message log. Returns an empty
	// slice (not nil) for missing or expired sessions.
	Messages(ctx context.Context, sessionID string) ([]llm.ChatMessage, error)

	// Sessions lists live sessions, most recently active first.
	Sessions(ctx context.Context) ([]Session, error)

	// Delete removes a session and its messages.
	Delete(ctx context.Context, sessionID string) error
}
