// SQLite session storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and rotation queries encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/richinex/chimera/llm"
)

// SqliteStore implements SessionStore using a SQLite database file.
type SqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &SqliteStore{db: db, now: time.Now}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	store := &SqliteStore{db: db, now: time.Now}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// WithClock overrides the clock (for tests).
func (s *SqliteStore) WithClock(now func() time.Time) *SqliteStore {
	s.now = now
	return s
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			last_activity INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session
		ON messages(session_id, id);

		CREATE INDEX IF NOT EXISTS idx_sessions_activity
		ON sessions(last_activity);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Create starts a new session, enforcing the session cap and expiry.
func (s *SqliteStore) Create(ctx context.Context) (Session, error) {
	now := s.now()
	if err := s.purgeExpired(ctx, now); err != nil {
		return Session{}, err
	}

	// Evict least-recently-active sessions down to the cap.
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM messages WHERE session_id IN (
			SELECT session_id FROM sessions
			ORDER BY last_activity DESC
			LIMIT -1 OFFSET ?
		)`, MaxSessions-1)
	if err != nil {
		return Session{}, fmt.Errorf("failed to evict messages: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE session_id IN (
			SELECT session_id FROM sessions
			ORDER BY last_activity DESC
			LIMIT -1 OFFSET ?
		)`, MaxSessions-1)
	if err != nil {
		return Session{}, fmt.Errorf("failed to evict sessions: %w", err)
	}

	meta := Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		LastActivity: now,
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO sessions (session_id, created_at, last_activity) VALUES (?, ?, ?)",
		meta.ID, now.Unix(), now.Unix())
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return meta, nil
}

// Append appends one message, rotating the oldest message out past the cap.
func (s *SqliteStore) Append(ctx context.Context, sessionID string, msg llm.ChatMessage) error {
	now := s.now()
	if err := s.purgeExpired(ctx, now); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is a no-op after Commit.
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE sessions SET last_activity = ? WHERE session_id = ?",
		now.Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %q not found", sessionID)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO messages (session_id, role, content) VALUES (?, ?, ?)",
		sessionID, msg.Role, msg.Content)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	// Rotate: keep only the newest MaxMessagesPerSession messages.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM messages WHERE session_id = ? AND id NOT IN (
			SELECT id FROM messages WHERE session_id = ?
			ORDER BY id DESC LIMIT ?
		)`, sessionID, sessionID, MaxMessagesPerSession)
	if err != nil {
		return fmt.Errorf("failed to rotate messages: %w", err)
	}

	return tx.Commit()
}

// Messages returns a session's ordered message log.
// Returns an empty slice for missing or expired sessions.
func (s *SqliteStore) Messages(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	cutoff := s.now().Add(-IdleExpiry).Unix()
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.role, m.content FROM messages m
		JOIN sessions s ON s.session_id = m.session_id
		WHERE m.session_id = ? AND s.last_activity > ?
		ORDER BY m.id`, sessionID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	messages := []llm.ChatMessage{}
	for rows.Next() {
		var msg llm.ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// Sessions lists live sessions, most recently active first.
func (s *SqliteStore) Sessions(ctx context.Context) ([]Session, error) {
	if err := s.purgeExpired(ctx, s.now()); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, created_at, last_activity FROM sessions
		ORDER BY last_activity DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var created, activity int64
		if err := rows.Scan(&sess.ID, &created, &activity); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.CreatedAt = time.Unix(created, 0)
		sess.LastActivity = time.Unix(activity, 0)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// Delete removes a session and its messages.
func (s *SqliteStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// purgeExpired drops sessions idle past IdleExpiry.
func (s *SqliteStore) purgeExpired(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-IdleExpiry).Unix()
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM messages WHERE session_id IN (
			SELECT session_id FROM sessions WHERE last_activity <= ?
		)`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge expired messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE last_activity <= ?", cutoff); err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	return nil
}

// Verify SqliteStore implements SessionStore
var _ SessionStore = (*SqliteStore)(nil)
