package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/richinex/chimera/llm"
)

func newTestSqlite(t *testing.T) *SqliteStore {
	t.Helper()
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("NewSqliteInMemory failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSqliteCreateAndAppend(t *testing.T) {
	store := newTestSqlite(t)
	ctx := context.Background()

	session, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected non-empty session ID")
	}

	if err := store.Append(ctx, session.ID, llm.UserMessage("Hello")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, session.ID, llm.AssistantMessage("Hi there")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	messages, err := store.Messages(ctx, session.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "Hello" || messages[1].Content != "Hi there" {
		t.Errorf("messages out of order: %+v", messages)
	}
}

func TestSqliteMessagesForMissingSession(t *testing.T) {
	store := newTestSqlite(t)

	messages, err := store.Messages(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if messages == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages, got %d", len(messages))
	}
}

func TestSqliteAppendToMissingSession(t *testing.T) {
	store := newTestSqlite(t)

	if err := store.Append(context.Background(), "nonexistent", llm.UserMessage("Hello")); err == nil {
		t.Error("expected error appending to missing session")
	}
}

func TestSqliteMessageRotation(t *testing.T) {
	store := newTestSqlite(t)
	ctx := context.Background()

	session, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < MaxMessagesPerSession+3; i++ {
		msg := llm.UserMessage(fmt.Sprintf("message %d", i))
		if err := store.Append(ctx, session.ID, msg); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	messages, err := store.Messages(ctx, session.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(messages) != MaxMessagesPerSession {
		t.Fatalf("expected %d messages after rotation, got %d", MaxMessagesPerSession, len(messages))
	}
	if messages[0].Content != "message 3" {
		t.Errorf("expected oldest surviving message 'message 3', got %q", messages[0].Content)
	}
}

func TestSqliteSessionCapEvictsLeastRecentlyActive(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	clock := now
	store := newTestSqlite(t).WithClock(func() time.Time { return clock })
	ctx := context.Background()

	ids := make([]string, MaxSessions)
	for i := range ids {
		clock = now.Add(time.Duration(i) * time.Minute)
		session, err := store.Create(ctx)
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		ids[i] = session.ID
	}

	clock = now.Add(time.Duration(MaxSessions+1) * time.Minute)
	if _, err := store.Create(ctx); err != nil {
		t.Fatalf("Create over cap failed: %v", err)
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != MaxSessions {
		t.Fatalf("expected %d sessions, got %d", MaxSessions, len(sessions))
	}
	for _, s := range sessions {
		if s.ID == ids[0] {
			t.Error("expected the least-recently-active session to be evicted")
		}
	}
}

func TestSqliteIdleExpiry(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	clock := now
	store := newTestSqlite(t).WithClock(func() time.Time { return clock })
	ctx := context.Background()

	session, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Append(ctx, session.ID, llm.UserMessage("Hello")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	clock = now.Add(IdleExpiry + time.Minute)

	messages, err := store.Messages(ctx, session.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected expired session to read as empty, got %d messages", len(messages))
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected expired session purged, got %d", len(sessions))
	}
}

func TestSqliteSessionsOrderedByActivity(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	clock := now
	store := newTestSqlite(t).WithClock(func() time.Time { return clock })
	ctx := context.Background()

	first, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	clock = now.Add(time.Minute)
	second, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	clock = now.Add(2 * time.Minute)
	if err := store.Append(ctx, first.ID, llm.UserMessage("bump")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != first.ID || sessions[1].ID != second.ID {
		t.Errorf("sessions not ordered by activity: %v, %v", sessions[0].ID, sessions[1].ID)
	}
}

func TestSqliteDeleteRemovesMessages(t *testing.T) {
	store := newTestSqlite(t)
	ctx := context.Background()

	session, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Append(ctx, session.ID, llm.UserMessage("Hello")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if err := store.Delete(ctx, session.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	messages, err := store.Messages(ctx, session.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages after delete, got %d", len(messages))
	}
	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected no sessions after delete, got %d", len(sessions))
	}
}
