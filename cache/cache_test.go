package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/richinex/chimera/llm"
)

func TestKeyDeterministic(t *testing.T) {
	messages := []llm.ChatMessage{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there"},
	}

	k1, err := Key("gpt-4o", messages, 0.7, 2000)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	k2, err := Key("gpt-4o", messages, 0.7, 2000)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}

	if k1 != k2 {
		t.Errorf("identical inputs produced different keys: %s vs %s", k1, k2)
	}
}

func TestKeyChangesWithAnyField(t *testing.T) {
	messages := []llm.ChatMessage{{Role: "user", Content: "Hello"}}

	base, err := Key("gpt-4o", messages, 0.7, 2000)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}

	variants := map[string]func() (string, error){
		"model": func() (string, error) {
			return Key("deepseek-chat", messages, 0.7, 2000)
		},
		"messages": func() (string, error) {
			return Key("gpt-4o", []llm.ChatMessage{{Role: "user", Content: "Goodbye"}}, 0.7, 2000)
		},
		"temperature": func() (string, error) {
			return Key("gpt-4o", messages, 0.9, 2000)
		},
		"maxTokens": func() (string, error) {
			return Key("gpt-4o", messages, 0.7, 1000)
		},
	}

	for name, variant := range variants {
		k, err := variant()
		if err != nil {
			t.Fatalf("Key for %s variant failed: %v", name, err)
		}
		if k == base {
			t.Errorf("changing %s did not change the key", name)
		}
	}
}

func TestKeyIgnoresHistoryBeforeWindow(t *testing.T) {
	// Two histories differing only before the trailing 10 messages must
	// collide.
	long1 := make([]llm.ChatMessage, 0, 12)
	long2 := make([]llm.ChatMessage, 0, 12)
	long1 = append(long1, llm.ChatMessage{Role: "user", Content: "ancient A"})
	long2 = append(long2, llm.ChatMessage{Role: "user", Content: "ancient B"})
	long1 = append(long1, llm.ChatMessage{Role: "user", Content: "also old A"})
	long2 = append(long2, llm.ChatMessage{Role: "user", Content: "also old B"})
	for i := 0; i < 10; i++ {
		shared := llm.ChatMessage{Role: "user", Content: fmt.Sprintf("recent %d", i)}
		long1 = append(long1, shared)
		long2 = append(long2, shared)
	}

	k1, err := Key("gpt-4o", long1, 0.7, 2000)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	k2, err := Key("gpt-4o", long2, 0.7, 2000)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}

	if k1 != k2 {
		t.Error("histories differing only before the context window produced different keys")
	}
}

func TestGetMissingKey(t *testing.T) {
	c := New(10, time.Minute)

	if _, ok := c.Get("nope"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestPutAndGet(t *testing.T) {
	c := New(10, time.Minute)

	c.Put("k1", "response text")

	text, ok := c.Get("k1")
	if !ok {
		t.Fatal("expected hit for stored key")
	}
	if text != "response text" {
		t.Errorf("expected 'response text', got %q", text)
	}
}

func TestTTLExpiry(t *testing.T) {
	now := time.Now()
	clock := now
	c := New(10, 30*time.Minute).WithClock(func() time.Time { return clock })

	c.Put("k1", "cached")

	// Just before the TTL the entry is still present.
	clock = now.Add(30*time.Minute - time.Second)
	if _, ok := c.Get("k1"); !ok {
		t.Error("expected hit just before TTL")
	}

	// At the TTL boundary and beyond it is absent.
	clock = now.Add(30*time.Minute + time.Second)
	if _, ok := c.Get("k1"); ok {
		t.Error("expected miss just after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expected lazy eviction to drop the entry, got %d entries", c.Len())
	}
}

func TestCapacityEvictsOldestInserted(t *testing.T) {
	c := New(3, time.Minute)

	c.Put("k1", "first")
	c.Put("k2", "second")
	c.Put("k3", "third")
	c.Put("k4", "fourth")

	if c.Len() != 3 {
		t.Errorf("expected 3 entries after overflow, got %d", c.Len())
	}
	if _, ok := c.Get("k1"); ok {
		t.Error("expected the first-inserted entry to be evicted")
	}
	for _, key := range []string{"k2", "k3", "k4"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %s to survive eviction", key)
		}
	}
}

func TestPutRefreshesInsertionPosition(t *testing.T) {
	c := New(2, time.Minute)

	c.Put("k1", "first")
	c.Put("k2", "second")
	c.Put("k1", "updated")
	c.Put("k3", "third")

	// k2 is now the oldest insertion and should have been evicted.
	if _, ok := c.Get("k2"); ok {
		t.Error("expected k2 to be evicted after k1 was refreshed")
	}
	text, ok := c.Get("k1")
	if !ok {
		t.Fatal("expected refreshed k1 to survive")
	}
	if text != "updated" {
		t.Errorf("expected refreshed text, got %q", text)
	}
}

func TestClear(t *testing.T) {
	c := New(10, time.Minute)

	c.Put("k1", "a")
	c.Put("k2", "b")
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d entries", c.Len())
	}
}
