// Package errlog provides a bounded, append-only error journal.
//
// Information Hiding:
// - Ring behavior (oldest-dropped) hidden behind Append
// - Thread-safe via mutex hidden from callers

package errlog

import (
	"sync"
	"time"

	"github.com/richinex/chimera/llm"
)

// DefaultMaxEntries is the number of most-recent entries retained.
const DefaultMaxEntries = 50

// Entry is one recorded failure.
type Entry struct {
	Timestamp time.Time
	Message   string
	Category  llm.ErrorCategory
	Context   string
}

// Log is an append-only error log capped at a fixed number of entries;
// the oldest entry is dropped when the cap is exceeded.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	max     int
	now     func() time.Time
}

// New creates a log retaining the default 50 most-recent entries.
func New() *Log {
	return NewWithCapacity(DefaultMaxEntries)
}

// NewWithCapacity creates a log retaining the given number of entries.
func NewWithCapacity(max int) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Log{max: max, now: time.Now}
}

// WithClock overrides the clock (for tests).
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

// Append records a failure. Oldest entries are dropped past capacity.
func (l *Log) Append(category llm.ErrorCategory, message, context string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{
		Timestamp: l.now(),
		Message:   message,
		Category:  category,
		Context:   context,
	})
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// Entries returns a copy of the recorded entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	copied := make([]Entry, len(l.entries))
	copy(copied, l.entries)
	return copied
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
