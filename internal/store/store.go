// Package store holds the canonical append-only log document. Lines are indexed
// from 0 here; the 1-based numbering the rest of the system surfaces is applied at
// the evaluation layer.
package store

import "sync"

// Store is a thread-safe append-only sequence of raw text lines. Appends happen on
// the ingestion goroutine while the evaluation goroutine reads ranges, so every
// accessor takes the lock; the lock is never held across an evaluation pass.
type Store struct {
	mu    sync.RWMutex
	lines []string
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Append adds a line and returns the index it was stored at.
func (s *Store) Append(text string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, text)
	return len(s.lines) - 1
}

// Len returns the number of stored lines.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// Line returns the line at index i, with ok=false when i is out of bounds.
func (s *Store) Line(i int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.lines) {
		return "", false
	}
	return s.lines[i], true
}

// Range copies lines in [from, to), clamped to the current bounds.
func (s *Store) Range(from, to int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if from < 0 {
		from = 0
	}
	if to > len(s.lines) {
		to = len(s.lines)
	}
	if from >= to {
		return nil
	}
	out := make([]string, to-from)
	copy(out, s.lines[from:to])
	return out
}

// Snapshot copies the whole document.
func (s *Store) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// Clear drops all lines. Called by the owner when switching log sources; the
// pipeline itself never clears the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}
