package engine

import "sync"

// SeenSet records the keys of queries already discovered in a run.
//
// The rewriting is a fixpoint: a produced query is expanded only when its
// key is new. Because keys print every unbound term as "_" and identify a
// role atom with its inverse, two rewritings differing only in invented
// variable names are recognised as one.
//
// Thread-safe: Can be called concurrently.
type SeenSet struct {
	mu   sync.Mutex
	keys map[string]int // key -> discovery index
}

// NewSeenSet creates an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{keys: make(map[string]int)}
}

// Add records key and reports whether it was new.
func (s *SeenSet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = len(s.keys)
	return true
}

// Index returns the discovery index of key, or -1.
func (s *SeenSet) Index(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.keys[key]; ok {
		return i
	}
	return -1
}

// Len returns the number of recorded keys.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.keys)
}
