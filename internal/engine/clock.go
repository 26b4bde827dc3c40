package engine

import (
	"strconv"
	"sync/atomic"

	"github.com/roach88/crpq/internal/queryir"
)

// FreshPrefix starts every variable name the rewriter invents.
const FreshPrefix = "v"

// Clock is the monotonic counter behind fresh variable names.
//
// Each call to Next returns a strictly larger value, so every name handed
// out by FreshName during a run is distinct: v1, v2, v3, ...
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// FreshName returns a variable name not handed out before by this clock.
// Clock implements queryir.FreshNames.
func (c *Clock) FreshName() string {
	return FreshPrefix + strconv.FormatInt(c.Next(), 10)
}

// scopedNames hands out fresh names that occur nowhere in one query.
type scopedNames struct {
	clock *Clock
	used  map[string]bool
}

// newScopedNames counts from v1 for q alone.
func newScopedNames(q queryir.Query) queryir.FreshNames {
	return scopeNames(NewClock(), q)
}

// scopeNames draws from clock, which may be shared by many queries.
func scopeNames(clock *Clock, q queryir.Query) *scopedNames {
	used := make(map[string]bool)
	for _, t := range q.Head {
		used[t.Name] = true
	}
	for _, a := range q.Body {
		for _, t := range a.Terms() {
			used[t.Name] = true
		}
	}
	return &scopedNames{clock: clock, used: used}
}

func (s *scopedNames) FreshName() string {
	for {
		name := s.clock.FreshName()
		if !s.used[name] {
			return name
		}
	}
}
