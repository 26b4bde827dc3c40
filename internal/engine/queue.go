package engine

import "github.com/roach88/crpq/internal/queryir"

// worklist is the FIFO of discovered queries waiting to be expanded.
//
// The rewriter drains it one frontier at a time: every query discovered
// while expanding frontier n is expanded as part of frontier n+1, in
// discovery order.
//
// Not safe for concurrent use; only the merge loop touches it.
type worklist struct {
	items []queryir.Query
}

func newWorklist() *worklist {
	return &worklist{items: make([]queryir.Query, 0, 64)}
}

// Push adds a query to the back.
func (w *worklist) Push(q queryir.Query) {
	w.items = append(w.items, q)
}

// Drain removes and returns every queued query, front first.
func (w *worklist) Drain() []queryir.Query {
	out := w.items
	w.items = make([]queryir.Query, 0, cap(out))
	return out
}

// Len returns the number of queued queries.
func (w *worklist) Len() int {
	return len(w.items)
}
