package object

import "sync/atomic"

// clock hands out object identifiers.
//
// Identifiers are strictly increasing in creation order, which gives the
// identity comparator a stable total order without inspecting addresses.
// It is the one piece of shared state in the runtime that is safe for
// concurrent use.
type clock struct {
	seq atomic.Int64
}

// next returns the next identifier. The first call returns 1.
func (c *clock) next() int64 {
	return c.seq.Add(1)
}

// current returns the last identifier handed out without advancing.
func (c *clock) current() int64 {
	return c.seq.Load()
}

var ids clock
