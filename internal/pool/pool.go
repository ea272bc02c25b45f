// Package pool implements autorelease pools: scopes that defer one release
// per registered object until the scope closes.
//
// A Stack is an explicit value rather than process-wide state, so
// independent scopes compose and tests stay isolated. The zero value is
// ready to use. Like the rest of the runtime, a Stack takes no locks and
// belongs to a single goroutine.
package pool

import (
	"log/slog"

	"github.com/roach88/clumsy/internal/collection"
	"github.com/roach88/clumsy/internal/object"
)

// stackChunk is the growth step of the stack of pools itself.
const stackChunk = 8

// Stack is a stack of autorelease pools.
//
// The backing stack (a Collection of pool Collections) is created on the
// first Push and destroyed when the last pool is popped.
type Stack struct {
	pools *collection.Collection
	chunk int
}

// Option configures a Stack.
type Option func(*Stack)

// WithChunk sets the chunk size of each pool. 0 selects collection.DefaultChunk.
func WithChunk(n int) Option {
	return func(s *Stack) {
		s.chunk = n
	}
}

// New creates an empty Stack.
func New(opts ...Option) *Stack {
	s := &Stack{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push opens a new pool on top of the stack.
func (s *Stack) Push() {
	if s.pools == nil {
		s.pools = collection.New(stackChunk, object.CapCollection, collection.FlagAutoresize)
	}

	p := collection.New(s.chunk, object.CapObject, collection.FlagAutoresize)
	s.pools.Add(p)
	object.Release(p)

	slog.Debug("autorelease pool pushed", "depth", s.pools.Count())
}

// Pop destroys the top pool, releasing every object it holds once.
// Popping the last pool frees the stack. Popping with no pool open panics
// with object.ErrCodeNoPool.
//
// The pool is unlinked before its objects are released, so a destructor
// that autoreleases lands in the pool below, or fails with
// object.ErrCodeNoPool when none is left.
func (s *Stack) Pop() {
	if s.pools == nil {
		object.Fail(object.ErrCodeNoPool, "pool.pop", "no autorelease pool open")
	}

	p := s.pools.Pick()
	s.pools.ReleaseDeleted()

	depth := s.pools.Count()
	var stack *collection.Collection
	if depth == 0 {
		stack, s.pools = s.pools, nil
	}

	pending := p.(*collection.Collection).Count()
	slog.Debug("autorelease pool popped", "depth", depth, "released", pending)

	object.Release(p)
	if stack != nil {
		object.Release(stack)
	}
}

// Autorelease registers h with the top pool and releases it once on the
// caller's behalf, handing the caller's reference to the pool. It returns h,
// which stays alive at least until the pool pops.
//
// The caller must own a reference: autoreleasing a count-0 object panics
// with object.ErrCodeBadArgument, and calling it with no pool open panics
// with object.ErrCodeNoPool.
func (s *Stack) Autorelease(h object.Handle) object.Handle {
	top := s.top("pool.autorelease")
	if object.RefCount(h) == 0 {
		object.Fail(object.ErrCodeBadArgument, "pool.autorelease", "object#%d has no reference to hand over", object.ID(h))
	}

	top.Add(h)
	object.Release(h)
	return h
}

// Do runs fn inside a fresh pool, popping it on every exit path,
// including a panic. Pools fn left open above its own are popped too; if fn
// already popped the pool, nothing more is popped.
func (s *Stack) Do(fn func() error) error {
	s.Push()
	mine := s.pools.Check()
	defer s.popThrough(mine)
	return fn()
}

// popThrough pops pools until p has been popped. It does nothing when p is
// no longer on the stack.
func (s *Stack) popThrough(p object.Handle) {
	if !s.holds(p) {
		return
	}
	for {
		top := s.pools.Check()
		s.Pop()
		if top == p {
			return
		}
	}
}

func (s *Stack) holds(p object.Handle) bool {
	if s.pools == nil {
		return false
	}
	for _, h := range s.pools.All() {
		if h == p {
			return true
		}
	}
	return false
}

// Depth returns the number of open pools.
func (s *Stack) Depth() int {
	if s.pools == nil {
		return 0
	}
	return s.pools.Count()
}

// Pending returns the number of deferred releases held by the top pool.
func (s *Stack) Pending() int {
	if s.pools == nil {
		return 0
	}
	return s.top("pool.pending").Count()
}

func (s *Stack) top(op string) *collection.Collection {
	if s.pools == nil {
		object.Fail(object.ErrCodeNoPool, op, "no autorelease pool open")
	}
	return s.pools.Check().(*collection.Collection)
}
