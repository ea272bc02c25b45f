package pool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clumsy/internal/collection"
	"github.com/roach88/clumsy/internal/object"
	"github.com/roach88/clumsy/internal/testutil"
)

func TestStack_ZeroValue(t *testing.T) {
	var s Stack

	assert.Equal(t, 0, s.Depth())
	assert.Equal(t, 0, s.Pending())
}

func TestAutorelease_DestructorRunsAtPop(t *testing.T) {
	s := New()
	tally := testutil.NewDestructorTally()
	o := tally.Object("o", 0)

	s.Push()
	got := s.Autorelease(o)

	assert.Same(t, o, got)
	assert.Equal(t, 0, tally.Fired("o"), "autorelease must not destroy")
	assert.Equal(t, 1, object.RefCount(o), "the pool holds the only reference")
	assert.Equal(t, 1, s.Pending())

	s.Pop()
	tally.AssertFiredOnce(t, "o")
	assert.False(t, object.Alive(o))
}

func TestAutorelease_FromDestructorDuringLastPop(t *testing.T) {
	s := New()
	late := object.NewRetained(0, nil)
	o := object.NewRetained(0, func(object.Handle) { s.Autorelease(late) })

	s.Push()
	s.Autorelease(o)
	err := object.Guard(func() { s.Pop() })

	assert.Equal(t, object.ErrCodeNoPool, object.CodeOf(err))
	assert.Equal(t, 0, s.Depth())
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 1, object.RefCount(late), "late object keeps its reference")
	object.Release(late)
}

func TestAutorelease_FromDestructorLandsInPoolBelow(t *testing.T) {
	s := New()
	tally := testutil.NewDestructorTally()
	late := tally.Object("late", 0)
	o := object.NewRetained(0, func(object.Handle) { s.Autorelease(late) })

	s.Push()
	s.Push()
	s.Autorelease(o)
	s.Pop()

	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, 0, tally.Fired("late"))

	s.Pop()
	tally.AssertFiredOnce(t, "late")
}

func TestAutorelease_SurvivesWhenRetainedElsewhere(t *testing.T) {
	s := New()
	fired := 0
	o := object.NewRetained(0, func(object.Handle) { fired++ })
	object.Retain(o)

	s.Push()
	s.Autorelease(o)
	s.Pop()

	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, object.RefCount(o))
	object.Release(o)
	assert.Equal(t, 1, fired)
}

func TestAutorelease_SameObjectTwice(t *testing.T) {
	s := New()
	fired := 0
	o := object.NewRetained(0, func(object.Handle) { fired++ })
	object.Retain(o)

	s.Push()
	s.Autorelease(o)
	s.Autorelease(o)
	assert.Equal(t, 2, s.Pending())
	s.Pop()

	assert.Equal(t, 1, fired)
}

func TestAutorelease_NoPoolPanics(t *testing.T) {
	s := New()
	o := object.NewRetained(0, nil)
	defer object.Release(o)

	err := object.Guard(func() { s.Autorelease(o) })

	assert.Equal(t, object.ErrCodeNoPool, object.CodeOf(err))
	assert.Equal(t, 1, object.RefCount(o))
}

func TestAutorelease_UnownedObjectPanics(t *testing.T) {
	s := New()
	s.Push()
	defer s.Pop()
	o := object.New(0, nil)

	err := object.Guard(func() { s.Autorelease(o) })

	assert.Equal(t, object.ErrCodeBadArgument, object.CodeOf(err))
	assert.Equal(t, 0, s.Pending())
}

func TestPop_NoPoolPanics(t *testing.T) {
	s := New()

	err := object.Guard(func() { s.Pop() })

	assert.Equal(t, object.ErrCodeNoPool, object.CodeOf(err))
}

func TestPop_OnlyTopPool(t *testing.T) {
	s := New()
	tally := testutil.NewDestructorTally()
	outer := tally.Object("outer", 0)
	inner := tally.Object("inner", 0)

	s.Push()
	s.Autorelease(outer)
	s.Push()
	s.Autorelease(inner)
	require.Equal(t, 2, s.Depth())

	s.Pop()
	assert.Equal(t, []string{"inner"}, tally.Order())
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, 1, s.Pending())

	s.Pop()
	assert.Equal(t, []string{"inner", "outer"}, tally.Order())
	assert.Equal(t, 0, s.Depth())
}

func TestPop_FreesStackWhenEmpty(t *testing.T) {
	s := New()
	s.Push()
	stack := s.pools

	s.Pop()

	assert.Nil(t, s.pools)
	assert.False(t, object.Alive(stack))

	// a later push lazily recreates it
	s.Push()
	defer s.Pop()
	assert.Equal(t, 1, s.Depth())
}

func TestAutorelease_Collection(t *testing.T) {
	s := New()
	o := object.NewRetained(0, nil)

	s.Push()
	c := s.Autorelease(collection.New(4, 0, 0)).(*collection.Collection)
	c.Add(o)
	object.Release(o)
	s.Pop()

	assert.False(t, object.Alive(c))
	assert.False(t, object.Alive(o))
}

func TestDo_PopsOnError(t *testing.T) {
	s := New()
	fired := 0
	boom := errors.New("boom")

	err := s.Do(func() error {
		s.Autorelease(object.NewRetained(0, func(object.Handle) { fired++ }))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, s.Depth())
}

func TestDo_PopsOnPanic(t *testing.T) {
	s := New()
	fired := 0

	assert.Panics(t, func() {
		_ = s.Do(func() error {
			s.Autorelease(object.NewRetained(0, func(object.Handle) { fired++ }))
			panic("unwinding")
		})
	})

	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, s.Depth())
}

func TestDo_FnPopsItsOwnPool(t *testing.T) {
	s := New()
	boom := errors.New("boom")

	err := s.Do(func() error {
		s.Pop()
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Depth())
}

func TestDo_LeavesOuterPoolOpen(t *testing.T) {
	s := New()
	s.Push()
	defer s.Pop()
	tally := testutil.NewDestructorTally()

	err := s.Do(func() error {
		s.Autorelease(tally.Object("inner", 0))
		// pushed and never popped
		s.Push()
		s.Autorelease(tally.Object("nested", 0))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, s.Depth())
	tally.AssertFiredOnce(t, "inner", "nested")
}

func TestStacks_AreIndependent(t *testing.T) {
	a, b := New(), New()
	o := object.NewRetained(0, nil)

	a.Push()
	b.Push()
	a.Autorelease(o)
	b.Pop()

	assert.True(t, object.Alive(o))
	a.Pop()
	assert.False(t, object.Alive(o))
}

func TestWithChunk(t *testing.T) {
	s := New(WithChunk(2))
	s.Push()
	defer s.Pop()

	for range 5 {
		s.Autorelease(object.NewRetained(0, nil))
	}

	top := s.top("test")
	assert.Equal(t, 2, top.ChunkSize())
	assert.Equal(t, 6, top.Capacity())
}
