package testutil

import "github.com/roach88/clumsy/internal/object"

// DestructorTally counts destructor firings per object name.
type DestructorTally struct {
	fired map[string]int
	order []string
}

// NewDestructorTally creates an empty tally.
func NewDestructorTally() *DestructorTally {
	return &DestructorTally{fired: make(map[string]int)}
}

// Destructor returns a destructor that records a firing for name.
func (p *DestructorTally) Destructor(name string) object.Destructor {
	return func(object.Handle) {
		p.fired[name]++
		p.order = append(p.order, name)
	}
}

// Object creates a retained raw object whose destruction the tally records.
func (p *DestructorTally) Object(name string, caps object.Capability) *object.Object {
	return object.NewRetained(caps, p.Destructor(name))
}

// Fired returns how many times name's destructor ran.
func (p *DestructorTally) Fired(name string) int {
	return p.fired[name]
}

// Order returns the names in destruction order.
func (p *DestructorTally) Order() []string {
	return append([]string(nil), p.order...)
}

// TestingT is the subset of testing.TB AssertFiredOnce reports through.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// AssertFiredOnce fails t unless every name was destroyed exactly once.
func (p *DestructorTally) AssertFiredOnce(t TestingT, names ...string) {
	t.Helper()
	for _, name := range names {
		if got := p.fired[name]; got != 1 {
			t.Errorf("destructor of %q fired %d times, want 1", name, got)
		}
	}
}
