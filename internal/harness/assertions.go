package harness

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/clumsy/internal/collection"
	"github.com/roach88/clumsy/internal/object"
	"github.com/roach88/clumsy/internal/store"
	"github.com/roach88/clumsy/internal/trace"
)

// AssertionContext provides what assertions evaluate against: the persisted
// trace and the live objects the run left behind.
type AssertionContext struct {
	Ctx   context.Context
	Store *store.Store
	RunID string

	runtime *runtime
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Object   string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %s on %s failed: expected %s, got %s", e.Type, e.Object, e.Expected, e.Actual)
}

// EvaluateAssertions evaluates every assertion and returns one message per
// failure.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	h, ok := actx.runtime.objects[a.Object]
	if !ok {
		return fmt.Errorf("object %q is not bound", a.Object)
	}

	switch a.Type {
	case AssertDestroyed:
		return assertDestroyed(a, actx)
	case AssertAlive:
		if got := object.Alive(h); got != *a.Alive {
			return &AssertionError{a.Type, a.Object, strconv.FormatBool(*a.Alive), strconv.FormatBool(got)}
		}
		return nil
	}

	if !object.Alive(h) {
		return &AssertionError{a.Type, a.Object, "a live object", "a destroyed object"}
	}

	switch a.Type {
	case AssertRefs:
		return compareCount(a, object.RefCount(h))
	case AssertCapacity, AssertCount, AssertContents:
		c, ok := h.(*collection.Collection)
		if !ok {
			return &AssertionError{a.Type, a.Object, "a collection", fmt.Sprintf("%T", h)}
		}
		switch a.Type {
		case AssertCapacity:
			return compareCount(a, c.Capacity())
		case AssertCount:
			return compareCount(a, c.Count())
		default:
			return assertContents(a, c, actx.runtime)
		}
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertDestroyed counts destructor firings recorded in the store, so the
// answer reflects exactly what was persisted for the run.
func assertDestroyed(a Assertion, actx *AssertionContext) error {
	n, err := actx.Store.CountEvents(actx.Ctx, actx.RunID, trace.KindDestroyed, a.Object)
	if err != nil {
		return err
	}
	return compareCount(a, n)
}

func compareCount(a Assertion, got int) error {
	if got != a.Count {
		return &AssertionError{a.Type, a.Object, strconv.Itoa(a.Count), strconv.Itoa(got)}
	}
	return nil
}

func assertContents(a Assertion, c *collection.Collection, rt *runtime) error {
	got := []string{}
	for _, h := range c.All() {
		got = append(got, rt.nameOf(h))
	}
	want := a.Contents
	if want == nil {
		want = []string{}
	}

	if !slices.Equal(got, want) {
		return &AssertionError{a.Type, a.Object, "[" + strings.Join(want, " ") + "]", "[" + strings.Join(got, " ") + "]"}
	}
	return nil
}
