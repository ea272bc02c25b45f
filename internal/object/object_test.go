package object

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// widget is a concrete kind embedding the header.
type widget struct {
	Object
	name string
}

const capWidget Capability = 1 << 8

func TestNew_StartsAtZero(t *testing.T) {
	o := New(0, nil)

	require.True(t, TypeCheck(o, CapObject))
	assert.Equal(t, 0, RefCount(o))
}

func TestNewRetained_StartsAtOne(t *testing.T) {
	o := NewRetained(0, nil)

	assert.Equal(t, 1, RefCount(o))
}

func TestInit_EmbeddedHeader(t *testing.T) {
	w := InitRetained(&widget{name: "w"}, capWidget, nil)

	assert.True(t, TypeCheck(w, capWidget))
	assert.True(t, TypeCheck(w, CapObject), "every object carries CapObject")
	assert.False(t, TypeCheck(w, CapCollection))
	assert.Equal(t, "w", w.name)
}

func TestInit_NilHeaderPanics(t *testing.T) {
	var w *widget

	err := Guard(func() { Init(w, capWidget, nil) })

	require.Error(t, err)
	assert.Equal(t, ErrCodeBadAllocation, CodeOf(err))
}

func TestInit_TwicePanics(t *testing.T) {
	w := Init(&widget{}, capWidget, nil)

	err := Guard(func() { Init(w, capWidget, nil) })

	assert.Equal(t, ErrCodeBadAllocation, CodeOf(err))
}

func TestTypeCheck(t *testing.T) {
	w := Init(&widget{}, capWidget, nil)
	var nilWidget *widget

	tests := []struct {
		name string
		h    Handle
		mask Capability
		want bool
	}{
		{"absent handle", nil, 0, false},
		{"typed nil", nilWidget, 0, false},
		{"uninitialized header", &widget{}, 0, false},
		{"zero mask", w, 0, true},
		{"matching bit", w, capWidget, true},
		{"any bit of mask", w, capWidget | CapCollection, true},
		{"missing bit", w, CapCollection, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeCheck(tt.h, tt.mask))
		})
	}
}

func TestRetainRelease_DestructorFiresOnceAtZero(t *testing.T) {
	fired := 0
	o := NewRetained(0, func(Handle) { fired++ })

	Retain(o)
	Retain(o)
	assert.Equal(t, 3, RefCount(o))

	assert.Same(t, o, Release(o))
	assert.Same(t, o, Release(o))
	assert.Equal(t, 0, fired, "destructor must not fire while count > 0")

	assert.Nil(t, Release(o), "release to zero returns absent")
	assert.Equal(t, 1, fired)
	assert.False(t, Alive(o))
}

func TestRelease_RawObjectIsDestroyed(t *testing.T) {
	fired := 0
	o := New(0, func(Handle) { fired++ })

	assert.Nil(t, Release(o))
	assert.Equal(t, 1, fired)
}

func TestRelease_DestroyedHandlePanics(t *testing.T) {
	fired := 0
	o := NewRetained(0, func(Handle) { fired++ })
	Release(o)

	for range 3 {
		err := Guard(func() { Release(o) })
		assert.Equal(t, ErrCodeInvalidHandle, CodeOf(err))
	}
	assert.Equal(t, 1, fired, "destructor never fires again")
}

func TestRelease_SelfReleaseInDestructor(t *testing.T) {
	fired := 0
	var o *Object
	o = NewRetained(0, func(h Handle) {
		fired++
		Release(h)
	})

	Release(o)

	assert.Equal(t, 1, fired)
	assert.False(t, Alive(o))
}

func TestRelease_DestructorReceivesConcreteHandle(t *testing.T) {
	var got string
	w := InitRetained(&widget{name: "gear"}, capWidget, func(h Handle) {
		got = h.(*widget).name
	})

	Release(w)

	assert.Equal(t, "gear", got)
}

func TestRetainRelease_AbsentHandle(t *testing.T) {
	var o *Object

	assert.Nil(t, Retain(o))
	assert.Nil(t, Release(o))

	var h Handle
	assert.Nil(t, Retain(h))
	assert.Nil(t, Release(h))
}

func TestRetain_DestroyedHandlePanics(t *testing.T) {
	o := NewRetained(0, nil)
	Release(o)

	err := Guard(func() { Retain(o) })

	assert.Equal(t, ErrCodeInvalidHandle, CodeOf(err))
}

func TestString(t *testing.T) {
	w := Init(&widget{name: "bolt"}, capWidget, nil, WithStringer(func(h Handle) string {
		return "widget:" + h.(*widget).name
	}))
	plain := New(0, nil)

	assert.Equal(t, "widget:bolt", String(w))
	assert.Equal(t, "object#"+strconv.FormatInt(ID(plain), 10), String(plain))
	assert.Equal(t, "<nil>", String(nil))
}

func TestCompare_IdentityOrder(t *testing.T) {
	a := New(0, nil)
	b := New(0, nil)

	assert.Equal(t, 0, Compare(a, a))
	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, 1, Compare(b, a))
}

func TestCompare_DeadHandlePanics(t *testing.T) {
	a := NewRetained(0, nil)
	b := NewRetained(0, nil)
	Release(b)

	err := Guard(func() { Compare(a, b) })

	assert.Equal(t, ErrCodeInvalidHandle, CodeOf(err))
}

func TestMustCheck_CapabilityMismatch(t *testing.T) {
	w := Init(&widget{}, capWidget, nil)

	err := Guard(func() { MustCheck(w, CapCollection, "test") })

	require.Error(t, err)
	assert.Equal(t, ErrCodeCapabilityMismatch, CodeOf(err))
	assert.Contains(t, err.Error(), "op=test")
}

func TestIDs_Increase(t *testing.T) {
	before := ids.current()
	a := New(0, nil)
	b := New(0, nil)

	assert.Greater(t, ID(a), before)
	assert.Equal(t, ID(a)+1, ID(b))
}

func TestCaps(t *testing.T) {
	w := Init(&widget{}, capWidget, nil)

	assert.Equal(t, capWidget|CapObject, Caps(w))
}
