package object

import (
	"cmp"
	"fmt"
	"log/slog"
	"reflect"
)

// liveMarker identifies an initialized, not yet destroyed header.
const liveMarker uint32 = 0x0b7ecd

// Destructor runs exactly once, when an object's count drops from 1 to 0
// (or when a live count-0 object is released). It receives the handle that
// was passed to Release, so concrete kinds can recover their own type.
type Destructor func(h Handle)

// Stringer renders an object for diagnostics.
type Stringer func(h Handle) string

// Handle is implemented by every heap entity managed by the runtime.
// Concrete kinds get it for free by embedding Object.
type Handle interface {
	Header() *Object
}

// Object is the header shared by all runtime entities.
//
// The zero value is not initialized: it fails TypeCheck until passed to
// Init. After its destructor has run the header returns to that state.
type Object struct {
	marker     uint32
	id         int64
	caps       Capability
	refs       int
	destructor Destructor
	stringer   Stringer
}

// Header returns o itself, making *Object a Handle.
func (o *Object) Header() *Object {
	return o
}

// Option configures an object at initialization.
type Option func(*Object)

// WithStringer sets the stringifier used by String.
func WithStringer(fn Stringer) Option {
	return func(o *Object) {
		o.stringer = fn
	}
}

// New creates a raw object with count 0.
func New(caps Capability, dest Destructor, opts ...Option) *Object {
	return Init(&Object{}, caps, dest, opts...)
}

// NewRetained creates a raw object with count 1.
func NewRetained(caps Capability, dest Destructor, opts ...Option) *Object {
	return InitRetained(&Object{}, caps, dest, opts...)
}

// Init initializes the header embedded in h with count 0 and returns h.
//
// CapObject is always added to caps. Init panics with ErrCodeBadAllocation if
// h has no header (a nil pointer) or if the header is already live.
func Init[H Handle](h H, caps Capability, dest Destructor, opts ...Option) H {
	o := headerOf(h)
	if o == nil {
		Fail(ErrCodeBadAllocation, "init", "handle %T has no object header", h)
	}
	if o.marker == liveMarker {
		Fail(ErrCodeBadAllocation, "init", "object#%d is already initialized", o.id)
	}

	*o = Object{
		marker:     liveMarker,
		id:         ids.next(),
		caps:       caps | CapObject,
		destructor: dest,
	}
	for _, opt := range opts {
		opt(o)
	}
	return h
}

// InitRetained is Init followed by Retain.
func InitRetained[H Handle](h H, caps Capability, dest Destructor, opts ...Option) H {
	return Retain(Init(h, caps, dest, opts...))
}

// TypeCheck reports whether h is a live object satisfying mask.
// It returns false for an absent handle and never panics.
func TypeCheck(h Handle, mask Capability) bool {
	o := headerOf(h)
	return o != nil && o.marker == liveMarker && o.caps.Has(mask)
}

// MustCheck returns the header of h, panicking with a *ContractError if h is
// not a live object satisfying mask. op names the caller for the error.
func MustCheck(h Handle, mask Capability, op string) *Object {
	o := headerOf(h)
	if o == nil || o.marker != liveMarker {
		Fail(ErrCodeInvalidHandle, op, "%T is not a live object", h)
	}
	if !o.caps.Has(mask) {
		Fail(ErrCodeCapabilityMismatch, op, "object#%d has capabilities %s, want %s", o.id, o.caps, mask)
	}
	return o
}

// Retain increments the count of h and returns h. An absent handle is a no-op.
func Retain[H Handle](h H) H {
	if headerOf(h) == nil {
		return h
	}
	o := MustCheck(h, CapObject, "retain")
	o.refs++
	return h
}

// Release decrements the count of h, never below zero.
//
// When the count reaches zero the destructor runs, the header is cleared and
// the zero value of H is returned. Otherwise h is returned unchanged.
// An absent handle is a no-op; a destroyed handle is a contract violation.
func Release[H Handle](h H) H {
	var zero H
	if headerOf(h) == nil {
		return zero
	}

	o := MustCheck(h, CapObject, "release")
	if o.refs > 0 {
		o.refs--
	}
	if o.refs > 0 {
		return h
	}

	destroy(h, o)
	return zero
}

// destroy runs the destructor and clears the header.
// The destructor field is cleared first so it cannot fire twice even if the
// destructor releases its own handle.
func destroy(h Handle, o *Object) {
	id := o.id
	dest := o.destructor
	o.destructor = nil
	if dest != nil {
		dest(h)
	}
	*o = Object{}

	slog.Debug("object destroyed", "id", id)
}

// String renders h with its stringifier, or as object#<id> by default.
// An absent handle renders as "<nil>".
func String(h Handle) string {
	if headerOf(h) == nil {
		return "<nil>"
	}
	o := MustCheck(h, 0, "string")
	if o.stringer != nil {
		return o.stringer(h)
	}
	return fmt.Sprintf("object#%d", o.id)
}

// RefCount returns the current count of a live object.
func RefCount(h Handle) int {
	return MustCheck(h, 0, "refcount").refs
}

// ID returns the identifier assigned to a live object at initialization.
func ID(h Handle) int64 {
	return MustCheck(h, 0, "id").id
}

// Caps returns the capability mask of a live object.
func Caps(h Handle) Capability {
	return MustCheck(h, 0, "caps").caps
}

// Alive reports whether h is initialized and not yet destroyed.
func Alive(h Handle) bool {
	return TypeCheck(h, 0)
}

// Compare is the default identity comparator. It orders objects by creation
// and returns 0 only for the same object.
func Compare(a, b Handle) int {
	oa := MustCheck(a, CapObject, "compare")
	ob := MustCheck(b, CapObject, "compare")
	return cmp.Compare(oa.id, ob.id)
}

// headerOf returns the header of h, or nil for an absent handle.
// A typed nil pointer counts as absent.
func headerOf(h Handle) *Object {
	if h == nil {
		return nil
	}
	if v := reflect.ValueOf(h); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil
	}
	return h.Header()
}
