package collection

import (
	"iter"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/clumsy/internal/object"
)

// DefaultChunk is the chunk size used when New is given 0.
const DefaultChunk = 512

// NoIndex is returned when an insertion is rejected or a search fails.
const NoIndex = -1

// Comparator orders two objects: negative, zero or positive.
type Comparator = func(a, b object.Handle) int

// Collection is a type-checked, resizable, ordered store of object handles.
//
// Depending on its flags it behaves as an array, an ordered set, a stack or
// a FIFO queue. It is itself an object carrying object.CapCollection.
//
// INVARIANTS:
//   - 0 <= count <= capacity, and capacity is always a whole number of chunks
//   - if FlagSorted: buf[i-1] <= buf[i] under the comparator
//   - if FlagUnique: no two neighbours compare equal
//   - every stored handle holds exactly one reference owned by the collection
//   - the staging slot holds at most one reference, the last deleted object
type Collection struct {
	object.Object

	elemCaps  object.Capability
	flags     Flags
	chunk     int
	buf       []object.Handle // len(buf) is the capacity
	count     int
	cmp       Comparator
	deleted   object.Handle
	onDestroy func(c *Collection)
}

// Option configures a Collection at construction.
type Option func(*Collection)

// WithComparator replaces the default identity comparator.
func WithComparator(cmp Comparator) Option {
	return func(c *Collection) {
		if cmp != nil {
			c.cmp = cmp
		}
	}
}

// OnDestroy registers fn to run when the collection's count reaches zero,
// before the stored objects are released.
func OnDestroy(fn func(c *Collection)) Option {
	return func(c *Collection) {
		c.onDestroy = fn
	}
}

// New creates a retained Collection with room for chunk handles.
//
// chunk is also the step by which the capacity grows or shrinks; 0 selects
// DefaultChunk. elemCaps is checked against every inserted object (0 accepts
// any object). Implied flags are derived from flags.
func New(chunk int, elemCaps object.Capability, flags Flags, opts ...Option) *Collection {
	if chunk < 0 {
		object.Fail(object.ErrCodeBadArgument, "collection.new", "negative chunk size %d", chunk)
	}
	if chunk == 0 {
		chunk = DefaultChunk
	}

	c := &Collection{
		elemCaps: elemCaps,
		flags:    normalize(flags),
		chunk:    chunk,
		buf:      make([]object.Handle, chunk),
		cmp:      object.Compare,
	}
	for _, opt := range opts {
		opt(c)
	}

	return object.InitRetained(c, object.CapCollection, destroy, object.WithStringer(stringify))
}

// Capacity returns the number of allocated slots.
func (c *Collection) Capacity() int {
	c.live("collection.capacity")
	return len(c.buf)
}

// Count returns the number of stored objects.
func (c *Collection) Count() int {
	c.live("collection.count")
	return c.count
}

// ChunkSize returns the resize granularity.
func (c *Collection) ChunkSize() int {
	c.live("collection.chunk")
	return c.chunk
}

// Flags returns the active flags, implied bits included.
func (c *Collection) Flags() Flags {
	c.live("collection.flags")
	return c.flags
}

// ElemCaps returns the capability mask required of stored objects.
func (c *Collection) ElemCaps() object.Capability {
	c.live("collection.elem_caps")
	return c.elemCaps
}

// Add stores obj and returns its index, or NoIndex if it was rejected.
//
// A sorted collection inserts at the lowest index that keeps the order (the
// position Find would report); otherwise obj is appended.
func (c *Collection) Add(obj object.Handle) int {
	c.live("collection.add")
	c.checkElem("collection.add", obj)

	index := c.count
	if c.flags&FlagSorted != 0 {
		index, _ = c.search(0, obj)
	}
	return c.Insert(index, obj)
}

// Insert stores obj at index, shifting the tail right, and returns index.
//
// It returns NoIndex, without retaining obj, if index is outside
// [0, Count()], if the placement would break the sorted order (or create a
// duplicate in a unique collection), or if the buffer is full and growth is
// not allowed.
func (c *Collection) Insert(index int, obj object.Handle) int {
	c.live("collection.insert")
	c.checkElem("collection.insert", obj)

	if index < 0 || index > c.count {
		return NoIndex
	}
	if c.flags&FlagSorted != 0 && !c.fits(index, obj) {
		return NoIndex
	}
	if c.count == len(c.buf) {
		if c.flags&FlagUnlimited == 0 {
			return NoIndex
		}
		c.resize(len(c.buf) + c.chunk)
	}

	copy(c.buf[index+1:c.count+1], c.buf[index:c.count])
	c.buf[index] = object.Retain(obj)
	c.count++
	return index
}

// Find returns the lowest index >= start holding an object equal to obj
// under the comparator, or NoIndex.
//
// Sorted collections use binary search; others scan linearly.
func (c *Collection) Find(start int, obj object.Handle) int {
	c.live("collection.find")
	if obj == nil {
		object.Fail(object.ErrCodeBadArgument, "collection.find", "missing object")
	}

	if start < 0 || start >= c.count {
		return NoIndex
	}

	if c.flags&FlagSorted != 0 {
		index, found := c.search(start, obj)
		if !found {
			return NoIndex
		}
		return index
	}

	for i := start; i < c.count; i++ {
		if c.cmp(c.buf[i], obj) == 0 {
			return i
		}
	}
	return NoIndex
}

// Get returns the object at index without changing its count, or nil if
// index is out of range.
func (c *Collection) Get(index int) object.Handle {
	c.live("collection.get")
	if index < 0 || index >= c.count {
		return nil
	}
	return c.buf[index]
}

// Check returns the object Pick would remove without removing it: the head
// for a queue, the tail otherwise. Returns nil when empty.
func (c *Collection) Check() object.Handle {
	c.live("collection.check")
	index := c.readIndex()
	if index == NoIndex {
		return nil
	}
	return c.buf[index]
}

// Pick removes and returns the object Check would return.
//
// The returned handle is retained on the caller's behalf; the caller owns
// that reference and must release it. Returns nil when empty.
func (c *Collection) Pick() object.Handle {
	c.live("collection.pick")
	index := c.readIndex()
	if index == NoIndex {
		return nil
	}

	obj := object.Retain(c.buf[index])
	c.Delete(index)
	return obj
}

// Remove deletes every object equal to obj under the comparator and
// returns how many were deleted.
func (c *Collection) Remove(obj object.Handle) int {
	c.live("collection.remove")

	removed := 0
	for i := c.Find(0, obj); i != NoIndex; i = c.Find(i, obj) {
		c.Delete(i)
		removed++
	}
	return removed
}

// Delete removes the object at index, shifting the tail left, and returns
// it. Out-of-range indexes are a no-op returning nil.
//
// The collection's reference moves into the staging slot, where it stays
// until the next Delete, ReleaseDeleted or teardown releases it. The
// returned handle is only valid while that reference (or another) lives.
// Under FlagAutoresize the buffer shrinks by one chunk once more than a
// chunk of slots is free.
func (c *Collection) Delete(index int) object.Handle {
	c.live("collection.delete")
	if index < 0 || index >= c.count {
		return nil
	}

	obj := c.buf[index]
	copy(c.buf[index:c.count-1], c.buf[index+1:c.count])
	c.count--
	c.buf[c.count] = nil

	if c.flags&FlagAutoresize != 0 && len(c.buf)-c.count > c.chunk {
		c.resize(len(c.buf) - c.chunk)
	}

	prev := c.deleted
	c.deleted = obj
	object.Release(prev)
	return obj
}

// Deleted returns the last deleted object still held by the staging slot,
// or nil. Retain it to keep it past the next Delete.
func (c *Collection) Deleted() object.Handle {
	c.live("collection.deleted")
	return c.deleted
}

// ReleaseDeleted releases the staged object now.
func (c *Collection) ReleaseDeleted() {
	c.live("collection.release_deleted")
	prev := c.deleted
	c.deleted = nil
	object.Release(prev)
}

// FlagSet sets flags and re-derives implied bits.
//
// Turning FlagSorted on re-sorts the buffer; turning FlagUnique on then
// deletes every object equal to its predecessor, left to right.
func (c *Collection) FlagSet(flags Flags) {
	c.live("collection.flag_set")
	old := c.flags
	c.flags = normalize(old | flags)
	c.reconcile(old)
}

// FlagUnset clears flags and re-derives implied bits, so clearing
// FlagSorted has no effect while FlagUnique is set.
func (c *Collection) FlagUnset(flags Flags) {
	c.live("collection.flag_unset")
	old := c.flags
	c.flags = normalize(old &^ flags)
	c.reconcile(old)
}

// FlagCheck reports whether any bit of mask is set.
func (c *Collection) FlagCheck(mask Flags) bool {
	c.live("collection.flag_check")
	return c.flags&mask != 0
}

// SetComparator replaces the comparator (nil restores the identity
// comparator). A sorted collection is re-sorted immediately and a unique one
// re-filtered.
func (c *Collection) SetComparator(cmp Comparator) {
	c.live("collection.comparator_set")
	if cmp == nil {
		cmp = object.Compare
	}
	c.cmp = cmp

	if c.flags&FlagSorted != 0 {
		c.sort()
	}
	if c.flags&FlagUnique != 0 {
		c.dedupe()
	}
}

// All iterates over the stored objects in index order.
// The collection must not be mutated during iteration.
func (c *Collection) All() iter.Seq2[int, object.Handle] {
	c.live("collection.all")
	return func(yield func(int, object.Handle) bool) {
		for i := 0; i < c.count; i++ {
			if !yield(i, c.buf[i]) {
				return
			}
		}
	}
}

// reconcile applies the one-time effects of flags switched on since old.
func (c *Collection) reconcile(old Flags) {
	if old&FlagSorted == 0 && c.flags&FlagSorted != 0 {
		c.sort()
	}
	if old&FlagUnique == 0 && c.flags&FlagUnique != 0 {
		c.dedupe()
	}
}

// search returns the lowest index in [start, count) whose object is not
// less than obj, and whether that object equals obj.
func (c *Collection) search(start int, obj object.Handle) (int, bool) {
	i, found := slices.BinarySearchFunc(c.buf[start:c.count], obj, c.cmp)
	return start + i, found
}

// fits reports whether obj may sit at index without breaking the order.
// Unique collections require strict order on both sides.
func (c *Collection) fits(index int, obj object.Handle) bool {
	strict := c.flags&FlagUnique != 0
	if index > 0 {
		r := c.cmp(c.buf[index-1], obj)
		if r > 0 || (strict && r == 0) {
			return false
		}
	}
	if index < c.count {
		r := c.cmp(obj, c.buf[index])
		if r > 0 || (strict && r == 0) {
			return false
		}
	}
	return true
}

func (c *Collection) sort() {
	slices.SortStableFunc(c.buf[:c.count], c.cmp)
}

// dedupe deletes each object equal to its immediate predecessor.
func (c *Collection) dedupe() {
	for i := 1; i < c.count; {
		if c.cmp(c.buf[i-1], c.buf[i]) == 0 {
			c.Delete(i)
			continue
		}
		i++
	}
}

func (c *Collection) readIndex() int {
	if c.count == 0 {
		return NoIndex
	}
	if c.flags&FlagQueue != 0 {
		return 0
	}
	return c.count - 1
}

func (c *Collection) resize(capacity int) {
	buf := make([]object.Handle, capacity)
	copy(buf, c.buf[:c.count])
	c.buf = buf

	slog.Debug("collection resized",
		"id", object.ID(c),
		"capacity", capacity,
		"count", c.count,
	)
}

func (c *Collection) live(op string) {
	object.MustCheck(c, object.CapCollection, op)
}

func (c *Collection) checkElem(op string, obj object.Handle) {
	if obj == nil {
		object.Fail(object.ErrCodeBadArgument, op, "missing object")
	}
	object.MustCheck(obj, c.elemCaps, op)
}

// destroy runs the OnDestroy hook, releases every stored object and the
// staged one, then drops the buffer.
func destroy(h object.Handle) {
	c := h.(*Collection)
	if c.onDestroy != nil {
		c.onDestroy(c)
	}
	for i := 0; i < c.count; i++ {
		object.Release(c.buf[i])
		c.buf[i] = nil
	}
	c.count = 0
	object.Release(c.deleted)
	c.deleted = nil
	c.buf = nil
}

// stringify renders the contents as [e0 e1 ...].
func stringify(h object.Handle) string {
	c := h.(*Collection)
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < c.count; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(object.String(c.buf[i]))
	}
	b.WriteByte(']')
	return b.String()
}
