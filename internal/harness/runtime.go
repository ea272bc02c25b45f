package harness

import (
	"cmp"
	"strconv"

	"github.com/roach88/clumsy/internal/collection"
	"github.com/roach88/clumsy/internal/object"
	"github.com/roach88/clumsy/internal/pool"
)

// item is the object kind created by the new op.
type item struct {
	object.Object
	key int64
}

// outcomeKind says which expectation a step's result can be checked against.
type outcomeKind int

const (
	outcomeNone outcomeKind = iota
	outcomeIndex
	outcomeObject
	outcomeCount
	outcomeBool
)

// outcome is the observable result of one step.
type outcome struct {
	kind   outcomeKind
	index  int
	object string // "" for an absent object
	count  int
	flag   bool
}

func (o outcome) String() string {
	switch o.kind {
	case outcomeIndex:
		return strconv.Itoa(o.index)
	case outcomeObject:
		if o.object == "" {
			return "nil"
		}
		return o.object
	case outcomeCount:
		return strconv.Itoa(o.count)
	case outcomeBool:
		return strconv.FormatBool(o.flag)
	}
	return ""
}

// runtime executes steps against live objects bound to scenario names.
type runtime struct {
	pools   *pool.Stack
	objects map[string]object.Handle
	names   map[object.Handle]string
	fired   []string
}

func newRuntime() *runtime {
	return &runtime{
		pools:   pool.New(),
		objects: make(map[string]object.Handle),
		names:   make(map[object.Handle]string),
	}
}

// drain returns the names destroyed since the last drain.
func (rt *runtime) drain() []string {
	fired := rt.fired
	rt.fired = nil
	return fired
}

func (rt *runtime) bind(name string, h object.Handle) {
	rt.objects[name] = h
	if _, ok := rt.names[h]; !ok {
		rt.names[h] = name
	}
}

// nameOf returns the name an object was first bound to, or "" for nil.
func (rt *runtime) nameOf(h object.Handle) string {
	if h == nil {
		return ""
	}
	if name, ok := rt.names[h]; ok {
		return name
	}
	return "?"
}

func (rt *runtime) lookup(name string) object.Handle {
	h, ok := rt.objects[name]
	if !ok {
		object.Fail(object.ErrCodeBadArgument, "lookup", "%q is not bound", name)
	}
	return h
}

// collection resolves name to a collection, failing the way the runtime
// fails for a handle without the collection capability.
func (rt *runtime) collection(name, op string) *collection.Collection {
	c, ok := rt.lookup(name).(*collection.Collection)
	if !ok {
		object.Fail(object.ErrCodeCapabilityMismatch, op, "%s is not a collection", name)
	}
	return c
}

func (rt *runtime) comparator(name string) collection.Comparator {
	switch name {
	case CompareKey:
		return func(a, b object.Handle) int {
			return cmp.Compare(keyOf(a), keyOf(b))
		}
	case CompareName:
		return func(a, b object.Handle) int {
			return cmp.Compare(rt.nameOf(a), rt.nameOf(b))
		}
	}
	return nil
}

func keyOf(h object.Handle) int64 {
	if it, ok := h.(*item); ok {
		return it.key
	}
	return 0
}

// apply executes one step. Contract violations panic out of apply and are
// recovered by the caller.
func (rt *runtime) apply(step Step) outcome {
	switch step.Op {
	case OpNew:
		return rt.newObject(step)
	case OpCollection:
		return rt.newCollection(step)
	case OpRetain:
		h := object.Retain(rt.lookup(step.Object))
		return outcome{kind: outcomeCount, count: object.RefCount(h)}
	case OpRelease:
		h := object.Release(rt.lookup(step.Object))
		return outcome{kind: outcomeObject, object: rt.nameOf(h)}
	case OpAutorelease:
		rt.pools.Autorelease(rt.lookup(step.Object))
		return outcome{kind: outcomeCount, count: rt.pools.Pending()}
	case OpPush:
		rt.pools.Push()
		return outcome{kind: outcomeCount, count: rt.pools.Depth()}
	case OpPop:
		rt.pools.Pop()
		return outcome{kind: outcomeCount, count: rt.pools.Depth()}
	}

	c := rt.collection(step.Target, step.Op)
	switch step.Op {
	case OpAdd:
		return outcome{kind: outcomeIndex, index: c.Add(rt.lookup(step.Object))}
	case OpInsert:
		return outcome{kind: outcomeIndex, index: c.Insert(*step.Index, rt.lookup(step.Object))}
	case OpFind:
		start := 0
		if step.Index != nil {
			start = *step.Index
		}
		return outcome{kind: outcomeIndex, index: c.Find(start, rt.lookup(step.Object))}
	case OpGet:
		return outcome{kind: outcomeObject, object: rt.nameOf(c.Get(*step.Index))}
	case OpCheck:
		return outcome{kind: outcomeObject, object: rt.nameOf(c.Check())}
	case OpPick:
		h := c.Pick()
		if h != nil && step.Name != "" {
			rt.bind(step.Name, h)
		}
		return outcome{kind: outcomeObject, object: rt.nameOf(h)}
	case OpRemove:
		return outcome{kind: outcomeCount, count: c.Remove(rt.lookup(step.Object))}
	case OpDelete:
		return outcome{kind: outcomeObject, object: rt.nameOf(c.Delete(*step.Index))}
	case OpReleaseDeleted:
		c.ReleaseDeleted()
	case OpFlagSet:
		c.FlagSet(mustFlags(step.Flags))
	case OpFlagUnset:
		c.FlagUnset(mustFlags(step.Flags))
	case OpFlagCheck:
		return outcome{kind: outcomeBool, flag: c.FlagCheck(mustFlags(step.Flags))}
	case OpComparator:
		c.SetComparator(rt.comparator(step.Comparator))
	}
	return outcome{}
}

func (rt *runtime) newObject(step Step) outcome {
	name := step.Name
	dest := func(object.Handle) {
		rt.fired = append(rt.fired, name)
	}
	label := object.WithStringer(func(object.Handle) string { return name })

	it := &item{key: step.Key}
	if step.Raw {
		object.Init(it, mustCaps(step.Caps), dest, label)
	} else {
		object.InitRetained(it, mustCaps(step.Caps), dest, label)
	}
	rt.bind(name, it)
	return outcome{}
}

func (rt *runtime) newCollection(step Step) outcome {
	name := step.Name
	opts := []collection.Option{
		collection.OnDestroy(func(*collection.Collection) {
			rt.fired = append(rt.fired, name)
		}),
	}
	if order := rt.comparator(step.Comparator); order != nil {
		opts = append(opts, collection.WithComparator(order))
	}

	c := collection.New(step.Chunk, mustCaps(step.Caps), mustFlags(step.Flags), opts...)
	rt.bind(name, c)
	return outcome{}
}

// mustCaps and mustFlags parse names already checked by validateScenario.
func mustCaps(names []string) object.Capability {
	caps, err := object.ParseCapability(names...)
	if err != nil {
		object.Fail(object.ErrCodeBadArgument, "caps", "%v", err)
	}
	return caps
}

func mustFlags(names []string) collection.Flags {
	flags, err := collection.ParseFlags(names...)
	if err != nil {
		object.Fail(object.ErrCodeBadArgument, "flags", "%v", err)
	}
	return flags
}
