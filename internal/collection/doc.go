// Package collection implements Collection, the ordered store of object
// handles every other layer uses for arrays, sets, stacks and queues.
//
// A Collection owns exactly one reference per stored object, acquired on a
// successful Insert and discharged once, after the object leaves through
// Delete (via the staging slot) or at teardown.
//
// Flags:
//
//	FlagSorted      buffer kept non-decreasing; Add inserts in order
//	FlagUnique      comparator-equal duplicates rejected (implies FlagSorted)
//	FlagQueue       Check/Pick read the head instead of the tail
//	FlagUnlimited   a full buffer grows by one chunk
//	FlagAutoresize  also shrinks by one chunk when more than a chunk is free
//
// Recoverable failures (full buffer, order or uniqueness violations, bad
// indexes, failed searches) return NoIndex or nil. Structural misuse (a dead
// collection, a missing object, an object lacking the element capability)
// panics with *object.ContractError.
//
// Collections are not safe for concurrent use and take no locks.
package collection
