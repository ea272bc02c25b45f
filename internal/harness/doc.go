// Package harness runs scripted scenarios against the object runtime and
// records what happened.
//
// # Scenario Format
//
// Scenarios are YAML documents validated against an embedded CUE schema
// and then decoded strictly (unknown fields are errors):
//
//	name: array_lifecycle
//	description: "Chunked growth and shrink of a plain collection"
//	run_id: optional-fixed-id
//	steps:
//	  - op: collection
//	    name: c
//	    chunk: 3
//	  - op: new
//	    name: o1
//	  - op: add
//	    target: c
//	    object: o1
//	    expect_index: 0
//	  - op: pop
//	    expect_violation: NO_POOL
//	assertions:
//	  - type: refs
//	    object: o1
//	    count: 2
//
// Steps name the objects they create (new, collection, pick) and refer to
// them by name afterwards. Every Object, Collection and pool operation has
// an op. A step may carry one expectation: expect_index, expect_object
// (the bound name, or "" for no object), expect_count, expect_bool or
// expect_violation.
//
// # Violations
//
// A contract violation panics inside the runtime. The harness recovers it
// per step, records a violation event carrying the contract code and moves
// on, so scenarios can assert that misuse is detected.
//
// # Assertion Types
//
//   - destroyed: destructor firings for an object, counted from the store
//   - refs: reference count of a live object
//   - capacity, count: slot and element counts of a live collection
//   - contents: element names of a live collection in index order
//   - alive: whether the object has been destroyed
//
// # Deterministic Traces
//
// Events are stamped from a per-run logical clock and refer to objects by
// scenario name, never by runtime id, so the same scenario always produces
// the same trace. Each run is persisted to a SQLite store, in memory unless
// WithStore supplies one.
package harness
