// Package trace records what a scenario run did to the object runtime.
//
// Every operation, destructor firing and contract violation becomes an Event
// stamped with a logical sequence number. Events serialize to canonical JSON
// so two runs of the same scenario produce byte-identical traces, which is
// what golden files and the SQLite store both rely on.
package trace
