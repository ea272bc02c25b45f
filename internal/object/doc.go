// Package object implements the reference-counted object runtime.
//
// Every heap entity embeds an Object header carrying a capability mask, a
// reference count, an optional destructor and an optional stringifier.
// Concrete kinds satisfy Handle by embedding Object and are initialized with
// Init (count 0) or InitRetained (count 1). Raw objects with no payload are
// created with New and NewRetained.
//
// LIFETIME:
//
//   - Retain increments the count.
//   - Release decrements it (never below zero). When it reaches zero the
//     destructor runs exactly once and the header is cleared, after which the
//     handle fails every TypeCheck.
//   - Releasing a live object whose count is already zero destroys it. This
//     is how an object built with New and never retained is disposed of.
//
// ERROR TIERS:
//
// Programmer errors (an absent or destroyed handle where a live one is
// required, a capability mismatch, initializing a header twice) panic with a
// *ContractError. They are not meant to be recovered in normal operation;
// Guard exists for tooling that must report a violation and carry on.
// Recoverable conditions are reported by the callers' sentinel returns.
//
// CONCURRENCY:
//
// There is no locking anywhere in this package. Reference counts are plain
// integers updated with read-modify-write sequences, so every object and
// everything that holds it must be used from a single goroutine. Callers that
// share objects across goroutines must supply their own mutual exclusion.
// Only identifier allocation is safe for concurrent use.
package object
