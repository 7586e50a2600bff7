// Package approval implements the time-bound approval workflow that gates
// sensitive state changes.
//
// A Request moves from pending to exactly one terminal status: approved,
// rejected, or expired. Transitions are compare-and-set UPDATEs guarded on the
// pending status at the storage layer, so two racing approvals cannot both
// succeed. Expiry is lazy: nothing runs on a schedule inside this package, and
// every read or transition path that matters re-checks the deadline first. The
// reaper daemon adds a periodic sweep on top for operators who want it.
//
// Each request carries exactly one action as a kind plus an opaque JSON
// payload. Action kinds implement the Action contract and register a factory;
// the engine holds no knowledge of action semantics beyond that contract.
package approval
