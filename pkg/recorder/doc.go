// Package recorder implements the call recorder at the heart of callmock.
//
// A Recorder owns two ordered lists of calls: the expected calls registered by
// the test author and the actual calls made by the code under test that did
// not match an expectation. Every incoming actual call is compared against the
// oldest outstanding expected call only, which gives strict in-order
// verification:
//
//	rec := recorder.New()
//	defer rec.Close()
//
//	_ = rec.AddExpectedCall(call.New("open", "a.txt"))
//	matched, err := rec.AddActualCall(call.New("open", "a.txt"))
//	// matched is the expected call, now owned by the caller
//
// An expected call with IgnoreAllCalls set is a standing wildcard: equal
// actual calls are absorbed without being recorded and the expectation is
// never consumed.
//
// # Ownership
//
// The recorder owns every call it stores and destroys it on ResetAllCalls or
// Close. A matched expected call is handed back to the caller, who must
// destroy it. When an add operation fails, ownership of the argument is not
// transferred.
//
// # Locking
//
// The recorder does not synchronize by itself. Callers that share a recorder
// between goroutines install a lock/unlock pair with SetLockFunctions;
// NewRWMutexLocks provides one backed by sync.RWMutex. Mutating operations
// take the lock in LockWrite mode and read-only operations in LockRead mode.
package recorder
