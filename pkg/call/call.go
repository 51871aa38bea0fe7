// Package call defines the call record consumed by the call recorder and a
// stock implementation for mocked functions.
package call

import "errors"

// Errors returned by calls.
var (
	ErrDestroyed          = errors.New("call has been destroyed")
	ErrArgIndexOutOfRange = errors.New("argument index out of range")
)

// Call is a single recorded call: the function identity, its captured
// arguments and the comparison semantics between an expected and an actual
// call.
//
// A recorder that accepts a Call owns it from then on and releases it with
// Destroy. Implementations need not be safe for concurrent use; the recorder
// serializes access through its lock functions.
type Call interface {
	// Clone returns an independent copy of the call.
	Clone() (Call, error)

	// Destroy releases the call. Destroy cannot fail.
	Destroy()

	// String renders the call. Rendered calls are self-delimiting so that
	// several of them can be concatenated without a separator.
	String() (string, error)

	// Compare reports whether actual satisfies the receiver, which is the
	// expected call. An error means the comparison itself failed and is
	// distinct from "not equal".
	Compare(actual Call) (bool, error)

	// IgnoreAllCalls reports whether the call is a standing wildcard
	// expectation that absorbs every equal actual call.
	IgnoreAllCalls() (bool, error)

	// FailCall reports whether the call was marked to simulate a failure.
	FailCall() bool

	// SetFailCall marks or unmarks the call for failure simulation.
	SetFailCall(fail bool) error

	// CanFail reports whether marking the call to fail is meaningful.
	CanFail() (bool, error)
}
