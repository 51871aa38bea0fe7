package session

import (
	"errors"

	"github.com/getmockd/callmock/pkg/call"
)

// Expectation configures the expected call most recently registered with
// Expect. If Expect failed, the error has already been reported and every
// method is a no-op.
type Expectation struct {
	s    *Session
	call *call.FuncCall
}

// Call returns the configured expected call, or nil if Expect failed.
func (e *Expectation) Call() *call.FuncCall { return e.call }

// IgnoreAllCalls turns the expectation into a wildcard that absorbs every
// equal actual call without ever being consumed.
func (e *Expectation) IgnoreAllCalls() *Expectation {
	if e.call != nil {
		e.call.SetIgnoreAllCalls(true)
	}
	return e
}

// CallCannotFail excludes the expectation from negative tests.
func (e *Expectation) CallCannotFail() *Expectation {
	if e.call != nil {
		e.call.SetCannotFail()
	}
	return e
}

// SetReturn sets the value Invoke returns when the expectation is matched.
func (e *Expectation) SetReturn(v any) *Expectation {
	if e.call != nil {
		e.call.SetReturn(v)
	}
	return e
}

// SetFailReturn sets the value Invoke returns when the expectation is matched
// while marked to fail.
func (e *Expectation) SetFailReturn(v any) *Expectation {
	if e.call != nil {
		e.call.SetFailReturn(v)
	}
	return e
}

// IgnoreArgument makes the argument at index match any value. An index out
// of range is reported as CodeArgIndexOutOfRange.
func (e *Expectation) IgnoreArgument(index int) *Expectation {
	if e.call == nil {
		return e
	}
	if err := e.call.IgnoreArgument(index); err != nil {
		code := CodeError
		if errors.Is(err, call.ErrArgIndexOutOfRange) {
			code = CodeArgIndexOutOfRange
		}
		e.s.report(code, "ignore_argument", err)
	}
	return e
}
