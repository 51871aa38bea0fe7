package session

import (
	"errors"
	"fmt"
)

// ErrorCode classifies framework errors reported to the error handler.
type ErrorCode int

// Error codes. Some only exist for parity with mocks generated for other
// runtimes and are never produced by this package.
const (
	CodeArgIndexOutOfRange ErrorCode = iota
	CodeMallocError
	CodeInvalidArgumentBuffer
	CodeCompareCallError
	CodeResetCallsError
	CodeCaptureReturnAlreadyUsed
	CodeNullArgument
	CodeInvalidPairedCalls
	CodeRegisterTypeFailed
	CodeError
)

var codeNames = [...]string{
	CodeArgIndexOutOfRange:       "arg_index_out_of_range",
	CodeMallocError:              "malloc_error",
	CodeInvalidArgumentBuffer:    "invalid_argument_buffer",
	CodeCompareCallError:         "compare_call_error",
	CodeResetCallsError:          "reset_calls_error",
	CodeCaptureReturnAlreadyUsed: "capture_return_already_used",
	CodeNullArgument:             "null_argument",
	CodeInvalidPairedCalls:       "invalid_paired_calls",
	CodeRegisterTypeFailed:       "register_type_failed",
	CodeError:                    "error",
}

func (c ErrorCode) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// Sentinel errors.
var (
	ErrNilSession    = errors.New("session is nil")
	ErrNilCall       = errors.New("call is nil")
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSimulatedFailure is returned by Invoke when the matched expected
	// call was marked to fail. The value returned alongside it is the call's
	// fail return value.
	ErrSimulatedFailure = errors.New("simulated call failure")
)

// Error is a framework error: something went wrong inside the mocking
// machinery rather than in the code under test.
type Error struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Hint returns a user-friendly suggestion for resolving this error.
func (e *Error) Hint() string {
	switch e.Code {
	case CodeArgIndexOutOfRange:
		return "Check the argument index against the number of arguments of the expected call."
	case CodeCompareCallError:
		return "An argument matcher failed to evaluate. Check Expr and Glob matchers against the argument types actually passed."
	case CodeResetCallsError:
		return "Resetting the recorder failed. Check the configured lock functions."
	case CodeNullArgument:
		return "A nil call was passed. Build calls with call.New."
	default:
		return "See the wrapped error for details."
	}
}
