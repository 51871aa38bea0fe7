package recorder

import "errors"

// Errors returned by Recorder operations. Collaborator failures (Compare,
// String, Clone and the flag accessors of a call) are wrapped with the
// operation that hit them.
var (
	ErrNilRecorder     = errors.New("call recorder is nil")
	ErrNilCall         = errors.New("call is nil")
	ErrLockFunctions   = errors.New("lock and unlock functions must be set together")
	ErrLock            = errors.New("acquiring recorder lock failed")
	ErrIndexOutOfRange = errors.New("expected call index out of range")
)
