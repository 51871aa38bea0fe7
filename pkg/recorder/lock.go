package recorder

import (
	"errors"
	"fmt"
	"sync"
)

// LockType selects shared or exclusive access.
type LockType int

// Lock types.
const (
	LockRead LockType = iota
	LockWrite
)

func (t LockType) String() string {
	switch t {
	case LockRead:
		return "read"
	case LockWrite:
		return "write"
	default:
		return fmt.Sprintf("LockType(%d)", int(t))
	}
}

// LockFunc acquires the recorder lock. ctx is the value passed to
// SetLockFunctions.
type LockFunc func(ctx any, lockType LockType) error

// UnlockFunc releases the recorder lock.
type UnlockFunc func(ctx any, lockType LockType) error

// ErrUnknownLockType is returned by the RWMutex lock functions for a lock
// type other than LockRead or LockWrite.
var ErrUnknownLockType = errors.New("unknown lock type")

// NewRWMutexLocks returns a lock/unlock pair backed by a sync.RWMutex, and
// the context to pass alongside them to SetLockFunctions.
func NewRWMutexLocks() (LockFunc, UnlockFunc, any) {
	return lockRWMutex, unlockRWMutex, &sync.RWMutex{}
}

func lockRWMutex(ctx any, lockType LockType) error {
	mu, ok := ctx.(*sync.RWMutex)
	if !ok {
		return fmt.Errorf("lock context is %T, want *sync.RWMutex", ctx)
	}
	switch lockType {
	case LockRead:
		mu.RLock()
	case LockWrite:
		mu.Lock()
	default:
		return fmt.Errorf("%w: %v", ErrUnknownLockType, lockType)
	}
	return nil
}

func unlockRWMutex(ctx any, lockType LockType) error {
	mu, ok := ctx.(*sync.RWMutex)
	if !ok {
		return fmt.Errorf("lock context is %T, want *sync.RWMutex", ctx)
	}
	switch lockType {
	case LockRead:
		mu.RUnlock()
	case LockWrite:
		mu.Unlock()
	default:
		return fmt.Errorf("%w: %v", ErrUnknownLockType, lockType)
	}
	return nil
}

// SetLockFunctions installs the lock/unlock pair used by every subsequent
// operation. Both functions must be set, or both nil to remove locking; ctx
// may be nil either way.
//
// SetLockFunctions is itself unsynchronized and should be called before the
// recorder is shared.
func (r *Recorder) SetLockFunctions(lock LockFunc, unlock UnlockFunc, ctx any) error {
	if r == nil {
		return ErrNilRecorder
	}
	if (lock == nil) != (unlock == nil) {
		return ErrLockFunctions
	}

	r.lock = lock
	r.unlock = unlock
	r.lockCtx = ctx
	return nil
}

// acquire takes the lock if lock functions are configured.
func (r *Recorder) acquire(lockType LockType) error {
	if r.lock == nil {
		return nil
	}
	if err := r.lock(r.lockCtx, lockType); err != nil {
		return fmt.Errorf("%w (%s): %w", ErrLock, lockType, err)
	}
	return nil
}

// release drops the lock. An unlock failure does not change the result of
// the operation that held the lock; it is only logged.
func (r *Recorder) release(lockType LockType) {
	if r.unlock == nil {
		return
	}
	if err := r.unlock(r.lockCtx, lockType); err != nil {
		r.logger.Warn("releasing recorder lock failed", "lock_type", lockType.String(), "error", err)
	}
}
