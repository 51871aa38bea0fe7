// Package negative runs negative tests over a session: the expected calls of
// a successful run are snapshotted, then the code under test is re-run once
// per expected call that can fail, with that call marked to fail.
//
//	s.Expect(call.New("alloc", 16)).SetReturn(buf).SetFailReturn(nil)
//	s.Expect(call.New("open", "a.txt")).SetReturn(3).SetFailReturn(-1)
//
//	d := negative.New(s)
//	defer d.Close()
//	if err := d.Snapshot(); err != nil {
//	    t.Fatal(err)
//	}
//	err := d.Run(func(i int) {
//	    if err := codeUnderTest(); err == nil {
//	        t.Errorf("call %d failed but codeUnderTest succeeded", i)
//	    }
//	})
package negative

import (
	"errors"
	"fmt"

	"github.com/getmockd/callmock/pkg/recorder"
	"github.com/getmockd/callmock/pkg/session"
)

// ErrNoSnapshot is returned by operations that need a snapshot before
// Snapshot has been called.
var ErrNoSnapshot = errors.New("no snapshot taken")

// Driver drives negative tests for one session.
type Driver struct {
	s        *session.Session
	snapshot *recorder.Recorder
}

// New creates a driver for s.
func New(s *session.Session) *Driver {
	return &Driver{s: s}
}

// Snapshot stores a copy of the session's current expected and actual calls.
// A previous snapshot is discarded.
func (d *Driver) Snapshot() error {
	clone, err := d.s.Recorder().Clone()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	d.snapshot.Close()
	d.snapshot = clone
	return nil
}

// CallCount returns the number of expected calls in the snapshot.
func (d *Driver) CallCount() (int, error) {
	if d.snapshot == nil {
		return 0, ErrNoSnapshot
	}
	return d.snapshot.ExpectedCallCount()
}

// Reset restores the session recorder to the snapshot. The session gets a
// fresh copy, so the snapshot can be restored again.
func (d *Driver) Reset() error {
	if d.snapshot == nil {
		return ErrNoSnapshot
	}
	clone, err := d.snapshot.Clone()
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	d.s.SwapRecorder(clone).Close()
	return nil
}

// FailCall marks the expected call at index of the session recorder to fail.
func (d *Driver) FailCall(index int) error {
	return d.s.Recorder().FailCall(index)
}

// CanCallFail reports whether the snapshot's expected call at index can fail.
func (d *Driver) CanCallFail(index int) (bool, error) {
	if d.snapshot == nil {
		return false, ErrNoSnapshot
	}
	return d.snapshot.CanCallFail(index)
}

// Run calls fn once for every expected call in the snapshot that can fail,
// after restoring the snapshot and marking that call to fail.
func (d *Driver) Run(fn func(index int)) error {
	count, err := d.CallCount()
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		canFail, err := d.CanCallFail(i)
		if err != nil {
			return err
		}
		if !canFail {
			d.s.Logger().Debug("skipping call that cannot fail", "index", i)
			continue
		}
		if err := d.Reset(); err != nil {
			return err
		}
		if err := d.FailCall(i); err != nil {
			return fmt.Errorf("fail call %d: %w", i, err)
		}
		d.s.Logger().Debug("running negative test", "index", i, "calls", count)
		fn(i)
	}
	return nil
}

// Close discards the snapshot.
func (d *Driver) Close() {
	d.snapshot.Close()
	d.snapshot = nil
}
