package recorder

import (
	"errors"

	"github.com/getmockd/callmock/pkg/call"
)

var errInjected = errors.New("injected failure")

// event is one collaborator invocation observed by a test.
type event struct {
	op   string
	call string
	arg  string
}

// journal records collaborator invocations in order, across calls and lock
// functions.
type journal struct {
	events []event
}

func (j *journal) add(op, c, arg string) {
	j.events = append(j.events, event{op: op, call: c, arg: arg})
}

func (j *journal) ops() []string {
	out := make([]string, len(j.events))
	for i, e := range j.events {
		out[i] = e.op
	}
	return out
}

func (j *journal) reset() { j.events = nil }

// fakeCall is a call.Call double. Two fakeCalls compare equal when their
// keys are equal, unless compareErr is set.
type fakeCall struct {
	name string
	key  string
	j    *journal

	ignoreAll  bool
	ignoreErr  error
	compareErr error
	stringErr  error
	cloneErr   error
	setFailErr error
	canFail    bool
	canFailErr error

	failCall  bool
	destroyed bool
	clones    int
}

var _ call.Call = (*fakeCall)(nil)

func newFake(j *journal, name, key string) *fakeCall {
	return &fakeCall{name: name, key: key, j: j, canFail: true}
}

func (f *fakeCall) Clone() (call.Call, error) {
	f.j.add("clone", f.name, "")
	if f.cloneErr != nil {
		return nil, f.cloneErr
	}
	f.clones++
	clone := *f
	clone.name = f.name + "'"
	return &clone, nil
}

func (f *fakeCall) Destroy() {
	f.j.add("destroy", f.name, "")
	f.destroyed = true
}

func (f *fakeCall) String() (string, error) {
	f.j.add("stringify", f.name, "")
	if f.stringErr != nil {
		return "", f.stringErr
	}
	return "[" + f.key + "]", nil
}

func (f *fakeCall) Compare(actual call.Call) (bool, error) {
	other := actual.(*fakeCall)
	f.j.add("compare", f.name, other.name)
	if f.compareErr != nil {
		return false, f.compareErr
	}
	return f.key == other.key, nil
}

func (f *fakeCall) IgnoreAllCalls() (bool, error) {
	f.j.add("ignore_all_calls", f.name, "")
	if f.ignoreErr != nil {
		return false, f.ignoreErr
	}
	return f.ignoreAll, nil
}

func (f *fakeCall) FailCall() bool { return f.failCall }

func (f *fakeCall) SetFailCall(fail bool) error {
	f.j.add("set_fail_call", f.name, "")
	if f.setFailErr != nil {
		return f.setFailErr
	}
	f.failCall = fail
	return nil
}

func (f *fakeCall) CanFail() (bool, error) {
	f.j.add("can_fail", f.name, "")
	if f.canFailErr != nil {
		return false, f.canFailErr
	}
	return f.canFail, nil
}

// fakeLocks returns lock functions that journal every invocation and fail
// when lockErr / unlockErr are set.
type fakeLocks struct {
	j         *journal
	lockErr   error
	unlockErr error
	contexts  []any
}

func (l *fakeLocks) lock(ctx any, lockType LockType) error {
	l.j.add("lock", "", lockType.String())
	l.contexts = append(l.contexts, ctx)
	return l.lockErr
}

func (l *fakeLocks) unlock(ctx any, lockType LockType) error {
	l.j.add("unlock", "", lockType.String())
	l.contexts = append(l.contexts, ctx)
	return l.unlockErr
}
