package recorder

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/getmockd/callmock/pkg/call"
	"github.com/getmockd/callmock/pkg/logging"
)

// Recorder stores expected and actual calls and matches actual calls against
// the expected ones. The zero value is not usable; create one with New.
type Recorder struct {
	expected []call.Call
	actual   []call.Call

	lock    LockFunc
	unlock  UnlockFunc
	lockCtx any

	logger         *slog.Logger
	metrics        *Metrics
	haltOnMismatch bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger used for matching decisions and lock warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithHaltOnMismatch stops all matching once an actual call has been
// recorded as unmatched: from then on every actual call is appended to the
// actual list, including calls a wildcard expectation would have absorbed.
func WithHaltOnMismatch() Option {
	return func(r *Recorder) {
		r.haltOnMismatch = true
	}
}

// New creates an empty recorder without lock functions.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		expected: make([]call.Call, 0),
		actual:   make([]call.Call, 0),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close destroys every remaining expected call, then every remaining actual
// call. Close on a nil recorder does nothing. The recorder must not be used
// afterwards.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.destroyAll()
}

// destroyAll destroys and clears both lists.
func (r *Recorder) destroyAll() {
	for i, c := range r.expected {
		c.Destroy()
		r.expected[i] = nil
	}
	for i, c := range r.actual {
		c.Destroy()
		r.actual[i] = nil
	}
	r.expected = r.expected[:0]
	r.actual = r.actual[:0]
}

// ResetAllCalls destroys all expected and actual calls, leaving the recorder
// empty and usable.
func (r *Recorder) ResetAllCalls() error {
	if r == nil {
		return ErrNilRecorder
	}
	if err := r.acquire(LockWrite); err != nil {
		r.metrics.failure("reset_all_calls")
		return err
	}
	defer r.release(LockWrite)

	r.destroyAll()
	r.metrics.reset()
	r.logger.Debug("reset all calls")
	return nil
}

// AddExpectedCall appends c to the expected calls. On success the recorder
// owns c; on failure the caller still does.
func (r *Recorder) AddExpectedCall(c call.Call) error {
	if r == nil {
		return ErrNilRecorder
	}
	if c == nil {
		return ErrNilCall
	}
	if err := r.acquire(LockWrite); err != nil {
		r.metrics.failure("add_expected_call")
		return err
	}
	defer r.release(LockWrite)

	r.expected = append(r.expected, c)
	r.metrics.expected()
	return nil
}

// AddActualCall records an actual call and matches it against the oldest
// outstanding expected call. Only that one expected call is ever consulted:
//
//   - equal and a wildcard: c is absorbed (destroyed, not recorded), the
//     expectation stays, and matched is nil.
//   - equal: the expected call is removed and returned as matched, now owned
//     by the caller, and c is destroyed.
//   - not equal, or no expected calls: c is appended to the actual calls and
//     matched is nil.
//
// On failure nothing is modified and the caller still owns c.
func (r *Recorder) AddActualCall(c call.Call) (matched call.Call, err error) {
	if r == nil {
		return nil, ErrNilRecorder
	}
	if c == nil {
		return nil, ErrNilCall
	}
	if err := r.acquire(LockWrite); err != nil {
		r.metrics.failure("add_actual_call")
		return nil, err
	}
	defer r.release(LockWrite)

	if len(r.expected) == 0 || (r.haltOnMismatch && len(r.actual) > 0) {
		r.appendActual(c)
		return nil, nil
	}

	expected := r.expected[0]

	ignoreAll, err := expected.IgnoreAllCalls()
	if err != nil {
		r.metrics.failure("add_actual_call")
		return nil, fmt.Errorf("reading ignore all calls of expected call: %w", err)
	}

	equal, err := expected.Compare(c)
	if err != nil {
		r.metrics.failure("add_actual_call")
		return nil, fmt.Errorf("comparing actual call with expected call: %w", err)
	}

	switch {
	case equal && ignoreAll:
		c.Destroy()
		r.metrics.actual(OutcomeAbsorbed)
		r.logger.Debug("actual call absorbed by wildcard expectation")
		return nil, nil

	case equal:
		copy(r.expected, r.expected[1:])
		r.expected[len(r.expected)-1] = nil
		r.expected = r.expected[:len(r.expected)-1]
		c.Destroy()
		r.metrics.actual(OutcomeMatched)
		r.logger.Debug("actual call matched expected call", "remaining_expected", len(r.expected))
		return expected, nil

	default:
		r.appendActual(c)
		return nil, nil
	}
}

// appendActual records an unmatched actual call. The write lock is held.
func (r *Recorder) appendActual(c call.Call) {
	r.actual = append(r.actual, c)
	r.metrics.actual(OutcomeUnmatched)
	r.logger.Debug("actual call recorded as unmatched", "actual_calls", len(r.actual))
}

// ActualCalls renders the unmatched actual calls, in invocation order,
// concatenated without separator. No calls renders as "".
func (r *Recorder) ActualCalls() (string, error) {
	if r == nil {
		return "", ErrNilRecorder
	}
	if err := r.acquire(LockRead); err != nil {
		r.metrics.failure("get_actual_calls")
		return "", err
	}
	defer r.release(LockRead)

	var b strings.Builder
	for i, c := range r.actual {
		s, err := c.String()
		if err != nil {
			r.metrics.failure("get_actual_calls")
			return "", fmt.Errorf("stringifying actual call %d: %w", i, err)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// ExpectedCalls renders the outstanding expected calls like ActualCalls.
// Wildcard expectations are left out.
func (r *Recorder) ExpectedCalls() (string, error) {
	if r == nil {
		return "", ErrNilRecorder
	}
	if err := r.acquire(LockRead); err != nil {
		r.metrics.failure("get_expected_calls")
		return "", err
	}
	defer r.release(LockRead)

	var b strings.Builder
	for i, c := range r.expected {
		ignoreAll, err := c.IgnoreAllCalls()
		if err != nil {
			r.metrics.failure("get_expected_calls")
			return "", fmt.Errorf("reading ignore all calls of expected call %d: %w", i, err)
		}
		if ignoreAll {
			continue
		}

		s, err := c.String()
		if err != nil {
			r.metrics.failure("get_expected_calls")
			return "", fmt.Errorf("stringifying expected call %d: %w", i, err)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// LastExpectedCall returns the most recently added expected call, or nil if
// there is none. The recorder keeps ownership of the returned call.
func (r *Recorder) LastExpectedCall() (call.Call, error) {
	if r == nil {
		return nil, ErrNilRecorder
	}
	if err := r.acquire(LockRead); err != nil {
		r.metrics.failure("get_last_expected_call")
		return nil, err
	}
	defer r.release(LockRead)

	if len(r.expected) == 0 {
		return nil, nil
	}
	return r.expected[len(r.expected)-1], nil
}

// ExpectedCallCount returns the number of outstanding expected calls,
// wildcard expectations included.
func (r *Recorder) ExpectedCallCount() (int, error) {
	if r == nil {
		return 0, ErrNilRecorder
	}
	if err := r.acquire(LockRead); err != nil {
		r.metrics.failure("get_expected_call_count")
		return 0, err
	}
	defer r.release(LockRead)

	return len(r.expected), nil
}

// FailCall marks the expected call at index to simulate a failure when it is
// matched.
func (r *Recorder) FailCall(index int) error {
	if r == nil {
		return ErrNilRecorder
	}
	if err := r.acquire(LockWrite); err != nil {
		r.metrics.failure("fail_call")
		return err
	}
	defer r.release(LockWrite)

	if index < 0 || index >= len(r.expected) {
		r.metrics.failure("fail_call")
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(r.expected))
	}
	if err := r.expected[index].SetFailCall(true); err != nil {
		r.metrics.failure("fail_call")
		return fmt.Errorf("marking expected call %d to fail: %w", index, err)
	}
	return nil
}

// CanCallFail reports whether the expected call at index can be made to fail.
func (r *Recorder) CanCallFail(index int) (bool, error) {
	if r == nil {
		return false, ErrNilRecorder
	}
	if err := r.acquire(LockRead); err != nil {
		r.metrics.failure("can_call_fail")
		return false, err
	}
	defer r.release(LockRead)

	if index < 0 || index >= len(r.expected) {
		r.metrics.failure("can_call_fail")
		return false, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(r.expected))
	}
	canFail, err := r.expected[index].CanFail()
	if err != nil {
		r.metrics.failure("can_call_fail")
		return false, fmt.Errorf("reading can fail of expected call %d: %w", index, err)
	}
	return canFail, nil
}

// Clone deep-copies the recorder: every expected and actual call is cloned,
// and the options and lock functions are carried over. On failure every call
// cloned so far is destroyed and r is left untouched.
func (r *Recorder) Clone() (*Recorder, error) {
	if r == nil {
		return nil, ErrNilRecorder
	}
	if err := r.acquire(LockRead); err != nil {
		r.metrics.failure("clone")
		return nil, err
	}
	defer r.release(LockRead)

	clone := &Recorder{
		expected:       make([]call.Call, 0, len(r.expected)),
		actual:         make([]call.Call, 0, len(r.actual)),
		lock:           r.lock,
		unlock:         r.unlock,
		lockCtx:        r.lockCtx,
		logger:         r.logger,
		metrics:        r.metrics,
		haltOnMismatch: r.haltOnMismatch,
	}

	for i, c := range r.expected {
		cloned, err := cloneCall(c)
		if err != nil {
			clone.destroyAll()
			r.metrics.failure("clone")
			return nil, fmt.Errorf("cloning expected call %d: %w", i, err)
		}
		clone.expected = append(clone.expected, cloned)
	}
	for i, c := range r.actual {
		cloned, err := cloneCall(c)
		if err != nil {
			clone.destroyAll()
			r.metrics.failure("clone")
			return nil, fmt.Errorf("cloning actual call %d: %w", i, err)
		}
		clone.actual = append(clone.actual, cloned)
	}
	return clone, nil
}

func cloneCall(c call.Call) (call.Call, error) {
	cloned, err := c.Clone()
	if err != nil {
		return nil, err
	}
	if cloned == nil {
		return nil, ErrNilCall
	}
	return cloned, nil
}
