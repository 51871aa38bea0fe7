package testing

import (
	"log/slog"
	"testing"

	"github.com/getmockd/callmock/pkg/call"
	"github.com/getmockd/callmock/pkg/config"
	"github.com/getmockd/callmock/pkg/logging"
	"github.com/getmockd/callmock/pkg/session"
)

// NewSession creates a session for t with rwmutex locking. Session logs at
// level debug and above go to t.Log, framework errors fail the test, and the
// session is closed when the test completes.
func NewSession(t testing.TB) *session.Session {
	t.Helper()

	cfg := config.Default()
	cfg.Recorder.Locking = config.LockingRWMutex

	s, err := session.New(cfg,
		session.WithLogger(slog.New(logging.NewTestHandler(t, slog.LevelDebug))),
		session.WithErrorHandler(func(e *session.Error) {
			t.Errorf("callmock: %v (%s)", e, e.Hint())
		}),
	)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// Mock is a session bound to a test, with shorthands for building calls.
type Mock struct {
	t testing.TB
	s *session.Session
}

// New creates a Mock backed by NewSession.
func New(t testing.TB) *Mock {
	t.Helper()
	return &Mock{t: t, s: NewSession(t)}
}

// Session returns the underlying session.
func (m *Mock) Session() *session.Session { return m.s }

// Expect registers the next expected call to name.
func (m *Mock) Expect(name string, args ...any) *session.Expectation {
	return m.s.Expect(call.New(name, args...))
}

// ExpectVoid registers the next expected call to a function without result.
func (m *Mock) ExpectVoid(name string, args ...any) *session.Expectation {
	return m.s.Expect(call.NewVoid(name, args...))
}

// Call records a call made by the code under test and returns the value the
// stub should return.
func (m *Mock) Call(name string, args ...any) (any, error) {
	return m.s.Invoke(call.New(name, args...))
}

// Reset clears all expected and actual calls.
func (m *Mock) Reset() {
	m.t.Helper()
	if err := m.s.Reset(); err != nil {
		m.t.Fatalf("failed to reset calls: %v", err)
	}
}

// AssertExpectations asserts that all expected calls were made and no
// unexpected call happened.
func (m *Mock) AssertExpectations(t testing.TB) bool {
	t.Helper()
	return AssertExpectations(t, m.s)
}
