package testing

import (
	"testing"

	"github.com/getmockd/callmock/pkg/session"
)

// AssertExpectations asserts that s holds no outstanding expected calls and
// no unmatched actual calls.
func AssertExpectations(t testing.TB, s *session.Session) bool {
	t.Helper()

	expected, ok := renderExpected(t, s)
	if !ok {
		return false
	}
	actual, ok := renderActual(t, s)
	if !ok {
		return false
	}

	if expected != "" || actual != "" {
		t.Errorf("calls do not match expectations\nexpected calls not made: %s\nunexpected calls: %s",
			orNone(expected), orNone(actual))
		return false
	}
	return true
}

// AssertExpectedCalls asserts the rendering of the outstanding expected calls.
func AssertExpectedCalls(t testing.TB, s *session.Session, want string) bool {
	t.Helper()

	got, ok := renderExpected(t, s)
	if !ok {
		return false
	}
	if got != want {
		t.Errorf("expected calls do not match\nexpected: %q\nactual: %q", want, got)
		return false
	}
	return true
}

// AssertActualCalls asserts the rendering of the unmatched actual calls.
func AssertActualCalls(t testing.TB, s *session.Session, want string) bool {
	t.Helper()

	got, ok := renderActual(t, s)
	if !ok {
		return false
	}
	if got != want {
		t.Errorf("actual calls do not match\nexpected: %q\nactual: %q", want, got)
		return false
	}
	return true
}

func renderExpected(t testing.TB, s *session.Session) (string, bool) {
	t.Helper()
	out, err := s.ExpectedCalls()
	if err != nil {
		t.Errorf("failed to render expected calls: %v", err)
		return "", false
	}
	return out, true
}

func renderActual(t testing.TB, s *session.Session) (string, bool) {
	t.Helper()
	out, err := s.ActualCalls()
	if err != nil {
		t.Errorf("failed to render actual calls: %v", err)
		return "", false
	}
	return out, true
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
