package testing

import (
	"errors"
	"fmt"
	"strings"
	stdtesting "testing"

	"github.com/getmockd/callmock/pkg/call"
	"github.com/getmockd/callmock/pkg/session"
)

// recordingTB captures failures instead of failing the enclosing test.
type recordingTB struct {
	stdtesting.TB
	errors []string
}

func (r *recordingTB) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recordingTB) Helper() {}

// fakeFile is a stub whose methods forward to a Mock.
type fakeFile struct {
	m *Mock
}

func (f *fakeFile) Open(name string) (int, error) {
	v, err := f.m.Call("open", name)
	if err != nil {
		return -1, err
	}
	fd, _ := v.(int)
	return fd, nil
}

func (f *fakeFile) Close(fd int) error {
	_, err := f.m.Call("close", fd)
	return err
}

func useFile(f *fakeFile, name string) error {
	fd, err := f.Open(name)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	return f.Close(fd)
}

func TestMock_ExpectationsMet(t *stdtesting.T) {
	m := New(t)
	m.Expect("open", "a.txt").SetReturn(3).SetFailReturn(-1)
	m.Expect("close", 3)

	if err := useFile(&fakeFile{m: m}, "a.txt"); err != nil {
		t.Fatalf("useFile() error = %v", err)
	}

	if !m.AssertExpectations(t) {
		t.Error("AssertExpectations() = false, want true")
	}
}

func TestMock_SimulatedFailure(t *stdtesting.T) {
	m := New(t)
	m.Expect("open", "a.txt").SetReturn(3).SetFailReturn(-1)
	if err := m.Session().Recorder().FailCall(0); err != nil {
		t.Fatalf("FailCall() error = %v", err)
	}

	err := useFile(&fakeFile{m: m}, "a.txt")
	if !errors.Is(err, session.ErrSimulatedFailure) {
		t.Fatalf("useFile() error = %v, want ErrSimulatedFailure", err)
	}
	AssertExpectations(t, m.Session())
}

func TestAssertExpectations_ReportsMismatch(t *stdtesting.T) {
	m := New(t)
	m.Expect("open", "a.txt")
	if _, err := m.Call("open", "b.txt"); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	rec := &recordingTB{TB: t}
	if AssertExpectations(rec, m.Session()) {
		t.Error("AssertExpectations() = true, want false")
	}
	if len(rec.errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(rec.errors))
	}
	if !strings.Contains(rec.errors[0], `expected calls not made: [open("a.txt")]`) {
		t.Errorf("missing expected calls in %q", rec.errors[0])
	}
	if !strings.Contains(rec.errors[0], `unexpected calls: [open("b.txt")]`) {
		t.Errorf("missing unexpected calls in %q", rec.errors[0])
	}
}

func TestAssertExpectedAndActualCalls(t *stdtesting.T) {
	m := New(t)
	m.Expect("foo", 1)
	m.Expect("foo", 2)
	if _, err := m.Call("foo", 2); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if !AssertExpectedCalls(t, m.Session(), "[foo(1)][foo(2)]") {
		t.Error("AssertExpectedCalls() = false, want true")
	}
	if !AssertActualCalls(t, m.Session(), "[foo(2)]") {
		t.Error("AssertActualCalls() = false, want true")
	}

	rec := &recordingTB{TB: t}
	if AssertActualCalls(rec, m.Session(), "") {
		t.Error("AssertActualCalls() = true, want false")
	}
	if AssertExpectedCalls(rec, m.Session(), "") {
		t.Error("AssertExpectedCalls() = true, want false")
	}
	if len(rec.errors) != 2 {
		t.Errorf("got %d errors, want 2", len(rec.errors))
	}
}

func TestMock_WildcardAndReset(t *stdtesting.T) {
	m := New(t)
	m.ExpectVoid("log", call.Any()).IgnoreAllCalls()

	for _, msg := range []string{"a", "b", "c"} {
		if _, err := m.Call("log", msg); err != nil {
			t.Fatalf("Call() error = %v", err)
		}
	}
	m.AssertExpectations(t)

	m.Expect("extra")
	m.Reset()
	AssertExpectedCalls(t, m.Session(), "")
}

func TestNewSession_FrameworkErrorsFailTest(t *stdtesting.T) {
	rec := &recordingTB{TB: t}
	s := NewSession(rec)

	s.Expect(nil)

	if len(rec.errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(rec.errors))
	}
	if !strings.Contains(rec.errors[0], "null_argument") {
		t.Errorf("error %q does not name the error code", rec.errors[0])
	}
}
