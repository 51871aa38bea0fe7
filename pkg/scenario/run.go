package scenario

import (
	"errors"
	"fmt"

	"github.com/getmockd/callmock/pkg/session"
)

// Report is the outcome of replaying a scenario.
type Report struct {
	Name string `json:"name"`

	// Expected and Actual are the session renderings after the run: the
	// expected calls never matched and the actual calls that matched nothing.
	Expected string `json:"expected"`
	Actual   string `json:"actual"`

	// Matched counts actual calls that consumed an expected call.
	Matched int `json:"matched"`

	// Failed counts matched calls that simulated a failure.
	Failed int `json:"failed"`

	// Returns holds the value returned to each actual call, in order.
	Returns []any `json:"returns"`

	OK bool `json:"ok"`
}

// Run registers the expected calls with s, marks the ones flagged fail, then
// invokes every actual call in order. s should be fresh: calls it already
// holds take part in matching.
func (sc *Scenario) Run(s *session.Session) (*Report, error) {
	for i, e := range sc.Expected {
		exp := s.Expect(e.funcCall())
		if exp.Call() == nil {
			return nil, fmt.Errorf("expected[%d] %s: registration failed", i, e.Name)
		}
		exp.SetReturn(e.Return).SetFailReturn(e.FailReturn)
		if e.IgnoreAllCalls {
			exp.IgnoreAllCalls()
		}
		if e.CannotFail {
			exp.CallCannotFail()
		}
	}

	base, err := s.Recorder().ExpectedCallCount()
	if err != nil {
		return nil, err
	}
	offset := base - len(sc.Expected)
	for i, e := range sc.Expected {
		if !e.Fail {
			continue
		}
		if err := s.Recorder().FailCall(offset + i); err != nil {
			return nil, fmt.Errorf("expected[%d] %s: %w", i, e.Name, err)
		}
	}

	report := &Report{Name: sc.Name, Returns: make([]any, 0, len(sc.Actual))}
	for i, a := range sc.Actual {
		before, err := s.Recorder().ExpectedCallCount()
		if err != nil {
			return nil, err
		}

		v, err := s.Invoke(a.funcCall())
		switch {
		case errors.Is(err, session.ErrSimulatedFailure):
			report.Failed++
		case err != nil:
			return nil, fmt.Errorf("actual[%d] %s: %w", i, a.Name, err)
		}
		report.Returns = append(report.Returns, v)

		after, err := s.Recorder().ExpectedCallCount()
		if err != nil {
			return nil, err
		}
		report.Matched += before - after
	}

	if report.Expected, err = s.ExpectedCalls(); err != nil {
		return nil, err
	}
	if report.Actual, err = s.ActualCalls(); err != nil {
		return nil, err
	}

	if sc.Want != nil {
		report.OK = report.Expected == sc.Want.Expected && report.Actual == sc.Want.Actual
	} else {
		report.OK = report.Expected == "" && report.Actual == ""
	}
	return report, nil
}

// String renders the report for terminal output.
func (r *Report) String() string {
	status := "PASS"
	if !r.OK {
		status = "FAIL"
	}
	s := fmt.Sprintf("%s %s (matched %d, failed %d)", status, r.Name, r.Matched, r.Failed)
	if r.Expected != "" {
		s += "\n  expected: " + r.Expected
	}
	if r.Actual != "" {
		s += "\n  actual:   " + r.Actual
	}
	return s
}
