// Package scenario loads call transcripts from YAML and replays them through
// a session.
//
// A scenario lists the expected calls, in order, and the actual calls made by
// the code under test:
//
//	name: open-close
//	expected:
//	  - name: open
//	    args: ["a.txt"]
//	    return: 3
//	  - name: log
//	    args: ["*"]
//	    ignoreAllCalls: true
//	  - name: close
//	    args: ["{arg > 0}"]
//	actual:
//	  - name: open
//	    args: ["a.txt"]
//	  - name: close
//	    args: [3]
//
// Expected string arguments "*", "{expr}" and "glob(pattern)" become the Any,
// Expr and Glob matchers of package call. Documents are validated against an
// embedded JSON Schema before they are decoded.
package scenario

import (
	"github.com/getmockd/callmock/pkg/call"
)

// Scenario is a replayable call transcript.
type Scenario struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Expected    []ExpectedCall `yaml:"expected,omitempty" json:"expected,omitempty"`
	Actual      []Call         `yaml:"actual,omitempty" json:"actual,omitempty"`

	// Want states the renderings a run must end with. Without it a run is OK
	// when no expected calls are left and no actual call went unmatched.
	Want *Want `yaml:"want,omitempty" json:"want,omitempty"`

	// Path is the file the scenario was loaded from, if any.
	Path string `yaml:"-" json:"-"`
}

// Call is one call to a mocked function.
type Call struct {
	Name string `yaml:"name" json:"name"`
	Args []any  `yaml:"args,omitempty" json:"args,omitempty"`
	Void bool   `yaml:"void,omitempty" json:"void,omitempty"`
}

// ExpectedCall is a call the code under test is expected to make.
type ExpectedCall struct {
	Call `yaml:",inline"`

	IgnoreAllCalls bool `yaml:"ignoreAllCalls,omitempty" json:"ignoreAllCalls,omitempty"`
	CannotFail     bool `yaml:"cannotFail,omitempty" json:"cannotFail,omitempty"`
	Fail           bool `yaml:"fail,omitempty" json:"fail,omitempty"`
	Return         any  `yaml:"return,omitempty" json:"return,omitempty"`
	FailReturn     any  `yaml:"failReturn,omitempty" json:"failReturn,omitempty"`
}

// Want holds the expected renderings after a run.
type Want struct {
	Expected string `yaml:"expected" json:"expected"`
	Actual   string `yaml:"actual" json:"actual"`
}

// canFail mirrors call.FuncCall.CanFail for the document form.
func (e ExpectedCall) canFail() bool {
	return !e.Void && !e.CannotFail
}

// funcCall builds an actual call. Arguments are compared by value.
func (c Call) funcCall() *call.FuncCall {
	if c.Void {
		return call.NewVoid(c.Name, c.Args...)
	}
	return call.New(c.Name, c.Args...)
}

// funcCall builds an expected call, turning argument patterns into matchers.
func (e ExpectedCall) funcCall() *call.FuncCall {
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		args[i] = call.ParseMatcher(a)
	}
	if e.Void {
		return call.NewVoid(e.Name, args...)
	}
	return call.New(e.Name, args...)
}
