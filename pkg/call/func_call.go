package call

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var _ Call = (*FuncCall)(nil)

// FuncCall is a call to a mocked function. The same type serves as expected
// call (arguments are matchers) and as actual call (arguments are the values
// the code under test passed, wrapped in Eq).
type FuncCall struct {
	// ID identifies this call instance in logs. Clones get a new ID.
	ID string

	name string
	args []Matcher

	void           bool
	ignoreAllCalls bool
	cannotFail     bool
	failCall       bool
	destroyed      bool

	returnValue     any
	failReturnValue any
}

// New creates a call to the named function. Arguments implementing Matcher
// are kept as-is; other values are wrapped in Eq.
func New(name string, args ...any) *FuncCall {
	c := &FuncCall{
		ID:   uuid.NewString(),
		name: name,
		args: make([]Matcher, len(args)),
	}
	for i, a := range args {
		if m, ok := a.(Matcher); ok {
			c.args[i] = m
			continue
		}
		c.args[i] = Eq(a)
	}
	return c
}

// NewVoid creates a call to a function without a return value. Such calls
// cannot be made to fail.
func NewVoid(name string, args ...any) *FuncCall {
	c := New(name, args...)
	c.void = true
	return c
}

// Name returns the function name.
func (c *FuncCall) Name() string { return c.name }

// Args returns the argument matchers.
func (c *FuncCall) Args() []Matcher {
	out := make([]Matcher, len(c.args))
	copy(out, c.args)
	return out
}

// SetArg replaces the matcher of the argument at index.
func (c *FuncCall) SetArg(index int, m Matcher) error {
	if index < 0 || index >= len(c.args) {
		return fmt.Errorf("%w: %s has %d arguments, got index %d", ErrArgIndexOutOfRange, c.name, len(c.args), index)
	}
	c.args[index] = m
	return nil
}

// IgnoreArgument makes the argument at index match any value.
func (c *FuncCall) IgnoreArgument(index int) error {
	return c.SetArg(index, Any())
}

// SetIgnoreAllCalls turns the call into a standing wildcard expectation.
func (c *FuncCall) SetIgnoreAllCalls(ignore bool) *FuncCall {
	c.ignoreAllCalls = ignore
	return c
}

// SetCannotFail marks the call as one that cannot be made to fail.
func (c *FuncCall) SetCannotFail() *FuncCall {
	c.cannotFail = true
	return c
}

// SetReturn sets the value returned when the call is matched.
func (c *FuncCall) SetReturn(v any) *FuncCall {
	c.returnValue = v
	return c
}

// SetFailReturn sets the value returned when the call is matched while
// marked to fail.
func (c *FuncCall) SetFailReturn(v any) *FuncCall {
	c.failReturnValue = v
	return c
}

// Return returns the configured return value, or the fail return value when
// the call has been marked to fail.
func (c *FuncCall) Return() any {
	if c.failCall {
		return c.failReturnValue
	}
	return c.returnValue
}

// Clone implements Call.
func (c *FuncCall) Clone() (Call, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	clone := *c
	clone.ID = uuid.NewString()
	clone.args = make([]Matcher, len(c.args))
	copy(clone.args, c.args)
	return &clone, nil
}

// Destroy implements Call.
func (c *FuncCall) Destroy() {
	c.destroyed = true
	c.args = nil
}

// String implements Call. The format is "[name(arg1,arg2)]".
func (c *FuncCall) String() (string, error) {
	if c.destroyed {
		return "", ErrDestroyed
	}
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(c.name)
	b.WriteString("(")
	for i, a := range c.args {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(a.String())
	}
	b.WriteString(")]")
	return b.String(), nil
}

// Compare implements Call. The receiver is the expected call.
func (c *FuncCall) Compare(actual Call) (bool, error) {
	if c.destroyed {
		return false, ErrDestroyed
	}
	other, ok := actual.(*FuncCall)
	if !ok {
		return false, nil
	}
	if other.destroyed {
		return false, ErrDestroyed
	}
	if c.name != other.name || len(c.args) != len(other.args) {
		return false, nil
	}

	for i, m := range c.args {
		matched, err := m.Match(argValue(other.args[i]))
		if err != nil {
			return false, fmt.Errorf("%s argument %d: %w", c.name, i, err)
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

// IgnoreAllCalls implements Call.
func (c *FuncCall) IgnoreAllCalls() (bool, error) {
	return c.ignoreAllCalls, nil
}

// FailCall implements Call.
func (c *FuncCall) FailCall() bool { return c.failCall }

// SetFailCall implements Call.
func (c *FuncCall) SetFailCall(fail bool) error {
	if c.destroyed {
		return ErrDestroyed
	}
	c.failCall = fail
	return nil
}

// CanFail implements Call.
func (c *FuncCall) CanFail() (bool, error) {
	return !c.void && !c.cannotFail, nil
}

// argValue unwraps the value captured in an actual call's argument.
func argValue(m Matcher) any {
	if eq, ok := m.(eqMatcher); ok {
		return eq.value
	}
	return m
}
