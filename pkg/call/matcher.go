package call

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)


// Matcher decides whether an actual argument value satisfies an expected
// argument.
type Matcher interface {
	// Match reports whether actual is accepted. An error means the matcher
	// could not evaluate the value.
	Match(actual any) (bool, error)

	// String renders the expected argument.
	String() string
}

// Eq matches values equal to v (reflect.DeepEqual).
func Eq(v any) Matcher {
	return eqMatcher{value: v}
}

type eqMatcher struct {
	value any
}

func (m eqMatcher) Match(actual any) (bool, error) {
	return reflect.DeepEqual(m.value, actual), nil
}

func (m eqMatcher) String() string {
	if s, ok := m.value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", m.value)
}

// Any matches every value. It is the ignored-argument matcher.
func Any() Matcher {
	return anyMatcher{}
}

type anyMatcher struct{}

func (anyMatcher) Match(any) (bool, error) { return true, nil }

func (anyMatcher) String() string { return "*" }

// Expr matches when the boolean expr-lang expression src evaluates to true
// with the actual value bound to arg, e.g. "arg > 3 && arg < 10".
// The expression is compiled on first use and a compile error is returned
// from Match. A runtime error, such as comparing a string with a number, means
// the value does not match.
func Expr(src string) Matcher {
	return &exprMatcher{src: src}
}

type exprMatcher struct {
	src     string
	once    sync.Once
	program *vm.Program
	err     error
}

func (m *exprMatcher) Match(actual any) (bool, error) {
	m.once.Do(func() {
		m.program, m.err = expr.Compile(m.src, expr.AsBool())
	})
	if m.err != nil {
		return false, fmt.Errorf("compile %q: %w", m.src, m.err)
	}

	out, err := expr.Run(m.program, map[string]any{"arg": actual})
	if err != nil {
		return false, nil
	}
	matched, _ := out.(bool)
	return matched, nil
}

func (m *exprMatcher) String() string { return "{" + m.src + "}" }

// Glob matches string arguments against a doublestar pattern such as
// "/var/**/*.log". Arguments of any other type do not match; a malformed
// pattern is an error.
func Glob(pattern string) Matcher {
	return globMatcher{pattern: pattern}
}

type globMatcher struct {
	pattern string
}

func (m globMatcher) Match(actual any) (bool, error) {
	s, ok := actual.(string)
	if !ok {
		return false, nil
	}
	matched, err := doublestar.Match(m.pattern, s)
	if err != nil {
		return false, fmt.Errorf("glob %q: %w", m.pattern, err)
	}
	return matched, nil
}

func (m globMatcher) String() string { return "glob(" + m.pattern + ")" }

// ParseMatcher turns the textual argument forms used in scenario documents
// into matchers: "*" is Any, "{src}" is Expr and "glob(p)" is Glob. Any other
// value is matched with Eq.
func ParseMatcher(v any) Matcher {
	s, ok := v.(string)
	if !ok {
		return Eq(v)
	}
	switch {
	case s == "*":
		return Any()
	case len(s) > 2 && strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
		return Expr(s[1 : len(s)-1])
	case strings.HasPrefix(s, "glob(") && strings.HasSuffix(s, ")"):
		return Glob(s[len("glob(") : len(s)-1])
	default:
		return Eq(s)
	}
}
