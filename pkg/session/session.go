// Package session ties a call recorder to the rest of a mocking run: it builds
// the recorder from configuration, registers strict expectations, records
// invocations of mocked functions and reports framework errors to a handler
// scoped to the session.
//
//	s, err := session.New(nil)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	s.Expect(call.New("open", "a.txt")).SetReturn(3)
//	fd, _ := s.Invoke(call.New("open", "a.txt")) // fd == 3
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/getmockd/callmock/pkg/call"
	"github.com/getmockd/callmock/pkg/config"
	"github.com/getmockd/callmock/pkg/logging"
	"github.com/getmockd/callmock/pkg/recorder"
)

// ErrorHandler receives every framework error of a session.
type ErrorHandler func(*Error)

// Session is one mocking run.
type Session struct {
	// ID identifies the session in logs.
	ID string

	cfg      *config.Config
	logger   *slog.Logger
	metrics  *recorder.Metrics
	onError  ErrorHandler
	registry prometheus.Registerer

	mu       sync.RWMutex
	rec      *recorder.Recorder
	defaults map[string]any
}

// Option configures a Session.
type Option func(*Session)

// WithErrorHandler sets the handler invoked for every framework error.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Session) {
		s.onError = h
	}
}

// WithLogger overrides the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRegisterer registers fresh recorder metrics with reg when metrics are
// enabled. Without it the default registerer is used and shared by all
// sessions with the same namespace.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Session) {
		s.registry = reg
	}
}

// WithMetrics uses m for the recorder regardless of the metrics config.
func WithMetrics(m *recorder.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

var (
	defaultMetricsMu sync.Mutex
	defaultMetrics   = map[string]*recorder.Metrics{}
)

func sharedMetrics(namespace string) *recorder.Metrics {
	defaultMetricsMu.Lock()
	defer defaultMetricsMu.Unlock()

	if m, ok := defaultMetrics[namespace]; ok {
		return m
	}
	m := recorder.NewMetrics(prometheus.DefaultRegisterer, namespace)
	defaultMetrics[namespace] = m
	return m
}

// New creates a session from cfg. A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if result := cfg.Validate(); !result.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, result.Error())
	}

	s := &Session{
		ID:       uuid.NewString(),
		cfg:      cfg,
		defaults: make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.New(cfg.LoggingConfig())
	}
	s.logger = s.logger.With("session", s.ID)

	if s.metrics == nil && cfg.Metrics.Enabled {
		if s.registry != nil {
			s.metrics = recorder.NewMetrics(s.registry, cfg.Metrics.Namespace)
		} else {
			s.metrics = sharedMetrics(cfg.Metrics.Namespace)
		}
	}

	rec, err := s.newRecorder()
	if err != nil {
		return nil, err
	}
	s.rec = rec
	return s, nil
}

func (s *Session) newRecorder() (*recorder.Recorder, error) {
	opts := []recorder.Option{
		recorder.WithLogger(s.logger.With("component", "recorder")),
		recorder.WithMetrics(s.metrics),
	}
	if s.cfg.Recorder.HaltOnMismatch {
		opts = append(opts, recorder.WithHaltOnMismatch())
	}
	rec := recorder.New(opts...)

	if s.cfg.Recorder.Locking == config.LockingRWMutex {
		if err := rec.SetLockFunctions(recorder.NewRWMutexLocks()); err != nil {
			rec.Close()
			return nil, fmt.Errorf("installing recorder locks: %w", err)
		}
	}
	return rec, nil
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Recorder returns the recorder currently backing the session.
func (s *Session) Recorder() *recorder.Recorder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec
}

// SwapRecorder makes rec the session recorder and returns the previous one,
// which the caller now owns.
func (s *Session) SwapRecorder(rec *recorder.Recorder) *recorder.Recorder {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.rec
	s.rec = rec
	return old
}

// Close releases the recorder and every call it still holds.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.SwapRecorder(nil).Close()
}

// RegisterReturn sets the value Invoke returns for name when an actual call
// is not matched by a strict expectation.
func (s *Session) RegisterReturn(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[name] = v
}

func (s *Session) defaultReturn(name string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults[name]
}

// report logs a framework error and hands it to the error handler.
func (s *Session) report(code ErrorCode, op string, err error) *Error {
	e := &Error{Code: code, Op: op, Err: err}
	s.logger.Error("mock framework error", "op", op, "code", code.String(), "error", err)
	if s.onError != nil {
		s.onError(e)
	}
	return e
}

// Expect registers c as the next strict expected call and returns a handle
// to configure it. The session owns c from then on, also on failure.
func (s *Session) Expect(c *call.FuncCall) *Expectation {
	if s == nil {
		return &Expectation{}
	}
	if c == nil {
		s.report(CodeNullArgument, "expect", ErrNilCall)
		return &Expectation{s: s}
	}

	if err := s.Recorder().AddExpectedCall(c); err != nil {
		c.Destroy()
		s.report(CodeError, "expect", err)
		return &Expectation{s: s}
	}
	return &Expectation{s: s, call: c}
}

// Invoke records an invocation of a mocked function and returns the value
// the mock should return.
//
// When c matches the oldest expected call, that call's return value is
// returned; if the expected call was marked to fail, its fail return value is
// returned together with ErrSimulatedFailure. Otherwise the value registered
// with RegisterReturn for the function is returned. The session owns c.
func (s *Session) Invoke(c *call.FuncCall) (any, error) {
	if s == nil {
		return nil, ErrNilSession
	}
	if c == nil {
		return nil, s.report(CodeNullArgument, "invoke", ErrNilCall)
	}
	name := c.Name()

	matched, err := s.Recorder().AddActualCall(c)
	if err != nil {
		c.Destroy()
		return nil, s.report(invokeErrorCode(err), "invoke", err)
	}
	if matched == nil {
		return s.defaultReturn(name), nil
	}
	defer matched.Destroy()

	fc, ok := matched.(*call.FuncCall)
	if !ok {
		return s.defaultReturn(name), nil
	}
	if fc.FailCall() {
		s.logger.Debug("simulating failure", "call", name)
		return fc.Return(), fmt.Errorf("%s: %w", name, ErrSimulatedFailure)
	}
	return fc.Return(), nil
}

// invokeErrorCode classifies an AddActualCall failure. Only errors raised
// while comparing calls are compare errors.
func invokeErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, recorder.ErrLock), errors.Is(err, recorder.ErrNilRecorder):
		return CodeError
	default:
		return CodeCompareCallError
	}
}

// ExpectedCalls renders the outstanding strict expectations.
func (s *Session) ExpectedCalls() (string, error) {
	if s == nil {
		return "", ErrNilSession
	}
	out, err := s.Recorder().ExpectedCalls()
	if err != nil {
		return "", s.report(CodeError, "get_expected_calls", err)
	}
	return out, nil
}

// ActualCalls renders the actual calls that matched no expectation.
func (s *Session) ActualCalls() (string, error) {
	if s == nil {
		return "", ErrNilSession
	}
	out, err := s.Recorder().ActualCalls()
	if err != nil {
		return "", s.report(CodeError, "get_actual_calls", err)
	}
	return out, nil
}

// Reset clears all expected and actual calls.
func (s *Session) Reset() error {
	if s == nil {
		return ErrNilSession
	}
	if err := s.Recorder().ResetAllCalls(); err != nil {
		return s.report(CodeResetCallsError, "reset", err)
	}
	return nil
}
