package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/callmock/pkg/logging"
)

const passingScenario = `name: open-close
expected:
  - name: open
    args: ["a.txt"]
    return: 3
  - name: close
    args: ["{arg > 0}"]
actual:
  - name: open
    args: ["a.txt"]
  - name: close
    args: [3]
`

const failingScenario = `name: out-of-order
expected:
  - name: foo
    args: [1]
  - name: foo
    args: [2]
actual:
  - name: foo
    args: [2]
`

// syncBuffer is a bytes.Buffer safe for concurrent use by a running command
// and the test goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func resetFlags() {
	configPath = ""
	jsonOutput = false
	logLevel = ""
	logFile = ""
	replayWatch = false
	replayDebounce = defaultDebounce
	validateKind = kindAuto
}

func runCLI(ctx context.Context, stdout, stderr *syncBuffer, args ...string) error {
	resetFlags()
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	// Subcommands keep the context of their first execution.
	for _, sub := range rootCmd.Commands() {
		sub.SetContext(ctx)
	}
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	return rootCmd.ExecuteContext(ctx)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr syncBuffer
	err := runCLI(context.Background(), &stdout, &stderr, args...)
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "callmock "), "output: %q", out)
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionCmd_JSON(t *testing.T) {
	out, err := execute(t, "--json", "version")
	require.NoError(t, err)

	var v VersionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, runtime.Version(), v.Go)
	assert.Equal(t, runtime.GOOS, v.OS)
	assert.NotEmpty(t, v.Version)
}

func TestReplayCmd_Pass(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "open_close.yaml", passingScenario)

	out, err := execute(t, "replay", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS open-close (matched 2, failed 0)")
	assert.Contains(t, out, "1 passed, 0 failed")
}

func TestReplayCmd_FailReportsCalls(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/pass.yaml", passingScenario)
	writeFile(t, dir, "b/fail.yaml", failingScenario)

	out, err := execute(t, "replay", filepath.Join(dir, "**", "*.yaml"))
	require.ErrorIs(t, err, ErrScenarioFailed)
	assert.Contains(t, out, "FAIL out-of-order (matched 0, failed 0)")
	assert.Contains(t, out, "expected: [foo(1)][foo(2)]")
	assert.Contains(t, out, "actual:   [foo(2)]")
	assert.Contains(t, out, "1 passed, 1 failed")
}

func TestReplayCmd_JSON(t *testing.T) {
	dir := t.TempDir()
	pass := writeFile(t, dir, "pass.yaml", passingScenario)
	missing := filepath.Join(dir, "missing.yaml")

	out, err := execute(t, "--json", "replay", pass, missing)
	require.ErrorIs(t, err, ErrScenarioFailed)

	var got ReplayOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Results, 2)
	assert.Equal(t, 1, got.Passed)
	assert.Equal(t, 1, got.Failed)
	assert.Empty(t, got.Metrics)

	byPath := map[string]ReplayResult{}
	for _, r := range got.Results {
		byPath[r.Path] = r
	}
	require.NotNil(t, byPath[pass].Report)
	assert.True(t, byPath[pass].Report.OK)
	assert.Equal(t, 2, byPath[pass].Report.Matched)
	assert.Contains(t, byPath[missing].Error, "file not found")
}

func TestReplayCmd_InvalidScenario(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.yaml", "name: bad\nactual:\n  - name: 1bad\n")

	out, err := execute(t, "replay", path)
	require.ErrorIs(t, err, ErrScenarioFailed)
	assert.Contains(t, out, "ERROR "+path)
	assert.Contains(t, out, "actual[0].name")
}

func TestReplayCmd_NoMatches(t *testing.T) {
	_, err := execute(t, "replay", filepath.Join(t.TempDir(), "*.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenario files match")
}

func TestReplayCmd_RequiresArgs(t *testing.T) {
	_, err := execute(t, "replay")
	require.Error(t, err)
}

func TestReplayCmd_Metrics(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "callmock.yaml", "metrics:\n  enabled: true\n  namespace: clitest\nrecorder:\n  locking: rwmutex\n")
	a := writeFile(t, dir, "a.yaml", passingScenario)
	b := writeFile(t, dir, "b.yaml", failingScenario)

	out, err := execute(t, "--config", cfg, "--json", "replay", a, b)
	require.ErrorIs(t, err, ErrScenarioFailed)

	var got ReplayOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	values := map[string]float64{}
	for _, m := range got.Metrics {
		key := m.Name
		if o, ok := m.Labels["outcome"]; ok {
			key += "/" + o
		}
		values[key] = m.Value
	}
	assert.Equal(t, float64(4), values["clitest_recorder_expected_calls_total"])
	assert.Equal(t, float64(2), values["clitest_recorder_actual_calls_total/matched"])
	assert.Equal(t, float64(1), values["clitest_recorder_actual_calls_total/unmatched"])
}

func TestReplayCmd_MetricsTable(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "callmock.yaml", "metrics:\n  enabled: true\n  namespace: tabletest\n")
	a := writeFile(t, dir, "a.yaml", passingScenario)

	out, err := execute(t, "--config", cfg, "replay", a)
	require.NoError(t, err)
	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, "tabletest_recorder_actual_calls_total")
	assert.Contains(t, out, "outcome=matched")
}

func TestReplayCmd_BadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "callmock.yaml", "recorder:\n  locking: spinlock\n")
	a := writeFile(t, dir, "a.yaml", passingScenario)

	_, err := execute(t, "--config", cfg, "replay", a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recorder.locking")
}

func TestReplayCmd_LogLevelOverride(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", passingScenario)

	_, err := execute(t, "--log-level", "verbose", "replay", a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestReplayCmd_LogFile(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", passingScenario)
	logPath := filepath.Join(dir, "logs", "callmock.log")

	_, err := execute(t, "--log-level", "debug", "--log-file", logPath, "replay", a)
	require.Error(t, err, "log directory does not exist")
	assert.Contains(t, err.Error(), "failed to open log file")

	logPath = filepath.Join(dir, "callmock.log")
	_, err = execute(t, "--log-level", "debug", "--log-file", logPath, "replay", a)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var found bool
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line %q", line)
		if entry["msg"] == "scenario replayed" {
			found = true
			assert.Equal(t, a, entry["path"])
			assert.Equal(t, true, entry["ok"])
		}
	}
	assert.True(t, found, "log file:\n%s", data)
}

func TestReplayCmd_Watch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "watched.yaml", failingScenario)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- runCLI(ctx, &stdout, &stderr, "replay", "--watch", "--debounce", "20ms", path)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "Watching 1 file(s)")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, stdout.String(), "0 passed, 1 failed")
	assert.Contains(t, stderr.String(), "Warning: replay failed: scenario failed: 1 of 1")

	require.NoError(t, os.WriteFile(path, []byte(passingScenario), 0o644))

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "1 passed, 0 failed")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("replay --watch did not stop after cancellation")
	}
}

func TestValidateCmd(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", passingScenario)
	cfg := writeFile(t, dir, "callmock.yaml", "log:\n  level: debug\n")

	out, err := execute(t, "validate", good, cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "OK      "+good+" (scenario)")
	assert.Contains(t, out, "OK      "+cfg+" (config)")
}

func TestValidateCmd_Invalid(t *testing.T) {
	dir := t.TempDir()
	voidFail := writeFile(t, dir, "void_fail.yaml", `name: void-fail
expected:
  - name: log
    void: true
    fail: true
`)
	badCfg := writeFile(t, dir, "bad_config.yaml", "log:\n  format: xml\n")

	out, err := execute(t, "validate", voidFail, badCfg)
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, out, "INVALID "+voidFail+" (scenario)")
	assert.Contains(t, out, "expected[0].fail")
	assert.Contains(t, out, "INVALID "+badCfg+" (config)")
	assert.Contains(t, out, "log.format")
}

func TestValidateCmd_KindAndJSON(t *testing.T) {
	dir := t.TempDir()
	// Without --kind this would be detected as config and rejected for
	// unknown fields.
	path := writeFile(t, dir, "named.yaml", "name: only-a-name\n")

	out, err := execute(t, "--json", "validate", "--kind", "scenario", path)
	require.NoError(t, err)

	var got []ValidateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, ValidateOutput{Path: path, Kind: kindScenario, Valid: true}, got[0])

	_, err = execute(t, "validate", path)
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateCmd_BadKind(t *testing.T) {
	_, err := execute(t, "validate", "--kind", "mock", "x.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --kind")
}

func TestFileWatcher_FiltersAndDebounces(t *testing.T) {
	dir := t.TempDir()
	watched := writeFile(t, dir, "watched.yaml", "a")
	other := writeFile(t, dir, "other.yaml", "a")

	changes := make(chan []string, 4)
	fw, err := newFileWatcher([]string{watched}, 50*time.Millisecond, logging.Nop(), func(paths []string) {
		changes <- paths
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.run(ctx) }()

	require.NoError(t, os.WriteFile(other, []byte("b"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(watched, []byte{byte('b' + i)}, 0o644))
	}

	abs, err := filepath.Abs(watched)
	require.NoError(t, err)
	select {
	case got := <-changes:
		assert.Equal(t, []string{abs}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"expected key", "expected: []\n", kindScenario},
		{"actual key", "actual: []\n", kindScenario},
		{"config", "log:\n  level: info\n", kindConfig},
		{"not yaml", ":\n\t- [", kindConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectKind([]byte(tt.data)))
		})
	}
}

func TestFormatLabels(t *testing.T) {
	assert.Equal(t, "-", formatLabels(nil))
	assert.Equal(t, "a=1,b=2", formatLabels(map[string]string{"b": "2", "a": "1"}))
}
