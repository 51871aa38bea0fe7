package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/getmockd/callmock/pkg/cli/internal/output"
	"github.com/getmockd/callmock/pkg/config"
	"github.com/getmockd/callmock/pkg/recorder"
	"github.com/getmockd/callmock/pkg/scenario"
	"github.com/getmockd/callmock/pkg/session"
)

// ErrScenarioFailed is returned by replay when at least one scenario did
// not end in the wanted state.
var ErrScenarioFailed = errors.New("scenario failed")

var (
	replayWatch    bool
	replayDebounce time.Duration
)

// ReplayResult is the outcome for a single scenario file.
type ReplayResult struct {
	Path   string           `json:"path"`
	Report *scenario.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// OK reports whether the scenario loaded, ran and passed.
func (r ReplayResult) OK() bool {
	return r.Error == "" && r.Report != nil && r.Report.OK
}

// MetricSample is a single gathered counter value.
type MetricSample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// ReplayOutput represents JSON output format
type ReplayOutput struct {
	Results []ReplayResult `json:"results"`
	Passed  int            `json:"passed"`
	Failed  int            `json:"failed"`
	Metrics []MetricSample `json:"metrics,omitempty"`
}

var replayCmd = &cobra.Command{
	Use:   "replay <file|glob>...",
	Short: "Replay scenario files and report mismatched calls",
	Long: `Replay runs every scenario through a fresh session: expected calls are
registered in order, then each actual call is matched against the oldest
outstanding expectation. Expected calls never made and actual calls that
matched nothing are reported.

Arguments may be doublestar patterns such as 'testdata/**/*.yaml'.`,
	Example: `  # Replay a single scenario
  callmock replay testdata/open_close.yaml

  # Replay a tree of scenarios with JSON output
  callmock replay --json 'scenarios/**/*.yaml'

  # Replay again whenever a scenario changes
  callmock replay --watch 'scenarios/**/*.yaml'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVarP(&replayWatch, "watch", "w", false, "Replay changed files until interrupted")
	replayCmd.Flags().DurationVar(&replayDebounce, "debounce", defaultDebounce, "Quiet period before replaying changed files")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	paths, err := scenario.Expand(args...)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no scenario files match %s", strings.Join(args, ", "))
	}

	r := newReplayer(cfg, logger)
	out := cmd.OutOrStdout()

	if !replayWatch {
		return r.replayAndPrint(out, paths)
	}

	errOut := cmd.ErrOrStderr()
	if err := r.replayAndPrint(out, paths); err != nil {
		output.Warn(errOut, "replay failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fw, err := newFileWatcher(paths, replayDebounce, logger, func(changed []string) {
		if err := r.replayAndPrint(out, changed); err != nil {
			output.Warn(errOut, "replay failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(errOut, "Watching %d file(s), press Ctrl+C to stop\n", len(paths))
	return fw.run(ctx)
}

// replayer runs scenarios with a shared configuration. Every run gets its
// own session; metrics, when enabled, accumulate across runs.
type replayer struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *recorder.Metrics

	mu sync.Mutex
}

func newReplayer(cfg *config.Config, logger *slog.Logger) *replayer {
	r := &replayer{cfg: cfg, logger: logger}
	if cfg.Metrics.Enabled {
		r.registry = prometheus.NewRegistry()
		r.metrics = recorder.NewMetrics(r.registry, cfg.Metrics.Namespace)
	}
	return r
}

// replayFile loads and runs one scenario. Errors are captured in the result
// so that one broken file does not stop the others.
func (r *replayer) replayFile(path string) ReplayResult {
	res := ReplayResult{Path: path}

	sc, err := scenario.Load(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	opts := []session.Option{session.WithLogger(r.logger.With("scenario", path))}
	if r.metrics != nil {
		opts = append(opts, session.WithMetrics(r.metrics))
	}
	s, err := session.New(r.cfg, opts...)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer s.Close()

	report, err := sc.Run(s)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if report.Name == "" {
		report.Name = path
	}
	res.Report = report
	return res
}

func (r *replayer) replay(paths []string) ReplayOutput {
	var out ReplayOutput
	for _, p := range paths {
		res := r.replayFile(p)
		if res.OK() {
			out.Passed++
		} else {
			out.Failed++
		}
		r.logger.Debug("scenario replayed", "path", p, "ok", res.OK())
		out.Results = append(out.Results, res)
	}
	out.Metrics = r.samples()
	return out
}

// replayAndPrint replays paths, writes the results to w and returns
// ErrScenarioFailed if any scenario failed.
func (r *replayer) replayAndPrint(w io.Writer, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.replay(paths)
	if jsonOutput {
		if err := output.JSON(w, out); err != nil {
			return err
		}
	} else {
		printReplay(w, out)
	}

	if out.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrScenarioFailed, out.Failed, len(out.Results))
	}
	return nil
}

func printReplay(w io.Writer, out ReplayOutput) {
	for _, res := range out.Results {
		if res.Error != "" {
			fmt.Fprintf(w, "ERROR %s: %s\n", res.Path, res.Error)
			continue
		}
		fmt.Fprintln(w, res.Report.String())
	}
	fmt.Fprintf(w, "\n%d passed, %d failed\n", out.Passed, out.Failed)

	if len(out.Metrics) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := output.Table(w)
	fmt.Fprintln(tw, "METRIC\tLABELS\tVALUE")
	for _, m := range out.Metrics {
		fmt.Fprintf(tw, "%s\t%s\t%g\n", m.Name, formatLabels(m.Labels), m.Value)
	}
	_ = tw.Flush()
}

// samples gathers the counters registered by the recorder metrics.
func (r *replayer) samples() []MetricSample {
	if r.registry == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		r.logger.Warn("failed to gather metrics", "error", err)
		return nil
	}

	var samples []MetricSample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			s := MetricSample{Name: mf.GetName(), Value: m.GetCounter().GetValue()}
			if pairs := m.GetLabel(); len(pairs) > 0 {
				s.Labels = make(map[string]string, len(pairs))
				for _, lp := range pairs {
					s.Labels[lp.GetName()] = lp.GetValue()
				}
			}
			samples = append(samples, s)
		}
	}
	return samples
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ",")
}
