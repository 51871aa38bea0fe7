package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/callmock/pkg/config"
	"github.com/getmockd/callmock/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	configPath string
	jsonOutput bool
	logLevel   string
	logFile    string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "callmock",
	Short: "callmock replays and checks recorded call transcripts",
	Long: `callmock matches the calls made by code under test against strict
expectations, one expected call at a time, and reports the expected calls that
were never made and the actual calls that matched nothing.

Scenarios are YAML files listing expected and actual calls. Configuration
(logging, recorder locking, metrics) can be provided with --config.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append logs to this file as JSON")
}

// loadConfig returns the validated configuration selected by the global
// flags.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if result := cfg.Validate(); !result.IsValid() {
		return nil, fmt.Errorf("invalid configuration:\n%s", result.Error())
	}
	return cfg, nil
}

// newLogger builds the CLI logger. Logs go to stderr so that command output
// on stdout stays parseable; with --log-file they are also appended to that
// file as JSON. The returned func closes the file.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	lc := cfg.LoggingConfig()
	lc.Output = os.Stderr
	if logFile == "" {
		return logging.New(lc), func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	fc := lc
	fc.Output = f
	fc.Format = logging.FormatJSON

	h := logging.NewMultiHandler(logging.NewHandler(lc), logging.NewHandler(fc))
	return slog.New(h), func() { _ = f.Close() }, nil
}
