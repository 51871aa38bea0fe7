package config

import "github.com/getmockd/callmock/pkg/logging"

// Locking modes for the call recorder.
const (
	LockingNone    = "none"
	LockingRWMutex = "rwmutex"
)

// DefaultNamespace is the Prometheus namespace used when none is configured.
const DefaultNamespace = "callmock"

// Config is the root configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" json:"log"`
	Recorder RecorderConfig `yaml:"recorder" json:"recorder"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level     string `yaml:"level" json:"level"`
	Format    string `yaml:"format" json:"format"`
	AddSource bool   `yaml:"addSource,omitempty" json:"addSource,omitempty"`
}

// RecorderConfig configures the call recorder of each session.
type RecorderConfig struct {
	// Locking selects the lock functions installed on the recorder.
	Locking string `yaml:"locking" json:"locking"`

	// HaltOnMismatch stops matching once an actual call was left unmatched.
	HaltOnMismatch bool `yaml:"haltOnMismatch,omitempty" json:"haltOnMismatch,omitempty"`
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Recorder: RecorderConfig{
			Locking: LockingNone,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
	}
}

// LoggingConfig converts the log section into a logging.Config writing to
// stderr. Unrecognized values are mapped as ParseLevel and ParseFormat do.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	cfg.Format = logging.ParseFormat(c.Log.Format)
	cfg.AddSource = c.Log.AddSource
	return cfg
}
