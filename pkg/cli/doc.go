// Package cli provides the command-line interface for callmock.
//
// Commands:
//   - replay: Replay scenario files through fresh sessions and report mismatches
//   - validate: Check scenario and configuration files without running them
//   - version: Show callmock version
//
// Global flags:
//   - --config: YAML configuration file (logging, recorder locking, metrics)
//   - --json: Output command results in JSON format
//   - --log-level: Override log.level from the configuration
//   - --log-file: Also append logs to a file as JSON
package cli
