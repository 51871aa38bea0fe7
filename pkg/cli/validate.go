package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/callmock/pkg/cli/internal/output"
	"github.com/getmockd/callmock/pkg/config"
	"github.com/getmockd/callmock/pkg/scenario"
)

// Document kinds accepted by validate --kind.
const (
	kindAuto     = "auto"
	kindConfig   = "config"
	kindScenario = "scenario"
)

// ErrValidationFailed is returned by validate when a document is invalid.
var ErrValidationFailed = errors.New("validation failed")

var validateKind string

// ValidateOutput represents JSON output format
type ValidateOutput struct {
	Path   string   `json:"path"`
	Kind   string   `json:"kind"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate <file|glob>...",
	Short: "Validate scenario or configuration files",
	Long: `Validate checks YAML syntax and structure without replaying anything.

Scenarios are checked against the scenario JSON schema and for expected calls
marked to fail that cannot fail. Configuration files are checked for unknown
fields and invalid values.

With --kind auto (the default) a document with top-level "expected" or
"actual" keys is treated as a scenario, anything else as configuration.`,
	Example: `  callmock validate testdata/open_close.yaml
  callmock validate --kind config callmock.yaml
  callmock validate --json 'scenarios/**/*.yaml'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch validateKind {
		case kindAuto, kindConfig, kindScenario:
		default:
			return fmt.Errorf("invalid --kind %q (expected auto, config or scenario)", validateKind)
		}

		paths, err := scenario.Expand(args...)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no files match %v", args)
		}

		results := make([]ValidateOutput, 0, len(paths))
		invalid := 0
		for _, p := range paths {
			res := validateFile(p, validateKind)
			if !res.Valid {
				invalid++
			}
			results = append(results, res)
		}

		if jsonOutput {
			if err := output.JSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}
		} else {
			printValidate(cmd.OutOrStdout(), results)
		}

		if invalid > 0 {
			return fmt.Errorf("%w: %d of %d", ErrValidationFailed, invalid, len(results))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateKind, "kind", "k", kindAuto, "Document kind: auto, config or scenario")
	rootCmd.AddCommand(validateCmd)
}

func validateFile(path, kind string) ValidateOutput {
	res := ValidateOutput{Path: path, Kind: kind}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("%w: %s", config.ErrFileNotFound, path)
		}
		res.Errors = []string{err.Error()}
		return res
	}

	if kind == kindAuto {
		kind = detectKind(data)
		res.Kind = kind
	}

	var result *config.ValidationResult
	switch kind {
	case kindScenario:
		result, err = scenario.Validate(data)
	default:
		result, err = validateConfig(data)
	}
	if err != nil {
		res.Errors = []string{err.Error()}
		return res
	}

	res.Valid = result.IsValid()
	for _, e := range result.Errors {
		res.Errors = append(res.Errors, e.Error())
	}
	return res
}

func validateConfig(data []byte) (*config.ValidationResult, error) {
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg.Validate(), nil
}

// detectKind guesses the document kind from its top-level keys.
func detectKind(data []byte) string {
	var top map[string]any
	if err := yaml.Unmarshal(data, &top); err != nil {
		return kindConfig
	}
	if _, ok := top["expected"]; ok {
		return kindScenario
	}
	if _, ok := top["actual"]; ok {
		return kindScenario
	}
	return kindConfig
}

func printValidate(w io.Writer, results []ValidateOutput) {
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "OK      %s (%s)\n", r.Path, r.Kind)
			continue
		}
		fmt.Fprintf(w, "INVALID %s (%s)\n", r.Path, r.Kind)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}
