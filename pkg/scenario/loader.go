package scenario

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/callmock/pkg/config"
)

//go:embed schema.json
var schemaJSON string

// ErrInvalidScenario is returned when a document fails validation.
var ErrInvalidScenario = errors.New("invalid scenario")

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("scenario.schema.json", strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to add scenario schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("scenario.schema.json")
	})
	return schema, schemaErr
}

// Validate checks a YAML document against the scenario schema and the rules
// the schema cannot express. The error is non-nil only when the document is
// not YAML or the schema itself is broken.
func Validate(data []byte) (*config.ValidationResult, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidYAML, err)
	}

	result := &config.ValidationResult{}
	if raw == nil {
		result.AddError("", "document is empty")
		return result, nil
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(normalize(raw)); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			result.AddError("", err.Error())
			return result, nil
		}
		collectSchemaErrors(ve, result)
		return result, nil
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidYAML, err)
	}
	for i, e := range sc.Expected {
		if e.Fail && !e.canFail() {
			result.AddError(fmt.Sprintf("expected[%d].fail", i), "call cannot fail (void or cannotFail)")
		}
	}
	return result, nil
}

// Parse validates and decodes a YAML document.
func Parse(data []byte) (*Scenario, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if !result.IsValid() {
		return nil, fmt.Errorf("%w:\n%s", ErrInvalidScenario, result.Error())
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidYAML, err)
	}
	return &sc, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", config.ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", config.ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", config.ErrEmptyFile, path)
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.Path = path
	return sc, nil
}

// Expand resolves doublestar patterns such as "testdata/**/*.yaml" to file
// paths. Arguments without pattern syntax are returned as given, so missing
// files surface later as ErrFileNotFound. The result is sorted and free of
// duplicates.
func Expand(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			add(pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			add(m)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// collectSchemaErrors flattens the leaf causes of a schema error.
func collectSchemaErrors(err *jsonschema.ValidationError, result *config.ValidationResult) {
	if len(err.Causes) == 0 {
		result.AddError(pointerToPath(err.InstanceLocation), err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, result)
	}
}

// pointerToPath turns a JSON pointer such as "/expected/0/name" into
// "expected[0].name".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	var b strings.Builder
	for i, seg := range strings.Split(ptr, "/") {
		if isIndex(seg) {
			b.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalize converts values decoded by yaml.v3 into the JSON value types the
// schema validator accepts.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case nil, bool, string, int, int64, uint64, float64:
		return t
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(t)
	}
}
