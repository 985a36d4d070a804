package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a mapping test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mapping is the path to a CUE mapping program.
	// Relative paths are resolved against the scenario file's directory.
	Mapping string `yaml:"mapping,omitempty"`

	// Program is an inline CUE mapping program, used instead of Mapping.
	Program string `yaml:"program,omitempty"`

	// RunID is an optional fixed run ID for deterministic tests.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// DropOnError drops failed events instead of emitting them.
	DropOnError bool `yaml:"drop_on_error,omitempty"`

	// Cases are the events to run, in order.
	Cases []Case `yaml:"cases"`
}

// Case is one input event and what it should become.
type Case struct {
	// Name identifies the case within the scenario.
	Name string `yaml:"name"`

	// Input is the event fed to the mapping.
	Input map[string]any `yaml:"input"`

	// Expect specifies the expected outcome.
	// If nil, the case only has to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a case.
type ExpectClause struct {
	// Event is the exact expected output.
	Event map[string]any `yaml:"event,omitempty"`

	// Error is the exact expected error text.
	// If nil, the mapping must succeed.
	Error *string `yaml:"error,omitempty"`

	// Fields maps paths to values the output must hold (subset match).
	Fields map[string]any `yaml:"fields,omitempty"`

	// Absent lists paths the output must not contain.
	Absent []string `yaml:"absent,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "case:" vs "cases:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Mapping != "" && !filepath.IsAbs(scenario.Mapping) {
		scenario.Mapping = filepath.Join(filepath.Dir(path), scenario.Mapping)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the YAML scenario files in dir, sorted by name.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

// validateScenario checks required fields.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Mapping == "" && s.Program == "" {
		return fmt.Errorf("one of mapping or program is required")
	}
	if s.Mapping != "" && s.Program != "" {
		return fmt.Errorf("mapping and program are mutually exclusive")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("at least one case is required")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true
		if c.Input == nil {
			return fmt.Errorf("cases[%d]: input is required", i)
		}
	}

	return nil
}
