package harness

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nomina/internal/dataset"
	"github.com/roach88/nomina/internal/ir"
)

// Scenario is one conformance case: a dataset and the results the validator
// suite must report for it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// AsOf is the evaluation date (YYYY-MM-DD). Defaults to DefaultAsOf.
	AsOf string `yaml:"as_of,omitempty"`

	// Only restricts the run to the named validators.
	Only []string `yaml:"only,omitempty"`

	// Config is an assumptions file relative to the scenario file.
	// Empty means the compiled-in defaults.
	Config string `yaml:"config,omitempty"`

	// Data holds the dataset inline, in the JSON dataset shape.
	Data yaml.Node `yaml:"data,omitempty"`

	// Dataset is a dataset file relative to the scenario file. Mutually
	// exclusive with Data.
	Dataset string `yaml:"dataset,omitempty"`

	// Expect lists result expectations.
	Expect []Expectation `yaml:"expect"`

	// BlocksValuation, when set, asserts the valuation gate.
	BlocksValuation *bool `yaml:"blocks_valuation,omitempty"`

	// State, when set, asserts the final run state.
	State string `yaml:"state,omitempty"`

	// RunID is a fixed run ID. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// dir is the directory the scenario was loaded from.
	dir string
}

// Expectation matches results by the fields it sets and checks how many
// matched.
type Expectation struct {
	Agent           string `yaml:"agent,omitempty"`
	Severity        string `yaml:"severity,omitempty"`
	Kind            string `yaml:"kind,omitempty"`
	Field           string `yaml:"field,omitempty"`
	Collection      string `yaml:"collection,omitempty"`
	Rows            []int  `yaml:"rows,omitempty"`
	MessageContains string `yaml:"message_contains,omitempty"`

	// Count requires exactly this many matches. Zero asserts absence.
	Count *int `yaml:"count,omitempty"`

	// Min requires at least this many matches.
	Min *int `yaml:"min,omitempty"`
}

// DefaultAsOf is the evaluation date of scenarios that do not set as_of.
const DefaultAsOf = "2024-12-31"

// DatasetNotFoundError is returned when a scenario references a dataset or
// config file that does not exist.
type DatasetNotFoundError struct {
	Scenario     string
	Path         string
	ResolvedPath string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q references %q which does not exist (resolved to: %s)",
		e.Scenario, e.Path, e.ResolvedPath)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.dir = filepath.Dir(path)

	if err := scenario.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file
// name. Scenario names must be unique.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	seen := make(map[string]string, len(paths))
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("scenario name %q is used by both %s and %s", s.Name, prev, p)
		}
		seen[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if _, err := s.evaluationDate(); err != nil {
		return err
	}
	if !s.Data.IsZero() && s.Dataset != "" {
		return errors.New("data and dataset are mutually exclusive")
	}
	for i, e := range s.Expect {
		if e.Count != nil && e.Min != nil {
			return fmt.Errorf("expect[%d]: count and min are mutually exclusive", i)
		}
		switch ir.Severity(e.Severity) {
		case "", ir.SeverityInfo, ir.SeverityWarning, ir.SeverityCritical:
		default:
			return fmt.Errorf("expect[%d]: unknown severity %q", i, e.Severity)
		}
	}
	return nil
}

func (s *Scenario) evaluationDate() (time.Time, error) {
	raw := s.AsOf
	if raw == "" {
		raw = DefaultAsOf
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of %q is not a YYYY-MM-DD date", s.AsOf)
	}
	return t, nil
}

// resolve makes a scenario-relative path usable and checks it exists.
func (s *Scenario) resolve(path string) (string, error) {
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(s.dir, path)
	}
	if _, err := os.Stat(resolved); err != nil {
		if os.IsNotExist(err) {
			return "", &DatasetNotFoundError{Scenario: s.Name, Path: path, ResolvedPath: resolved}
		}
		return "", fmt.Errorf("failed to stat %s: %w", resolved, err)
	}
	return resolved, nil
}

// loadData builds the scenario's dataset through the same ingestion path
// as the CLI, so scenario rows get the same header aliases and numbering.
func (s *Scenario) loadData() (*dataset.Result, error) {
	if s.Dataset != "" {
		path, err := s.resolve(s.Dataset)
		if err != nil {
			return nil, err
		}
		return dataset.LoadFile(path)
	}
	if s.Data.IsZero() {
		return &dataset.Result{Data: &ir.MappedData{
			ActivePersonnel: []ir.EmployeeRecord{},
			Terminations:    []ir.TerminationRecord{},
		}}, nil
	}

	var tree any
	if err := s.Data.Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	doc, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("data must be a mapping of collections to rows: %w", err)
	}
	return dataset.ReadJSON(bytes.NewReader(doc))
}
